package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogPreservesDeclarationOrder(t *testing.T) {
	catalog := DefaultCatalog()

	org := catalog.RolesForScope(ScopeOrganization)
	assert.Equal(t, []string{"admin", "officer", "user", "viewer"}, roleCodesOf(org))

	project := catalog.RolesForScope(ScopeProject)
	assert.Equal(t, []string{"manager", "collaborator", "viewer"}, roleCodesOf(project))
}

func TestCatalogRoleByCode(t *testing.T) {
	catalog := DefaultCatalog()

	role, err := catalog.RoleByCode(ScopeOrganization, "officer")
	require.NoError(t, err)
	assert.Equal(t, "officer", role.Code)
	assert.Contains(t, role.GrantedPermissions, PermUploadEvidence)

	_, err = catalog.RoleByCode(ScopeOrganization, "manager")
	var unknown *UnknownRoleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "manager", unknown.Code)
}

func TestCatalogSameCodeAtBothScopes(t *testing.T) {
	catalog := DefaultCatalog()

	orgViewer, err := catalog.RoleByCode(ScopeOrganization, "viewer")
	require.NoError(t, err)
	projectViewer, err := catalog.RoleByCode(ScopeProject, "viewer")
	require.NoError(t, err)

	assert.NotEqual(t, orgViewer.GrantedPermissions, projectViewer.GrantedPermissions)
}

func TestCatalogIgnoresDuplicateDeclarations(t *testing.T) {
	catalog := NewCatalog(
		Role{Code: "viewer", Scope: ScopeOrganization, GrantedPermissions: []string{PermViewRegulations}},
		Role{Code: "viewer", Scope: ScopeOrganization, GrantedPermissions: []string{PermManageSystemSettings}},
	)

	role, err := catalog.RoleByCode(ScopeOrganization, "viewer")
	require.NoError(t, err)
	assert.Equal(t, []string{PermViewRegulations}, role.GrantedPermissions)
	assert.Len(t, catalog.RolesForScope(ScopeOrganization), 1)
}

func TestRolesForScopeReturnsCopy(t *testing.T) {
	catalog := DefaultCatalog()

	first := catalog.RolesForScope(ScopeOrganization)
	first[0] = Role{Code: "mutated", Scope: ScopeOrganization}

	second := catalog.RolesForScope(ScopeOrganization)
	assert.Equal(t, "admin", second[0].Code)
}
