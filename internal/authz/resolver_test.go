package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog(
		Role{Code: "admin", Scope: ScopeOrganization, GrantedPermissions: []string{PermApproveControls, PermManageSystemSettings}},
		Role{Code: "officer", Scope: ScopeOrganization, GrantedPermissions: []string{PermViewRegulations, PermUploadEvidence}},
		Role{Code: "user", Scope: ScopeOrganization, GrantedPermissions: []string{PermViewRegulations, PermCreateTasks}},
		Role{Code: "viewer", Scope: ScopeOrganization, GrantedPermissions: []string{PermViewRegulations}},
		Role{Code: "manager", Scope: ScopeProject, GrantedPermissions: []string{PermManageTasks, PermUploadEvidence}},
		Role{Code: "collaborator", Scope: ScopeProject, GrantedPermissions: []string{PermUploadEvidence}},
	)
}

func TestResolveUnionsPermissions(t *testing.T) {
	set, err := testCatalog().Resolve([]string{"admin", "viewer"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{PermApproveControls, PermManageSystemSettings, PermViewRegulations}, set.Permissions)
}

func TestResolveEmptyInputsYieldEmptySet(t *testing.T) {
	set, err := testCatalog().Resolve(nil, nil)
	require.NoError(t, err)

	assert.Empty(t, set.Permissions)
	assert.Empty(t, set.OrganizationRoles)
	assert.Empty(t, set.ProjectRoles)
}

func TestResolveIsDeterministic(t *testing.T) {
	catalog := testCatalog()

	first, err := catalog.Resolve([]string{"admin", "officer"}, []string{"collaborator"})
	require.NoError(t, err)
	second, err := catalog.Resolve([]string{"admin", "officer"}, []string{"collaborator"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveIgnoresInputOrder(t *testing.T) {
	catalog := testCatalog()

	forward, err := catalog.Resolve([]string{"admin", "officer", "viewer"}, []string{"manager", "collaborator"})
	require.NoError(t, err)
	reversed, err := catalog.Resolve([]string{"viewer", "officer", "admin"}, []string{"collaborator", "manager"})
	require.NoError(t, err)

	assert.Equal(t, forward, reversed)

	// Display lists follow catalog declaration order, not input order.
	assert.Equal(t, []string{"admin", "officer", "viewer"}, roleCodesOf(forward.OrganizationRoles))
	assert.Equal(t, []string{"manager", "collaborator"}, roleCodesOf(forward.ProjectRoles))
}

func TestResolveCollapsesDuplicateCodes(t *testing.T) {
	catalog := testCatalog()

	once, err := catalog.Resolve([]string{"viewer"}, nil)
	require.NoError(t, err)
	twice, err := catalog.Resolve([]string{"viewer", "viewer"}, nil)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestResolveIsMonotonic(t *testing.T) {
	catalog := testCatalog()

	smaller, err := catalog.Resolve([]string{"viewer"}, nil)
	require.NoError(t, err)
	larger, err := catalog.Resolve([]string{"viewer", "admin"}, nil)
	require.NoError(t, err)

	assert.Subset(t, larger.Permissions, smaller.Permissions)
	assert.GreaterOrEqual(t, len(larger.Permissions), len(smaller.Permissions))
}

func TestResolveOrganizationWinsSourceTieBreak(t *testing.T) {
	// officer (organization) and collaborator (project) both grant
	// upload_evidence; the display source favors the organization grant.
	set, err := testCatalog().Resolve([]string{"officer"}, []string{"collaborator"})
	require.NoError(t, err)

	assert.Equal(t, ScopeOrganization, set.Sources[PermUploadEvidence])
	assert.Equal(t, ScopeOrganization, set.Sources[PermViewRegulations])
}

func TestResolveProjectOnlyPermissionTaggedProject(t *testing.T) {
	set, err := testCatalog().Resolve([]string{"viewer"}, []string{"manager"})
	require.NoError(t, err)

	assert.Equal(t, ScopeProject, set.Sources[PermManageTasks])
}

func TestResolveUnknownRoleAbortsWholeResolution(t *testing.T) {
	catalog := testCatalog()

	_, err := catalog.Resolve([]string{"admin", "does_not_exist"}, nil)
	var unknown *UnknownRoleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, ScopeOrganization, unknown.Scope)
	assert.Equal(t, "does_not_exist", unknown.Code)

	// Scopes do not bleed into each other: a valid project code is not a
	// valid organization code.
	_, err = catalog.Resolve([]string{"collaborator"}, nil)
	require.ErrorAs(t, err, &unknown)

	_, err = catalog.Resolve(nil, []string{"admin"})
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, ScopeProject, unknown.Scope)
}

func TestDefaultCatalogResolvesAdmin(t *testing.T) {
	set, err := DefaultCatalog().Resolve([]string{"admin"}, nil)
	require.NoError(t, err)

	assert.True(t, set.Has(PermManageUsers))
	assert.True(t, set.Has(PermManageSystemSettings))
	assert.True(t, set.Has(PermApproveControls))
}

func TestHasReportsMembership(t *testing.T) {
	set, err := testCatalog().Resolve([]string{"user"}, nil)
	require.NoError(t, err)

	assert.True(t, set.Has(PermCreateTasks))
	assert.False(t, set.Has(PermManageSystemSettings))
}

func roleCodesOf(roles []Role) []string {
	codes := make([]string, 0, len(roles))
	for _, role := range roles {
		codes = append(codes, role.Code)
	}
	return codes
}
