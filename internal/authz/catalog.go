package authz

// Catalog holds the role definitions for both scopes. It is read-only after
// construction; replacing the catalog at runtime means building a new one
// and swapping the pointer, never mutating in place.
type Catalog struct {
	ordered map[Scope][]Role
	index   map[Scope]map[string]Role
}

// NewCatalog builds a catalog from role definitions. Declaration order is
// preserved per scope and drives the ordering of resolver output.
func NewCatalog(roles ...Role) *Catalog {
	c := &Catalog{
		ordered: make(map[Scope][]Role, 2),
		index:   make(map[Scope]map[string]Role, 2),
	}
	for _, role := range roles {
		if _, ok := c.index[role.Scope]; !ok {
			c.index[role.Scope] = make(map[string]Role)
		}
		if _, dup := c.index[role.Scope][role.Code]; dup {
			continue
		}
		c.ordered[role.Scope] = append(c.ordered[role.Scope], role)
		c.index[role.Scope][role.Code] = role
	}
	return c
}

// RolesForScope returns the roles declared for a scope in catalog order.
func (c *Catalog) RolesForScope(scope Scope) []Role {
	src := c.ordered[scope]
	out := make([]Role, len(src))
	copy(out, src)
	return out
}

// RoleByCode looks up one role. Unknown codes return UnknownRoleError;
// callers must not silently drop them.
func (c *Catalog) RoleByCode(scope Scope, code string) (Role, error) {
	if byCode, ok := c.index[scope]; ok {
		if role, ok := byCode[code]; ok {
			return role, nil
		}
	}
	return Role{}, &UnknownRoleError{Scope: scope, Code: code}
}

// DefaultCatalog returns the role catalog shipped with the application.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Role{Code: "admin", Scope: ScopeOrganization, GrantedPermissions: []string{
			PermViewRegulations,
			PermManageRegulations,
			PermViewProjects,
			PermManageProjects,
			PermViewTasks,
			PermCreateTasks,
			PermManageTasks,
			PermViewEvidence,
			PermUploadEvidence,
			PermApproveControls,
			PermManageUsers,
			PermManageSystemSettings,
		}},
		Role{Code: "officer", Scope: ScopeOrganization, GrantedPermissions: []string{
			PermViewRegulations,
			PermViewProjects,
			PermViewTasks,
			PermCreateTasks,
			PermManageTasks,
			PermViewEvidence,
			PermUploadEvidence,
			PermApproveControls,
		}},
		Role{Code: "user", Scope: ScopeOrganization, GrantedPermissions: []string{
			PermViewRegulations,
			PermViewProjects,
			PermViewTasks,
			PermCreateTasks,
		}},
		Role{Code: "viewer", Scope: ScopeOrganization, GrantedPermissions: []string{
			PermViewRegulations,
			PermViewProjects,
			PermViewTasks,
		}},
		Role{Code: "manager", Scope: ScopeProject, GrantedPermissions: []string{
			PermViewTasks,
			PermCreateTasks,
			PermManageTasks,
			PermViewEvidence,
			PermUploadEvidence,
			PermApproveControls,
		}},
		Role{Code: "collaborator", Scope: ScopeProject, GrantedPermissions: []string{
			PermViewTasks,
			PermCreateTasks,
			PermViewEvidence,
			PermUploadEvidence,
		}},
		Role{Code: "viewer", Scope: ScopeProject, GrantedPermissions: []string{
			PermViewTasks,
			PermViewEvidence,
		}},
	)
}
