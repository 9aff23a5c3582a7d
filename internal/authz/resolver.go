package authz

import "sort"

// Resolve turns two sets of role codes into the effective permission set.
// Inputs are treated as sets: duplicates collapse and iteration order does
// not influence the result. The returned role lists follow catalog
// declaration order. Any unknown code aborts the whole resolution with
// UnknownRoleError; a partial permission set is never returned.
func (c *Catalog) Resolve(orgCodes, projectCodes []string) (EffectivePermissionSet, error) {
	orgRoles, err := c.resolveScope(ScopeOrganization, orgCodes)
	if err != nil {
		return EffectivePermissionSet{}, err
	}
	projectRoles, err := c.resolveScope(ScopeProject, projectCodes)
	if err != nil {
		return EffectivePermissionSet{}, err
	}

	sources := make(map[string]Scope)
	for _, role := range projectRoles {
		for _, perm := range role.GrantedPermissions {
			sources[perm] = ScopeProject
		}
	}
	// Organization wins the display tie-break: it is the broader, more
	// durable grant. This never gates access.
	for _, role := range orgRoles {
		for _, perm := range role.GrantedPermissions {
			sources[perm] = ScopeOrganization
		}
	}

	permissions := make([]string, 0, len(sources))
	for perm := range sources {
		permissions = append(permissions, perm)
	}
	sort.Strings(permissions)

	return EffectivePermissionSet{
		OrganizationRoles: orgRoles,
		ProjectRoles:      projectRoles,
		Permissions:       permissions,
		Sources:           sources,
	}, nil
}

// resolveScope validates every requested code against the catalog and
// returns the matching roles in catalog order.
func (c *Catalog) resolveScope(scope Scope, codes []string) ([]Role, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	requested := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if _, err := c.RoleByCode(scope, code); err != nil {
			return nil, err
		}
		requested[code] = struct{}{}
	}
	roles := make([]Role, 0, len(requested))
	for _, role := range c.ordered[scope] {
		if _, ok := requested[role.Code]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}
