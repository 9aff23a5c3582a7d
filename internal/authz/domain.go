// Package authz implements effective permission resolution: combining an
// actor's organization-wide roles with project-scoped roles into a single
// deduplicated permission set, either from persisted assignments or from a
// hypothetical selection that has not been saved yet.
package authz

// Scope is the breadth at which a role applies.
type Scope string

const (
	// ScopeOrganization marks roles that apply across the whole tenant.
	ScopeOrganization Scope = "organization"
	// ScopeProject marks roles limited to a single compliance project.
	ScopeProject Scope = "project"
)

// Permission codes granted through roles. Permissions are never assigned
// to actors directly.
const (
	PermViewRegulations      = "view_regulations"
	PermManageRegulations    = "manage_regulations"
	PermViewProjects         = "view_projects"
	PermManageProjects       = "manage_projects"
	PermViewTasks            = "view_tasks"
	PermCreateTasks          = "create_tasks"
	PermManageTasks          = "manage_tasks"
	PermViewEvidence         = "view_evidence"
	PermUploadEvidence       = "upload_evidence"
	PermApproveControls      = "approve_controls"
	PermManageUsers          = "manage_users"
	PermManageSystemSettings = "manage_system_settings"
)

// Role maps a role code to the permissions it grants at one scope.
// Roles are reference data, defined at deploy time and immutable at runtime.
type Role struct {
	Code               string   `json:"code"`
	Scope              Scope    `json:"scope"`
	GrantedPermissions []string `json:"grantedPermissions"`
}

// RoleAssignment records that an actor holds a role. Organization-scope
// assignments never carry a project ID; project-scope assignments always do.
type RoleAssignment struct {
	ActorID   int64
	RoleCode  string
	Scope     Scope
	ProjectID *int64
}

// EffectivePermissionSet is the derived result of a resolution. It is never
// persisted; every query computes it fresh.
type EffectivePermissionSet struct {
	OrganizationRoles []Role
	ProjectRoles      []Role
	// Permissions is the deduplicated union across both role lists,
	// sorted for deterministic output.
	Permissions []string
	// Sources tags each permission with the scope that granted it.
	// Display metadata only; presence in Permissions is what matters.
	Sources map[string]Scope
}

// Has reports whether the permission code is in the effective set.
func (s EffectivePermissionSet) Has(code string) bool {
	for _, p := range s.Permissions {
		if p == code {
			return true
		}
	}
	return false
}
