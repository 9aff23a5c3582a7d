package authz

import "fmt"

// UnknownRoleError reports a role code absent from the catalog at the
// requested scope. It signals a stale client or a corrupted assignment
// record, so callers surface it instead of retrying.
type UnknownRoleError struct {
	Scope Scope
	Code  string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("authz: unknown %s role %q", e.Scope, e.Code)
}
