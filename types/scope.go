package types

// Scope is the request-scoped authorization context derived from the caller's
// token. Every query-returning operation filters rows through it instead of
// branching on roles inside handlers.
type Scope struct {
	// UserID is the authenticated caller.
	UserID int

	// Role is the caller's role.
	Role string

	// EntityID is the caller's entity, nil for super_admin.
	EntityID *int
}

// Unrestricted reports whether the scope sees every entity.
func (s Scope) Unrestricted() bool {
	return s.Role == RoleSuperAdmin
}

// CanActForOthers reports whether the caller may perform or query check-in/out
// state on behalf of another driver.
func (s Scope) CanActForOthers() bool {
	switch s.Role {
	case RoleSupervisor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// SeesEntity reports whether rows belonging to entityID are visible.
func (s Scope) SeesEntity(entityID int) bool {
	if s.Unrestricted() {
		return true
	}
	return s.EntityID != nil && *s.EntityID == entityID
}
