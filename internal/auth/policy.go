package auth

import (
	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
)

// Actor is the acting user as seen by the policy: an id and a role, nothing else
type Actor struct {
	ID   uuid.UUID
	Role domain.UserRole
}

// Action is an operation on an existing record
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Actor) isManagerOrAdmin() bool {
	return a.Role == domain.RoleAdmin || a.Role == domain.RoleManager
}

// CanAccess reports whether actor may perform action on a record with the given ownership.
// ADMIN and MANAGER may do anything. REP may act on records it owns, is assigned to,
// or created. READ_ONLY may only read those records.
func CanAccess(actor Actor, record domain.Ownership, action Action) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleRep:
		return record.Includes(actor.ID)
	case domain.RoleReadOnly:
		return action == ActionRead && record.Includes(actor.ID)
	}
	return false
}

// CanCreate reports whether actor may create contacts, leads, deals and activities
func CanCreate(actor Actor) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleRep:
		return true
	}
	return false
}

// CanAssignOwner reports whether actor may make userID the owner or assignee of a record
func CanAssignOwner(actor Actor, userID uuid.UUID) bool {
	if actor.isManagerOrAdmin() {
		return true
	}
	return CanCreate(actor) && actor.ID == userID
}

// ScopeOwner returns the user id a listing must be restricted to, or nil when the
// actor sees every record
func ScopeOwner(actor Actor) *uuid.UUID {
	if actor.isManagerOrAdmin() {
		return nil
	}
	id := actor.ID
	return &id
}

func isSubordinate(role domain.UserRole) bool {
	return role == domain.RoleRep || role == domain.RoleReadOnly
}

// CanCreateUser reports whether actor may create an account with the given role
func CanCreateUser(actor Actor, role domain.UserRole) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return role.IsValid()
	case domain.RoleManager:
		return isSubordinate(role)
	}
	return false
}

// CanAssignRole reports whether actor may change target's role to newRole.
// Only ADMIN may grant ADMIN or touch an ADMIN or MANAGER account; MANAGER may
// move REP and READ_ONLY users between those two roles.
func CanAssignRole(actor Actor, target *domain.User, newRole domain.UserRole) bool {
	if !newRole.IsValid() {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return isSubordinate(target.Role) && isSubordinate(newRole)
	}
	return false
}

// CanManageUser reports whether actor may edit, deactivate or delete target
func CanManageUser(actor Actor, target *domain.User) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return isSubordinate(target.Role)
	}
	return false
}

// CanEditProfile reports whether actor may change target's name and email
func CanEditProfile(actor Actor, target *domain.User) bool {
	return actor.ID == target.ID || CanManageUser(actor, target)
}
