// Package policy decides whether an actor may perform an action on a resource.
// It is a pure decision table with no I/O; services call it before touching storage.
package policy

import (
	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/google/uuid"
)

// Actor is the capability set of the caller of an operation.
type Actor struct {
	UserID        uuid.UUID
	Username      string
	Role          models.Role
	IsSuperuser   bool
	Authenticated bool
}

// Anonymous returns the actor for requests without credentials.
func Anonymous() Actor {
	return Actor{}
}

// FromUser builds an authenticated actor from a freshly loaded user row.
func FromUser(u *models.User) Actor {
	return Actor{
		UserID:        u.ID,
		Username:      u.Username,
		Role:          u.Role,
		IsSuperuser:   u.IsSuperuser,
		Authenticated: true,
	}
}

// IsAdmin treats superusers as administrators.
func (a Actor) IsAdmin() bool {
	return a.Authenticated && (a.Role == models.RoleAdmin || a.IsSuperuser)
}

func (a Actor) IsModerator() bool {
	return a.Authenticated && a.Role == models.RoleModerator
}

type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Safe reports whether the action only reads.
func (a Action) Safe() bool {
	return a == ActionList || a == ActionRetrieve
}

type Resource string

const (
	ResourceCategory Resource = "category"
	ResourceGenre    Resource = "genre"
	ResourceTitle    Resource = "title"
	ResourceReview   Resource = "review"
	ResourceComment  Resource = "comment"
	ResourceUser     Resource = "user"
	ResourceProfile  Resource = "profile"
)

type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
	DenyNotAllowed
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	case DenyNotAllowed:
		return "deny_not_allowed"
	}
	return "unknown"
}

// Decide evaluates the access table. owner is the author of the target object
// and is only consulted for review and comment mutations.
func Decide(actor Actor, action Action, resource Resource, owner *uuid.UUID) Decision {
	switch resource {
	case ResourceCategory, ResourceGenre, ResourceTitle:
		if action.Safe() {
			return Allow
		}
		return requireAdmin(actor)

	case ResourceReview, ResourceComment:
		if action.Safe() {
			return Allow
		}
		if !actor.Authenticated {
			return DenyUnauthenticated
		}
		if action == ActionCreate {
			return Allow
		}
		if actor.IsAdmin() || actor.IsModerator() {
			return Allow
		}
		if owner != nil && *owner == actor.UserID {
			return Allow
		}
		return DenyForbidden

	case ResourceUser:
		return requireAdmin(actor)

	case ResourceProfile:
		if action == ActionCreate || action == ActionDelete || action == ActionList {
			return DenyNotAllowed
		}
		if !actor.Authenticated {
			return DenyUnauthenticated
		}
		return Allow
	}

	return DenyForbidden
}

func requireAdmin(actor Actor) Decision {
	if !actor.Authenticated {
		return DenyUnauthenticated
	}
	if !actor.IsAdmin() {
		return DenyForbidden
	}
	return Allow
}

// Authorize runs Decide and converts a denial into an *apperror.AppError.
func Authorize(actor Actor, action Action, resource Resource, owner *uuid.UUID) error {
	switch Decide(actor, action, resource, owner) {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return apperror.Auth("authentication credentials were not provided")
	case DenyNotAllowed:
		return apperror.MethodNotAllowed(methodFor(action))
	default:
		return apperror.Permission("you do not have permission to perform this action")
	}
}

// RequireAuthenticated rejects anonymous actors. Services call it before loading
// an object whose ownership Decide needs, so anonymous callers get 401 before 404.
func RequireAuthenticated(actor Actor) error {
	if !actor.Authenticated {
		return apperror.Auth("authentication credentials were not provided")
	}
	return nil
}

func methodFor(action Action) string {
	switch action {
	case ActionCreate:
		return "POST"
	case ActionUpdate:
		return "PATCH"
	case ActionDelete:
		return "DELETE"
	}
	return "GET"
}
