// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package authz

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned for an action outside the closed Action set.
// It signals a programming error and must surface as an internal error.
var ErrUnknownAction = errors.New("unknown authorization action")

// Action is a permission-checked operation.
type Action string

const (
	ActionCreate      Action = "create"
	ActionRead        Action = "read"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionAssignRoles Action = "assign_roles"
)

// Actions lists every valid action.
var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssignRoles}

// Valid reports whether a is one of Actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssignRoles:
		return true
	default:
		return false
	}
}

// ParseAction converts a name into an Action.
func ParseAction(name string) (Action, error) {
	a := Action(name)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return a, nil
}

// Resource is the kind of entity an action targets.
type Resource string

const (
	ResourceBook Resource = "book"
	ResourceUser Resource = "user"
)

// RoleKind classifies a role id.
type RoleKind string

const (
	KindAnonymous RoleKind = "anonymous"
	KindRegular   RoleKind = "regular"
	KindModerator RoleKind = "moderator"
	KindAdmin     RoleKind = "admin"
)

// Roles maps configured role ids to kinds. Any other id is regular.
type Roles struct {
	AdminID     int64
	ModeratorID int64
}

// Kind returns the kind of a role id.
func (r Roles) Kind(roleID int64) RoleKind {
	switch roleID {
	case r.AdminID:
		return KindAdmin
	case r.ModeratorID:
		return KindModerator
	default:
		return KindRegular
	}
}
