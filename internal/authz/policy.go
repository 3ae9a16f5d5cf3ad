// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Config holds configuration for NewPolicy.
type Config struct {
	Roles Roles

	// PolicyPath replaces the embedded policy CSV when set and present.
	PolicyPath string
}

// Policy decides whether an actor may perform an action, optionally on a
// target subject. Decisions are evaluated by a Casbin SyncedEnforcer.
type Policy struct {
	roles    Roles
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy loads the model and policy rules.
func NewPolicy(cfg Config) (*Policy, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return &Policy{roles: cfg.Roles, enforcer: enforcer}, nil
}

// loadEmbeddedPolicy parses p and g lines of a policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch rule := parts[1:]; parts[0] {
		case "p":
			if len(rule) != 3 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case "g":
			if len(rule) != 2 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		default:
			return fmt.Errorf("unknown policy type in line %q", line)
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Roles returns the role id mapping.
func (p *Policy) Roles() Roles {
	return p.roles
}

// KindOf returns the role kind of an actor; nil is anonymous.
func (p *Policy) KindOf(actor *models.User) RoleKind {
	if actor == nil {
		return KindAnonymous
	}
	return p.roles.Kind(actor.RoleID)
}

// IsAdmin reports whether the actor has the administrator role.
func (p *Policy) IsAdmin(actor *models.User) bool {
	return p.KindOf(actor) == KindAdmin
}

// IsModerator reports whether the actor has the moderator role.
func (p *Policy) IsModerator(actor *models.User) bool {
	return p.KindOf(actor) == KindModerator
}

// Allowed applies the user-management rules:
//   - create, delete, assign_roles: administrators only
//   - read: always
//   - update: a subject is required, and the actor is an administrator or a
//     moderator acting on a non-administrator
func (p *Policy) Allowed(actor *models.User, action Action, subject *models.User) (bool, error) {
	return p.Can(actor, ResourceUser, action, subject)
}

// Can evaluates an action on a resource and records the decision. subject
// is the targeted user, if any.
func (p *Policy) Can(actor *models.User, resource Resource, action Action, subject *models.User) (bool, error) {
	allowed, err := p.Check(actor, resource, action, subject)
	if err != nil {
		return false, err
	}
	metrics.RecordAuthzDecision(string(resource), string(action), allowed)
	return allowed, nil
}

// Check is Can without the decision metric, for link visibility and other
// lookups that do not guard a request.
func (p *Policy) Check(actor *models.User, resource Resource, action Action, subject *models.User) (bool, error) {
	if !action.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	object := string(resource)
	if resource == ResourceUser && subject != nil {
		object += ":" + string(p.roles.Kind(subject.RoleID))
	}

	allowed, err := p.enforcer.Enforce(string(p.KindOf(actor)), object, string(action))
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}

// MustCan is Check for call sites with a constant action. It panics on an
// unknown action and denies when enforcement fails.
func (p *Policy) MustCan(actor *models.User, resource Resource, action Action) bool {
	allowed, err := p.Check(actor, resource, action, nil)
	if errors.Is(err, ErrUnknownAction) {
		panic("authz: " + err.Error())
	}
	if err != nil {
		logging.Error().Err(err).Str("resource", string(resource)).Str("action", string(action)).Msg("Authorization check failed")
		return false
	}
	return allowed
}
