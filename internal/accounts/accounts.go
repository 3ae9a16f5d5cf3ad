// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package accounts

import (
	"context"
	"errors"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/validation"
)

// Password change and login errors.
var (
	ErrWrongPassword      = errors.New("incorrect old password")
	ErrSamePassword       = errors.New("new password equals the old one")
	ErrPasswordMismatch   = errors.New("new password and confirmation differ")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

// User-facing messages for the errors above.
const (
	MsgWrongPassword      = "Incorrect old password."
	MsgSamePassword       = "The old and new passwords must not match."
	MsgPasswordMismatch   = "The new password and its confirmation do not match."
	MsgInvalidCredentials = "Invalid login or password."
	MsgUnknownRole        = "Unknown role selected."
)

// KeyRole is the form error key for role problems.
const KeyRole = "role_id"

// Message returns the user-facing text for a workflow error, or "" if err
// is not one of this package's errors.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrWrongPassword):
		return MsgWrongPassword
	case errors.Is(err, ErrSamePassword):
		return MsgSamePassword
	case errors.Is(err, ErrPasswordMismatch):
		return MsgPasswordMismatch
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	}
	return ""
}

// Service runs the user management workflows.
type Service struct {
	policy config.PasswordPolicy
}

// NewService creates a Service enforcing policy on new passwords.
func NewService(policy config.PasswordPolicy) *Service {
	return &Service{policy: policy}
}

// PasswordPolicy returns the enforced policy.
func (s *Service) PasswordPolicy() config.PasswordPolicy {
	return s.policy
}

// List returns every user with its role name.
func (s *Service) List(ctx context.Context, conn *database.Conn) ([]models.User, error) {
	return conn.Queries().ListUsers(ctx)
}

// Roles returns every role.
func (s *Service) Roles(ctx context.Context, conn *database.Conn) ([]models.Role, error) {
	return conn.Queries().ListRoles(ctx)
}

// Get returns one user or database.ErrNotFound.
func (s *Service) Get(ctx context.Context, conn *database.Conn, id int64) (models.User, error) {
	return conn.Queries().GetUser(ctx, id)
}

// Create validates and inserts a user. A taken login or an unknown role is
// reported as FormErrors.
func (s *Service) Create(ctx context.Context, conn *database.Conn, form validation.UserCreateForm) (int64, error) {
	errs := validation.FormErrors{}
	errs.Merge(validation.ValidateStruct(&form))
	errs.Merge(validation.ValidatePassword(s.policy, form.Password))

	q := conn.Queries()
	if err := checkRole(ctx, q, form.RoleID, errs); err != nil {
		return 0, err
	}
	if errs.Any() {
		return 0, errs
	}

	id, err := q.InsertUser(ctx, models.User{
		Login:      form.Login,
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		MiddleName: form.MiddleName,
		RoleID:     form.RoleID,
	}, form.Password)
	if errors.Is(err, database.ErrDuplicate) {
		return 0, validation.FormErrors{validation.KeyDuplicateLogin: {validation.MsgDuplicateLogin}}
	}
	if err != nil {
		return 0, err
	}

	logging.Ctx(ctx).Info().Int64("user_id", id).Str("login", form.Login).Msg("User created")
	return id, nil
}

// Update changes the name fields of a user, and its role when
// canAssignRoles is set.
func (s *Service) Update(ctx context.Context, conn *database.Conn, id int64, form validation.UserEditForm, canAssignRoles bool) error {
	q := conn.Queries()

	u, err := q.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if canAssignRoles {
		errs := validation.FormErrors{}
		if err := checkRole(ctx, q, form.RoleID, errs); err != nil {
			return err
		}
		if errs.Any() {
			return errs
		}
		u.RoleID = form.RoleID
	}
	u.FirstName = form.FirstName
	u.LastName = form.LastName
	u.MiddleName = form.MiddleName

	if err := q.UpdateUser(ctx, u, canAssignRoles); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Int64("user_id", id).Bool("role_changed", canAssignRoles).Msg("User updated")
	return nil
}

// Delete removes a user and their reviews, or returns database.ErrNotFound.
func (s *Service) Delete(ctx context.Context, conn *database.Conn, id int64) error {
	if err := conn.Queries().DeleteUser(ctx, id); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int64("user_id", id).Msg("User deleted")
	return nil
}

// ChangePassword replaces the password of userID. Checks run in order: the
// old password, the policy (as FormErrors), difference from the old one,
// then the confirmation.
func (s *Service) ChangePassword(ctx context.Context, conn *database.Conn, userID int64, form validation.ChangePasswordForm) error {
	q := conn.Queries()

	ok, err := q.PasswordMatches(ctx, userID, form.OldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}

	if errs := validation.ValidatePassword(s.policy, form.NewPassword); errs != nil {
		return errs
	}
	if form.NewPassword == form.OldPassword {
		return ErrSamePassword
	}
	if form.NewPassword != form.ConfirmPassword {
		return ErrPasswordMismatch
	}

	if err := q.UpdatePassword(ctx, userID, form.NewPassword); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Int64("user_id", userID).Msg("Password changed")
	return nil
}

// Authenticate returns the user with these credentials or
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, conn *database.Conn, login, password string) (models.User, error) {
	u, err := conn.Queries().FindUserByCredentials(ctx, login, password)
	if errors.Is(err, database.ErrNotFound) {
		metrics.RecordLoginAttempt(metrics.ResultFailure)
		logging.Ctx(ctx).Info().Str("login", login).Msg("Login failed")
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	metrics.RecordLoginAttempt(metrics.ResultSuccess)
	return u, nil
}

// checkRole adds a role error to errs if roleID does not exist.
func checkRole(ctx context.Context, q *database.Queries, roleID int64, errs validation.FormErrors) error {
	exists, err := q.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !exists {
		errs.Add(KeyRole, MsgUnknownRole)
	}
	return nil
}
