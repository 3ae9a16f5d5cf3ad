// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomtom215/bookshelf/internal/accounts"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/validation"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := db.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	}
}

// newUserAddCommand creates accounts from the command line, typically the
// first administrator, since the web form requires a signed-in user.
func newUserAddCommand() *cobra.Command {
	var form validation.UserCreateForm

	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if form.Password == "" {
				if form.Password, err = readPassword(cmd); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			conn, err := db.Acquire(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			id, err := accounts.NewService(config.DefaultPasswordPolicy()).Create(ctx, conn, form)
			var fe validation.FormErrors
			if errors.As(err, &fe) {
				return fmt.Errorf("invalid user: %s", strings.Join(formMessages(fe), " "))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %q with id %d\n", form.Login, id)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.Login, "login", "", "login (Latin letters and digits, at least 5)")
	f.StringVar(&form.Password, "password", "", "password; prompted for when omitted")
	f.StringVar(&form.FirstName, "first-name", "", "first name")
	f.StringVar(&form.LastName, "last-name", "", "last name")
	f.StringVar(&form.MiddleName, "middle-name", "", "middle name")
	f.Int64Var(&form.RoleID, "role", 3, "role id (1 administrator, 2 moderator, 3 user by default)")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

// readPassword reads a password without echo.
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

func formMessages(fe validation.FormErrors) []string {
	var out []string
	for _, msgs := range fe {
		out = append(out, msgs...)
	}
	return out
}
