package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/quizdeck/internal/common"
	"github.com/dmitrijs2005/quizdeck/internal/server/models"
	"github.com/dmitrijs2005/quizdeck/internal/server/services"
)

func newUserCommand(b Backend, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUserCreateCommand(b, opts))
	cmd.AddCommand(newUserSetRoleCommand(b, opts))
	cmd.AddCommand(newUserSetActiveCommand(b, opts, "enable", true))
	cmd.AddCommand(newUserSetActiveCommand(b, opts, "disable", false))

	return cmd
}

func newUserCreateCommand(b Backend, opts *rootOptions) *cobra.Command {
	var (
		email         string
		role          string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with an explicit role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := models.Role(role)
			if !r.Valid() {
				return fmt.Errorf("invalid role %q (valid: %s)", role, roleNames())
			}

			var password string
			var err error
			if passwordStdin {
				password, err = readLine(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cmd.ErrOrStderr())
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			return withAdmin(cmd.Context(), b, opts, func(ctx context.Context, a Admin) error {
				u, err := a.CreateUser(ctx, email, password, r)
				if err != nil {
					if errors.Is(err, common.ErrAlreadyRegistered) {
						return fmt.Errorf("user %q already exists", email)
					}
					return err
				}
				printUser(cmd, u)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the user")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "role to assign")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin instead of prompting")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserSetRoleCommand(b Backend, opts *rootOptions) *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change the role of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := models.Role(role)
			if !r.Valid() {
				return fmt.Errorf("invalid role %q (valid: %s)", role, roleNames())
			}
			return withUser(cmd.Context(), b, opts, email, func(ctx context.Context, a Admin, u *models.User) error {
				u, err := a.SetRole(ctx, u.ID, r)
				if err != nil {
					return err
				}
				printUser(cmd, u)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the user")
	cmd.Flags().StringVar(&role, "role", "", "new role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newUserSetActiveCommand(b Backend, opts *rootOptions, name string, active bool) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   name,
		Short: strings.ToUpper(name[:1]) + name[1:] + " an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUser(cmd.Context(), b, opts, email, func(ctx context.Context, a Admin, u *models.User) error {
				u, err := a.SetActive(ctx, u.ID, active)
				if err != nil {
					return err
				}
				printUser(cmd, u)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address of the user")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func withAdmin(ctx context.Context, b Backend, opts *rootOptions, fn func(ctx context.Context, a Admin) error) error {
	a, closer, err := b.Open(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := fn(ctx, a); err != nil {
		if errors.Is(err, common.ErrLastAdmin) {
			return errors.New("refusing to remove the last active admin")
		}
		return err
	}
	return nil
}

func withUser(ctx context.Context, b Backend, opts *rootOptions, email string,
	fn func(ctx context.Context, a Admin, u *models.User) error) error {

	normalized, err := services.NormalizeEmail(email)
	if err != nil {
		return err
	}

	return withAdmin(ctx, b, opts, func(ctx context.Context, a Admin) error {
		u, err := a.ResolveSubject(ctx, normalized)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("user %q not found", normalized)
			}
			return err
		}
		return fn(ctx, a, u)
	})
}

func printUser(cmd *cobra.Command, u *models.User) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "id:        %s\n", u.ID)
	fmt.Fprintf(w, "email:     %s\n", u.Email)
	fmt.Fprintf(w, "role:      %s\n", u.Role)
	fmt.Fprintf(w, "is_active: %t\n", u.IsActive)
}

func roleNames() string {
	names := make([]string, 0, len(models.Roles))
	for _, r := range models.Roles {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
