// Package cli implements quizadmin, the operator tool for bootstrapping
// admins, changing roles and running migrations directly against the
// database.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/quizdeck/internal/server/config"
	"github.com/dmitrijs2005/quizdeck/internal/server/models"
)

// Admin is the part of services.UserService the commands drive.
type Admin interface {
	CreateUser(ctx context.Context, email, password string, role models.Role) (*models.User, error)
	ResolveSubject(ctx context.Context, subject string) (*models.User, error)
	SetRole(ctx context.Context, userID string, role models.Role) (*models.User, error)
	SetActive(ctx context.Context, userID string, active bool) (*models.User, error)
}

// Backend opens what a command needs. Open returns the admin service and a
// closer for whatever it opened.
type Backend struct {
	Open    func(ctx context.Context, cfg *config.Config) (Admin, io.Closer, error)
	Migrate func(ctx context.Context, cfg *config.Config) error
}

type rootOptions struct {
	configPath string
	dsn        string
	cfg        *config.Config
}

// NewRootCommand builds the quizadmin command tree on top of b.
func NewRootCommand(b Backend) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "quizadmin",
		Short:         "Administer quizdeck accounts and schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var args []string
			if opts.configPath != "" {
				args = append(args, "-c", opts.configPath)
			}
			if opts.dsn != "" {
				args = append(args, "-d", opts.dsn)
			}
			cfg, err := config.Load(args)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to JSON config file")
	root.PersistentFlags().StringVarP(&opts.dsn, "dsn", "d", "", "PostgreSQL DSN (env: DATABASE_DSN)")

	root.AddCommand(newUserCommand(b, opts))
	root.AddCommand(newMigrateCommand(b, opts))

	return root
}

func newMigrateCommand(b Backend, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := b.Migrate(cmd.Context(), opts.cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
