package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/accounts-api/cmd/manage/ui"
	"github.com/redmonkez12/accounts-api/internal/config"
	"github.com/redmonkez12/accounts-api/internal/database"
	"github.com/redmonkez12/accounts-api/internal/logging"
	"github.com/redmonkez12/accounts-api/internal/user"
)

var errMemoryBackend = errors.New("management commands need STORAGE_BACKEND=postgres")

func newWaitForDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait-for-db",
		Short: "Block until the database accepts connections",
		Long:  "Pings the database at DB_WAIT_INTERVAL until it answers. Never gives up on its own; interrupt to abort.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.WaitForDB(cmd.Context(), db, logger, cfg.Database.WaitInterval); err != nil {
				return fmt.Errorf("database wait aborted: %w", err)
			}

			ui.PrintSuccess("database available")
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db.DB); err != nil {
				return err
			}

			ui.PrintSuccess("migrations applied")
			return nil
		},
	}
}

func newCreateSuperuserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create an account with staff and superuser rights",
		Long:  "Creates a superuser. Missing values are prompted for unless --no-input is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := ui.SuperuserInput{}
			in.Email, _ = cmd.Flags().GetString("email")
			in.Name, _ = cmd.Flags().GetString("name")
			noInput, _ := cmd.Flags().GetBool("no-input")

			// Flags would leak the password into shell history
			in.Password = os.Getenv("SUPERUSER_PASSWORD")

			if !noInput && (in.Email == "" || in.Password == "") {
				ui.PrintTitle("Create superuser")
				var err error
				in, err = ui.RunSuperuserForm(in)
				if err != nil {
					return fmt.Errorf("form cancelled: %w", err)
				}
			}

			db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := createSuperuser(cmd.Context(), user.NewStore(user.NewPostgresRepository(db)), in)
			if err != nil {
				return err
			}

			ui.PrintSuccess(fmt.Sprintf("superuser %s created", u.Email))
			return nil
		},
	}

	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().Bool("no-input", false, "Never prompt; password comes from SUPERUSER_PASSWORD")

	return cmd
}

func newListUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "Print all accounts, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			return listUsers(cmd.Context(), user.NewStore(user.NewPostgresRepository(db)), cmd.OutOrStdout())
		},
	}
}

func createSuperuser(ctx context.Context, store *user.Store, in ui.SuperuserInput) (*user.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	u, err := store.CreateSuperuser(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%s: %w", in.Email, err)
		}
		return nil, fmt.Errorf("failed to create superuser: %w", err)
	}

	return u, nil
}

func listUsers(ctx context.Context, store *user.Store, w io.Writer) error {
	users, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	ui.PrintUsers(w, users)
	return nil
}

func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Backend != config.StorageBackendPostgres {
		return nil, nil, errMemoryBackend
	}

	return cfg, logging.NewLogger(cfg.Server.IsDevelopment()), nil
}

// connect reaches the database honouring DB_WAIT_ON_STARTUP. Migrations are
// left to the migrate command.
func connect(ctx context.Context) (*bun.DB, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dbCfg := cfg.Database
	dbCfg.AutoMigrate = false

	return database.Connect(ctx, dbCfg, logger)
}

func printError(err error) {
	for _, line := range errorLines(err) {
		ui.PrintError(line)
	}
}

// errorLines renders validation errors one field per line, sorted by field
func errorLines(err error) []string {
	var verr *user.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	lines := make([]string, 0, len(verr.Fields))
	for _, field := range slices.Sorted(maps.Keys(verr.Fields)) {
		lines = append(lines, fmt.Sprintf("%s: %s", field, strings.Join(verr.Fields[field], " ")))
	}
	return lines
}
