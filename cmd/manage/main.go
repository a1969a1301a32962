package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "manage",
		Short:         "Administrative tasks for the accounts API",
		Long:          "Database readiness, migrations and account administration. Reads the same environment as the API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newWaitForDBCmd(),
		newMigrateCmd(),
		newCreateSuperuserCmd(),
		newListUsersCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}
