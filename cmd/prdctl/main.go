// Command prdctl is the operator CLI: schema migrations, seeding and a
// terminal chat client for a PRD.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"prdtool/internal/config"
)

var (
	cfg     *config.Config
	logger  *slog.Logger
	verbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prdctl",
		Short:         "Operate the PRD tool backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newMigrateCmd(), newSeedCmd(), newChatCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
