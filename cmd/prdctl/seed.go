package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"prdtool/internal/app"
	"prdtool/internal/auth"
	"prdtool/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var (
		ownerID  string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "seed <dir>",
		Short: "Create PRDs from the markdown files in a directory",
		Long: `Creates one PRD per *.md file. Optional YAML frontmatter sets the title
and status. The owner is either --owner, or the Supabase user with --email,
created through the admin API if it does not exist yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if ownerID == "" {
				if email == "" {
					return errors.New("either --owner or --email is required")
				}
				if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
					return errors.New("--email needs SUPABASE_URL and SUPABASE_KEY")
				}
				id, err := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey).EnsureUser(ctx, email, password)
				if err != nil {
					return fmt.Errorf("ensure seed user: %w", err)
				}
				ownerID = id
			}
			if _, err := uuid.Parse(ownerID); err != nil {
				return fmt.Errorf("owner must be a UUID: %w", err)
			}

			backends, err := app.OpenBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			application, err := app.New(cfg, backends, logger)
			if err != nil {
				_ = backends.Close()
				return err
			}
			defer application.Close()

			result, err := seed.NewSeeder(application.Documents, logger).SeedDirectory(ctx, args[0], ownerID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, doc := range result.Created {
				fmt.Fprintf(out, "created %s  %s\n", doc.ID, doc.Title)
			}
			for path, err := range result.Failed {
				fmt.Fprintf(out, "skipped %s: %v\n", path, err)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d file(s) could not be seeded", len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner user ID")
	cmd.Flags().StringVar(&email, "email", "", "seed user email (resolved via the Supabase admin API)")
	cmd.Flags().StringVar(&password, "password", "", "password for a newly created seed user")
	return cmd
}
