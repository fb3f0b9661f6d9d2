package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/work-hours/work-hours-sub001/internal/config"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/jobs"
	"github.com/work-hours/work-hours-sub001/internal/logger"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "workhours-admin",
	Short:         "Maintenance commands for the Work Hours API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant the super admin role to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *database.DB) error {
			user, err := services.NewUserService(db).SetGlobalRole(ctx, args[0], models.GlobalRoleSuperAdmin)
			if err != nil {
				return fmt.Errorf("promote %s: %w", args[0], err)
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("Promoted %s to super admin", user.Email)))
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *database.DB) error {
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Schema is up to date"))
			return nil
		})
	},
}

var cleanupTokensCmd = &cobra.Command{
	Use:   "cleanup-tokens",
	Short: "Delete expired refresh tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *database.DB) error {
			n, err := services.NewTokenService(db).CleanupExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("Removed %d expired refresh tokens", n)))
			return nil
		})
	},
}

var markOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Flag sent invoices whose due date has passed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *database.DB) error {
			loc, err := time.LoadLocation(cfg.Cron.TZ)
			if err != nil {
				return fmt.Errorf("invalid CRON_TZ %q: %w", cfg.Cron.TZ, err)
			}
			// No live hub here; owners see the notification on their next fetch.
			notifications := services.NewNotificationService(db, nil, logger.New(cfg))
			n, err := jobs.MarkOverdue(ctx, services.NewInvoiceService(db), notifications, time.Now().In(loc))
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("Marked %d invoices overdue", n)))
			return nil
		})
	},
}

var unpaidCmd = &cobra.Command{
	Use:   "unpaid <email>",
	Short: "Show unpaid hours and amounts per currency for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, _ := cmd.Flags().GetString("scope")
		if scope != services.ScopeMine && scope != services.ScopeTeam {
			return fmt.Errorf("scope must be %s or %s", services.ScopeMine, services.ScopeTeam)
		}
		return withDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *database.DB) error {
			user, err := services.NewUserService(db).GetByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("look up %s: %w", args[0], err)
			}
			totals, err := services.NewTimeLogService(db).Unpaid(ctx, user.ID, scope)
			if err != nil {
				return err
			}
			fmt.Print(formatUnpaid(user.Email, scope, totals))
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML file overriding environment settings")
	unpaidCmd.Flags().String("scope", services.ScopeMine, "mine or team")

	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(cleanupTokensCmd)
	rootCmd.AddCommand(markOverdueCmd)
	rootCmd.AddCommand(unpaidCmd)
}

func withDB(ctx context.Context, fn func(context.Context, *config.Config, *database.DB) error) error {
	cfg := config.LoadCLI()
	if configPath != "" {
		if err := cfg.ApplyFile(configPath); err != nil {
			return fmt.Errorf("read %s: %w", configPath, err)
		}
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	return fn(ctx, cfg, db)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
