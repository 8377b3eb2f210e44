package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/socialsuit/Backend-Socialsuit/internal/config"
	"github.com/socialsuit/Backend-Socialsuit/internal/database"
)

// NewAuditCmd creates the audit log inspection command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the security audit log",
	}
	cmd.AddCommand(newAuditListCmd())
	cmd.AddCommand(newAuditPurgeCmd())
	return cmd
}

func newAuditListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent security events",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := auditRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			events, err := repo.RecentEvents(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("list security events: %w", err)
			}
			if len(events) == 0 {
				fmt.Println("No security events recorded.")
				return nil
			}
			for _, e := range events {
				fmt.Printf("%s  %-20s %-22s %s %s (%s)\n",
					e.OccurredAt.Format(time.RFC3339), e.Kind, e.Identity, e.Method, e.Path, e.Reason)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of events to list")
	return cmd
}

func newAuditPurgeCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete security events older than a retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := auditRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := repo.PurgeBefore(context.Background(), time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("purge security events: %w", err)
			}
			fmt.Printf("Deleted %d events.\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Retention window; events older than this are deleted")
	return cmd
}

func auditRepo() (*database.AuditLogRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not configured")
	}
	db, err := database.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return database.NewAuditLogRepository(db), func() { _ = db.Close() }, nil
}
