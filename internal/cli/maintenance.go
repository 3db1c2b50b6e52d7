package cli

import (
	"context"

	"github.com/robinjoseph08/golib/logger"
	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entrypoint"
	"github.com/mrlokans/library/internal/tasks"
)

// withApp builds the app with background workers off, runs fn and closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *entrypoint.App) error) error {
	cfg := config.NewConfig()
	cfg.Tasks.Enabled = false

	app, err := entrypoint.NewApp(cfg)
	if err != nil {
		return err
	}
	ctx := logger.New().WithContext(cmd.Context())
	defer func() { _ = app.Close(context.Background()) }()

	return fn(ctx, app)
}

func newSendRemindersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send-reminders",
		Short: "Send overdue and due-soon reminder emails once, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				report, err := app.Reminders.RunOnce(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("overdue: %d, due soon: %d, sent: %d, failed: %d\n",
					report.Overdue, report.DueSoon, report.Dispatched, report.Failed)
				if report.Skipped {
					cmd.Println("skipped: mail is not configured")
				}
				return report.Err
			})
		},
	}
}

func newCleanupAuditCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup-audit",
		Short: "Delete audit events older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if days == 0 {
					days = app.Config.Audit.RetentionDays
				}
				deleted, err := tasks.CleanupAuditEvents(ctx, app.Audit, days)
				if err != nil {
					return err
				}
				cmd.Printf("deleted %d audit event(s)\n", deleted)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default AUDIT_RETENTION_DAYS)")
	return cmd
}
