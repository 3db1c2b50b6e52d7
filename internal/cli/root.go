// Package cli defines the command-line interface: the HTTP server plus the
// one-shot maintenance commands that share its wiring.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entrypoint"
)

// BuildInfo is set at build time via ldflags and printed by `version`.
type BuildInfo struct {
	Version string
	Commit  string
}

// NewRootCommand returns the root command. Without a subcommand it serves.
func NewRootCommand(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "College library backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(config.NewConfig(), info.Version)
		},
	}

	root.AddCommand(
		newServeCommand(info),
		newSendRemindersCommand(),
		newCleanupAuditCommand(),
		newVersionCommand(info),
	)
	return root
}

func newServeCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the reminder scheduler and the task workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(config.NewConfig(), info.Version)
		},
	}
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("library %s (commit %s)\n", info.Version, info.Commit)
		},
	}
}
