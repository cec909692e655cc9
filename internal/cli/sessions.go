package cli

import (
	"github.com/spf13/cobra"
)

// NewSessionsCommand creates the sessions command group.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Remove sessions that expired before now",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			removed, err := store.CleanupExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(map[string]int{"removed": removed}, true)
		},
	})
	return cmd
}
