package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a timestamped copy of the store file",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			result := store.CreateBackup(cmd.Context())
			return printResult(result, result.Success)
		},
	}
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the store content with a previously taken backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			result := store.RestoreFromBackup(cmd.Context(), args[0])
			return printResult(result, result.Success)
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace the store content with an empty document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("reset discards all data; re-run with --force")
			}
			store, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			result := store.ResetDatabase(cmd.Context())
			return printResult(result, result.Success)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm discarding all data")
	return cmd
}
