package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flatdoc/flatdoc/internal/docstore"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the store file",
		Long:  "Print the JSON schema of the persisted document, for validating\nhand-edited store files with external tooling.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := docstore.DocumentSchema()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
