package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyckel/nyckel-go/pkg/orchestration"
)

// NewDeleteLabelCommand creates the delete-label command.
func NewDeleteLabelCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete-label FUNCTION_ID LABEL_NAME",
		Short: "Delete a label and every sample annotated with it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := confirm(fmt.Sprintf("Delete label %q and all samples annotated with it", args[1]))
				if err != nil {
					return err
				}

				if !ok {
					fmt.Println("Aborting.")

					return nil
				}
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			result, err := orchestration.DeleteLabelAndSamples(cmd.Context(), client, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("Deleted label %q and %d samples.\n", result.LabelName, result.DeletedSampleCount)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
