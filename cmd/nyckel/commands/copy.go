package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyckel/nyckel-go/pkg/orchestration"
)

// NewCopyFunctionCommand creates the copy-function command.
func NewCopyFunctionCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "copy-function FUNCTION_ID",
		Short: "Duplicate a classification function with its labels and samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if !force {
				fn, err := client.Functions().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				ok, err := confirm(fmt.Sprintf("Copy function %q (%s) with all labels and samples", fn.Name, fn.ID))
				if err != nil {
					return err
				}

				if !ok {
					fmt.Println("Aborting.")

					return nil
				}
			}

			result, err := orchestration.CopyFunction(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Copied %q to new function %s (%d labels, %d samples).\n",
				result.Source.Name, result.Destination.ID, result.LabelCount, result.SampleCount)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
