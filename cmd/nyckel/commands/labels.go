package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// NewLabelsCommand creates the labels command group.
func NewLabelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "labels",
		Aliases: []string{"label"},
		Short:   "Manage labels",
	}

	cmd.AddCommand(newLabelsCreateCommand())
	cmd.AddCommand(newLabelsListCommand())
	cmd.AddCommand(newLabelsDeleteCommand())

	return cmd
}

func newLabelsCreateCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create FUNCTION_ID NAME...",
		Short: "Create one or more labels",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			labels := make([]nyckel.Label, len(args)-1)
			for i, name := range args[1:] {
				labels[i] = nyckel.Label{Name: name, Description: description}
			}

			ids, err := client.Labels().Create(cmd.Context(), args[0], labels)
			if err != nil {
				return err
			}

			for i, id := range ids {
				fmt.Printf("Created label %q with id %s\n", labels[i].Name, id)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "description applied to every created label")

	return cmd
}

func newLabelsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list FUNCTION_ID",
		Short: "List all labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			labels, err := client.Labels().List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			done, err := renderStructured(labels)
			if done {
				return err
			}

			rows := make([][]string, len(labels))
			for i, label := range labels {
				rows[i] = []string{label.ID, label.Name, label.Description}
			}

			return renderTable([]string{"ID", "Name", "Description"}, rows)
		},
	}
}

func newLabelsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete FUNCTION_ID LABEL_ID...",
		Short: "Delete labels",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			err = client.Labels().Delete(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}

			fmt.Printf("Deleted %d labels.\n", len(args)-1)

			return nil
		},
	}
}
