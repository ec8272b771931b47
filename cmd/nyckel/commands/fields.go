package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// NewFieldsCommand creates the fields command group.
func NewFieldsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fields",
		Aliases: []string{"field"},
		Short:   "Manage tabular function fields",
	}

	cmd.AddCommand(newFieldsCreateCommand())
	cmd.AddCommand(newFieldsListCommand())
	cmd.AddCommand(newFieldsDeleteCommand())

	return cmd
}

func newFieldsCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create FUNCTION_ID NAME:TYPE...",
		Short: "Create fields (TYPE is Text, Number, or Image)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make([]nyckel.Field, len(args)-1)

			for i, spec := range args[1:] {
				name, fieldType, found := strings.Cut(spec, ":")
				if !found {
					return fmt.Errorf("invalid field spec %q, want NAME:TYPE", spec)
				}

				fields[i] = nyckel.Field{Name: name, Type: nyckel.FieldType(fieldType)}
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			ids, err := client.Fields().Create(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}

			for i, id := range ids {
				fmt.Printf("Created field %q with id %s\n", fields[i].Name, id)
			}

			return nil
		},
	}
}

func newFieldsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list FUNCTION_ID",
		Short: "List all fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			fields, err := client.Fields().List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			done, err := renderStructured(fields)
			if done {
				return err
			}

			rows := make([][]string, len(fields))
			for i, field := range fields {
				rows[i] = []string{field.ID, field.Name, string(field.Type)}
			}

			return renderTable([]string{"ID", "Name", "Type"}, rows)
		},
	}
}

func newFieldsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete FUNCTION_ID FIELD_ID...",
		Short: "Delete fields",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			err = client.Fields().Delete(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}

			fmt.Printf("Deleted %d fields.\n", len(args)-1)

			return nil
		},
	}
}
