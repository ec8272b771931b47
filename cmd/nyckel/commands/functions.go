package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// NewFunctionsCommand creates the functions command group.
func NewFunctionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "functions",
		Aliases: []string{"function", "fn"},
		Short:   "Manage functions",
	}

	cmd.AddCommand(newFunctionsCreateCommand())
	cmd.AddCommand(newFunctionsGetCommand())
	cmd.AddCommand(newFunctionsDeleteCommand())
	cmd.AddCommand(newFunctionsMetricsCommand())

	return cmd
}

func newFunctionsCreateCommand() *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			fn, err := client.Functions().Create(cmd.Context(), args[0],
				nyckel.InputModality(input), nyckel.OutputModality(output))
			if err != nil {
				return err
			}

			return renderFunction(fn)
		},
	}

	cmd.Flags().StringVar(&input, "input", string(nyckel.InputText), "input modality (Text, Image, Tabular)")
	cmd.Flags().StringVar(&output, "output", string(nyckel.OutputClassification), "output modality (Classification, Tags)")

	return cmd
}

func newFunctionsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get FUNCTION_ID",
		Short: "Show a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			fn, err := client.Functions().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return renderFunction(fn)
		},
	}
}

func newFunctionsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete FUNCTION_ID",
		Short: "Delete a function and all its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := confirm(fmt.Sprintf("Delete function %s and all its labels and samples", args[0]))
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

			err = client.Functions().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Function %s deleted.\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}

func newFunctionsMetricsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics FUNCTION_ID",
		Short: "Show function metrics and training status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			metrics, err := client.Functions().Metrics(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			trained, err := client.Functions().IsTrained(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			view := struct {
				*nyckel.FunctionMetrics `yaml:",inline"`
				Trained                 bool `json:"trained" yaml:"trained"`
			}{metrics, trained}

			done, err := renderStructured(view)
			if done {
				return err
			}

			rows := [][]string{
				{"Training", strconv.FormatBool(metrics.IsTraining)},
				{"Trained", strconv.FormatBool(trained)},
				{"Samples", strconv.Itoa(metrics.SampleCount)},
				{"Predictions", strconv.Itoa(metrics.PredictionCount)},
				{"Annotated labels", strconv.Itoa(len(metrics.AnnotatedLabelCounts))},
			}

			return renderTable([]string{"Property", "Value"}, rows)
		},
	}
}

func renderFunction(fn *nyckel.Function) error {
	done, err := renderStructured(fn)
	if done {
		return err
	}

	return renderTable(
		[]string{"Property", "Value"},
		[][]string{
			{"ID", fn.ID},
			{"Name", fn.Name},
			{"Input", string(fn.Input)},
			{"Output", string(fn.Output)},
		},
	)
}
