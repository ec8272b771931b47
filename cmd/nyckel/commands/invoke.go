package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand() *cobra.Command {
	var (
		asImages bool
		tags     bool
	)

	cmd := &cobra.Command{
		Use:   "invoke FUNCTION_ID DATA...",
		Short: "Invoke a trained function",
		Long: `Request predictions for one or more inputs. Each DATA argument is the
sample text, or with --image an image URL, local file path, or data URI.
Waits and retries while the model is still training.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			data := make([]nyckel.SampleData, len(args)-1)

			for i, arg := range args[1:] {
				if asImages {
					data[i] = nyckel.ImageData(arg)
				} else {
					data[i] = nyckel.TextData(arg)
				}
			}

			if tags {
				return invokeTags(cmd, client, args[0], args[1:], data)
			}

			return invokeClassify(cmd, client, args[0], args[1:], data)
		},
	}

	cmd.Flags().BoolVar(&asImages, "image", false, "treat DATA arguments as image references")
	cmd.Flags().BoolVar(&tags, "tags", false, "invoke as a tagging function")

	return cmd
}

func invokeClassify(cmd *cobra.Command, client nyckel.Client, functionID string, inputs []string, data []nyckel.SampleData) error {
	results, err := client.Invoke().Classify(cmd.Context(), functionID, data)
	if err != nil {
		return err
	}

	done, err := renderStructured(results)
	if done {
		return err
	}

	rows := make([][]string, len(results))

	for i, result := range results {
		if result.Err != nil {
			rows[i] = []string{inputs[i], "", result.Err.Error()}

			continue
		}

		rows[i] = []string{inputs[i], result.Prediction.LabelName, fmt.Sprintf("%.2f", result.Prediction.Confidence)}
	}

	return renderTable([]string{"Input", "Label", "Confidence"}, rows)
}

func invokeTags(cmd *cobra.Command, client nyckel.Client, functionID string, inputs []string, data []nyckel.SampleData) error {
	results, err := client.Invoke().Tag(cmd.Context(), functionID, data)
	if err != nil {
		return err
	}

	done, err := renderStructured(results)
	if done {
		return err
	}

	rows := make([][]string, len(results))

	for i, result := range results {
		if result.Err != nil {
			rows[i] = []string{inputs[i], result.Err.Error()}

			continue
		}

		tags := make([]string, len(result.Predictions))
		for j, prediction := range result.Predictions {
			tags[j] = fmt.Sprintf("%s (%.2f)", prediction.LabelName, prediction.Confidence)
		}

		rows[i] = []string{inputs[i], strings.Join(tags, ", ")}
	}

	return renderTable([]string{"Input", "Tags"}, rows)
}
