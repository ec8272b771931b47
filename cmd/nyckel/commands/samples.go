package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// NewSamplesCommand creates the samples command group.
func NewSamplesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "samples",
		Aliases: []string{"sample"},
		Short:   "Manage samples",
	}

	cmd.AddCommand(newSamplesCreateCommand())
	cmd.AddCommand(newSamplesListCommand())
	cmd.AddCommand(newSamplesGetCommand())
	cmd.AddCommand(newSamplesAnnotateCommand())
	cmd.AddCommand(newSamplesDeleteCommand())

	return cmd
}

func newSamplesCreateCommand() *cobra.Command {
	var (
		label    string
		asImages bool
	)

	cmd := &cobra.Command{
		Use:   "create FUNCTION_ID DATA...",
		Short: "Upload text or image samples",
		Long: `Upload samples to a function. Each DATA argument is the sample text, or
with --image an image URL, local file path, or data URI.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			samples := make([]nyckel.Sample, len(args)-1)

			for i, data := range args[1:] {
				switch {
				case asImages && label != "":
					samples[i] = nyckel.NewAnnotatedImageSample(data, label)
				case asImages:
					samples[i] = nyckel.NewImageSample(data)
				case label != "":
					samples[i] = nyckel.NewAnnotatedTextSample(data, label)
				default:
					samples[i] = nyckel.NewTextSample(data)
				}
			}

			ids, err := client.Samples().Create(cmd.Context(), args[0], samples)
			if err != nil {
				return err
			}

			fmt.Printf("Uploaded %d of %d samples.\n", len(ids), len(samples))

			for _, id := range ids {
				fmt.Println(id)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "annotate every sample with this label")
	cmd.Flags().BoolVar(&asImages, "image", false, "treat DATA arguments as image references")

	return cmd
}

func newSamplesListCommand() *cobra.Command {
	var (
		labelID     string
		newestFirst bool
	)

	cmd := &cobra.Command{
		Use:   "list FUNCTION_ID",
		Short: "List samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			filter := &nyckel.SampleFilter{
				AnnotationLabelID: labelID,
				SortByNewestFirst: newestFirst,
			}

			samples, err := client.Samples().List(cmd.Context(), args[0], filter)
			if err != nil {
				return err
			}

			done, err := renderStructured(samples)
			if done {
				return err
			}

			rows := make([][]string, len(samples))
			for i, sample := range samples {
				rows[i] = []string{sample.ID, sample.ExternalID, sampleAnnotationText(sample), samplePredictionText(sample)}
			}

			return renderTable([]string{"ID", "External ID", "Annotation", "Prediction"}, rows)
		},
	}

	cmd.Flags().StringVar(&labelID, "label-id", "", "only samples annotated with this label")
	cmd.Flags().BoolVar(&newestFirst, "newest-first", false, "sort by creation time, newest first")

	return cmd
}

func newSamplesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get FUNCTION_ID SAMPLE_ID",
		Short: "Show a sample",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			sample, err := client.Samples().Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			done, err := renderStructured(sample)
			if done {
				return err
			}

			return renderTable(
				[]string{"Property", "Value"},
				[][]string{
					{"ID", sample.ID},
					{"External ID", sample.ExternalID},
					{"Data", fmt.Sprintf("%v", sample.Data)},
					{"Annotation", sampleAnnotationText(*sample)},
					{"Prediction", samplePredictionText(*sample)},
				},
			)
		},
	}
}

func newSamplesAnnotateCommand() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "annotate FUNCTION_ID SAMPLE_ID [LABEL_NAME]",
		Short: "Set or clear a sample's ground truth",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			var annotation *nyckel.Annotation

			switch {
			case clear:
			case len(args) == 3:
				annotation = &nyckel.Annotation{LabelName: args[2]}
			default:
				return fmt.Errorf("either a LABEL_NAME argument or --clear is required")
			}

			err = client.Samples().UpdateAnnotation(cmd.Context(), args[0], args[1], annotation)
			if err != nil {
				return err
			}

			if annotation == nil {
				fmt.Printf("Annotation of sample %s cleared.\n", args[1])
			} else {
				fmt.Printf("Sample %s annotated as %q.\n", args[1], annotation.LabelName)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "remove the annotation")

	return cmd
}

func newSamplesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete FUNCTION_ID SAMPLE_ID...",
		Short: "Delete samples",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			err = client.Samples().Delete(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}

			fmt.Printf("Deleted %d samples.\n", len(args)-1)

			return nil
		},
	}
}

func sampleAnnotationText(sample nyckel.Sample) string {
	if sample.Annotation != nil {
		return sample.Annotation.LabelName
	}

	present := make([]string, 0, len(sample.TagAnnotations))

	for _, tag := range sample.TagAnnotations {
		if tag.Present {
			present = append(present, tag.LabelName)
		}
	}

	if len(present) > 0 {
		return fmt.Sprintf("%v", present)
	}

	return ""
}

func samplePredictionText(sample nyckel.Sample) string {
	if sample.Prediction == nil {
		return ""
	}

	return fmt.Sprintf("%s (%.2f)", sample.Prediction.LabelName, sample.Prediction.Confidence)
}
