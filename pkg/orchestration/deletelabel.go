package orchestration

import (
	"context"
	"fmt"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// DeleteLabelResult describes a completed label purge.
type DeleteLabelResult struct {
	LabelID            string
	LabelName          string
	DeletedSampleCount int
}

// DeleteLabelAndSamples removes a label by name together with every sample
// annotated with it. Samples go first, so an interrupted run leaves the
// label (and a retry path) in place rather than orphaned samples.
func DeleteLabelAndSamples(ctx context.Context, client nyckel.Client, functionID, labelName string) (*DeleteLabelResult, error) {
	fn, err := client.Functions().Get(ctx, functionID)
	if err != nil {
		return nil, err
	}

	if fn.Output != nyckel.OutputClassification {
		return nil, fmt.Errorf("%w: can only purge labels from classification functions, %s is %s",
			nyckel.ErrWrongOutputModality, fn.ID, fn.Output)
	}

	labels, err := client.Labels().List(ctx, functionID)
	if err != nil {
		return nil, err
	}

	var labelID string

	for _, label := range labels {
		if label.Name == labelName {
			labelID = label.ID

			break
		}
	}

	if labelID == "" {
		return nil, fmt.Errorf("label %q not found in function %s", labelName, functionID)
	}

	samples, err := client.Samples().List(ctx, functionID, &nyckel.SampleFilter{AnnotationLabelID: labelID})
	if err != nil {
		return nil, err
	}

	sampleIDs := make([]string, len(samples))
	for i, sample := range samples {
		sampleIDs[i] = sample.ID
	}

	err = client.Samples().Delete(ctx, functionID, sampleIDs)
	if err != nil {
		return nil, err
	}

	err = client.Labels().Delete(ctx, functionID, []string{labelID})
	if err != nil {
		return nil, err
	}

	return &DeleteLabelResult{
		LabelID:            labelID,
		LabelName:          labelName,
		DeletedSampleCount: len(sampleIDs),
	}, nil
}
