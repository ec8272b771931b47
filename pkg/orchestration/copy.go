// Package orchestration implements multi-step workflows composed from the
// basic SDK operations: duplicating a function, and removing a label along
// with every sample annotated with it.
package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// CopyResult describes a completed function copy.
type CopyResult struct {
	Source      *nyckel.Function
	Destination *nyckel.Function
	LabelCount  int
	SampleCount int
}

// CopyFunction duplicates a classification function: labels first, then all
// samples with their annotations. The copy gets a fresh name carrying a
// timestamp. Samples without an external ID are assigned one, so re-running
// a partially failed copy converges instead of duplicating samples.
func CopyFunction(ctx context.Context, client nyckel.Client, functionID string) (*CopyResult, error) {
	source, err := client.Functions().Get(ctx, functionID)
	if err != nil {
		return nil, err
	}

	if source.Output != nyckel.OutputClassification {
		return nil, fmt.Errorf("%w: can only copy classification functions, %s is %s",
			nyckel.ErrWrongOutputModality, source.ID, source.Output)
	}

	labels, err := client.Labels().List(ctx, functionID)
	if err != nil {
		return nil, err
	}

	samples, err := client.Samples().List(ctx, functionID, nil)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s [COPIED AT %s]", source.Name, time.Now().Format("2006-01-02 15:04:05"))

	destination, err := client.Functions().Create(ctx, name, source.Input, source.Output)
	if err != nil {
		return nil, err
	}

	if len(labels) > 0 {
		_, err = client.Labels().Create(ctx, destination.ID, labels)
		if err != nil {
			return nil, fmt.Errorf("copying labels to %s: %w", destination.ID, err)
		}
	}

	if source.Input == nyckel.InputTabular {
		err = copyFields(ctx, client, functionID, destination.ID)
		if err != nil {
			return nil, err
		}
	}

	for i := range samples {
		samples[i].ID = ""
		samples[i].Prediction = nil

		if samples[i].ExternalID == "" {
			samples[i].ExternalID = uuid.NewString()
		}
	}

	if len(samples) > 0 {
		_, err = client.Samples().Create(ctx, destination.ID, samples)
		if err != nil {
			return nil, fmt.Errorf("copying samples to %s: %w", destination.ID, err)
		}
	}

	return &CopyResult{
		Source:      source,
		Destination: destination,
		LabelCount:  len(labels),
		SampleCount: len(samples),
	}, nil
}

func copyFields(ctx context.Context, client nyckel.Client, fromID, toID string) error {
	fields, err := client.Fields().List(ctx, fromID)
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		return nil
	}

	for i := range fields {
		fields[i].ID = ""
	}

	_, err = client.Fields().Create(ctx, toID, fields)
	if err != nil {
		return fmt.Errorf("copying fields to %s: %w", toID, err)
	}

	return nil
}
