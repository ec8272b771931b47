package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nyckel/nyckel-go/internal/constants"
	inthttp "github.com/nyckel/nyckel-go/internal/http"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

type invokeClient struct {
	client *Client
}

// notTrainedMarker is the server's response body marker while no model has
// finished training yet. Invokes seeing it are waited out and retried.
const notTrainedMarker = "No model available to invoke function"

// Classify invokes a classification function for each input. While the model
// is still training the whole batch is retried on an interval; exhausting
// the attempts yields ErrModelNotTrained.
func (i *invokeClient) Classify(ctx context.Context, functionID string, data []nyckel.SampleData) ([]nyckel.InvokeResult, error) {
	results, err := i.invoke(ctx, functionID, data, nyckel.OutputClassification)
	if err != nil {
		return nil, err
	}

	out := make([]nyckel.InvokeResult, len(results))

	for idx, result := range results {
		if result.Err != nil {
			out[idx] = nyckel.InvokeResult{Err: result.Err}

			continue
		}

		var prediction nyckel.Prediction

		err := json.Unmarshal(result.Response.Body, &prediction)
		if err != nil {
			out[idx] = nyckel.InvokeResult{Err: fmt.Errorf("%w: prediction: %v", nyckel.ErrDecodeResponse, err)}

			continue
		}

		out[idx] = nyckel.InvokeResult{Prediction: prediction}
	}

	return out, nil
}

// Tag invokes a tagging function for each input. Each result carries one
// prediction per tag.
func (i *invokeClient) Tag(ctx context.Context, functionID string, data []nyckel.SampleData) ([]nyckel.TagsResult, error) {
	results, err := i.invoke(ctx, functionID, data, nyckel.OutputTags)
	if err != nil {
		return nil, err
	}

	out := make([]nyckel.TagsResult, len(results))

	for idx, result := range results {
		if result.Err != nil {
			out[idx] = nyckel.TagsResult{Err: result.Err}

			continue
		}

		var predictions []nyckel.Prediction

		err := json.Unmarshal(result.Response.Body, &predictions)
		if err != nil {
			out[idx] = nyckel.TagsResult{Err: fmt.Errorf("%w: tag predictions: %v", nyckel.ErrDecodeResponse, err)}

			continue
		}

		out[idx] = nyckel.TagsResult{Predictions: predictions}
	}

	return out, nil
}

func (i *invokeClient) invoke(ctx context.Context, functionID string, data []nyckel.SampleData, want nyckel.OutputModality) ([]inthttp.PostResult, error) {
	if len(data) == 0 {
		return nil, nil
	}

	fn, err := i.client.lookupFunction(ctx, functionID)
	if err != nil {
		return nil, err
	}

	if fn.Output != want {
		return nil, fmt.Errorf("%w: function %s is %s, not %s", nyckel.ErrWrongOutputModality, fn.ID, fn.Output, want)
	}

	bodies, transformer, err := i.buildInvokeBatch(ctx, fn, data)
	if err != nil {
		return nil, err
	}

	path := functionPath(sampleAPIVersion(fn.Output), functionID, "invoke")
	poster := inthttp.NewPoster(i.client.http, transformer, i.client.concurrency)

	for attempt := 0; attempt < constants.InvokeMaxAttempts; attempt++ {
		results := poster.Post(ctx, path, bodies)

		if !batchNotTrained(results) {
			return results, nil
		}

		i.client.logInfo("model not trained yet, retrying invoke", map[string]interface{}{
			"function": fn.ID,
			"attempt":  attempt + 1,
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(constants.InvokeRetryInterval):
		}
	}

	return nil, fmt.Errorf("%w: function %s after %d attempts",
		nyckel.ErrModelNotTrained, fn.ID, constants.InvokeMaxAttempts)
}

// buildInvokeBatch prepares wire bodies and the lazy image transform for the
// function's input modality. Tabular rows are rekeyed from field names to
// field IDs first.
func (i *invokeClient) buildInvokeBatch(ctx context.Context, fn *nyckel.Function, data []nyckel.SampleData) ([]interface{}, inthttp.BodyTransformer, error) {
	samples := make([]nyckel.Sample, len(data))
	for idx, d := range data {
		samples[idx] = nyckel.Sample{Data: d}
	}

	err := validateSampleModalities(fn, samples)
	if err != nil {
		return nil, nil, err
	}

	var imageFieldKey string

	if fn.Input == nyckel.InputTabular {
		fields, err := i.client.lookupFields(ctx, fn.ID)
		if err != nil {
			return nil, nil, err
		}

		samples, err = rekeyTabularSamples(samples, fields)
		if err != nil {
			return nil, nil, err
		}

		imageFieldKey = imageFieldID(fields)
	}

	bodies := make([]interface{}, len(samples))
	for idx, sample := range samples {
		bodies[idx] = sampleCreateBody{Data: sampleDataValue(sample.Data)}
	}

	return bodies, i.client.samples.bodyTransformer(fn.Input, imageFieldKey), nil
}

// batchNotTrained reports whether the batch failed because the model is not
// trained yet. The server answers that uniformly, so checking the first
// failure is enough.
func batchNotTrained(results []inthttp.PostResult) bool {
	for _, result := range results {
		if result.Err == nil {
			return false
		}

		apiErr := &nyckel.APIError{}
		if errors.As(result.Err, &apiErr) {
			return strings.Contains(apiErr.Body, notTrainedMarker)
		}

		return false
	}

	return false
}
