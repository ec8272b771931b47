package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nyckel/nyckel-go/internal/constants"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

type functionsClient struct {
	client *Client
}

type functionWire struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	Input  nyckel.InputModality  `json:"input"`
	Output nyckel.OutputModality `json:"output"`
}

func (w *functionWire) toFunction() *nyckel.Function {
	return &nyckel.Function{
		ID:     nyckel.StripIDPrefix(w.ID),
		Name:   w.Name,
		Input:  w.Input,
		Output: w.Output,
	}
}

// Create posts a new function, then blocks until a read succeeds. Freshly
// created functions can 404 for a moment while the write propagates.
func (f *functionsClient) Create(ctx context.Context, name string, input nyckel.InputModality, output nyckel.OutputModality) (*nyckel.Function, error) {
	body := map[string]interface{}{
		"name":   name,
		"input":  input,
		"output": output,
	}

	resp, err := f.client.http.Post(ctx, "/v1/functions", body)
	if err != nil {
		return nil, fmt.Errorf("creating function %q: %w", name, err)
	}

	var wire functionWire

	err = json.Unmarshal(resp.Body, &wire)
	if err != nil {
		return nil, fmt.Errorf("%w: function create: %v", nyckel.ErrDecodeResponse, err)
	}

	fn := wire.toFunction()

	err = f.waitUntilVisible(ctx, fn.ID)
	if err != nil {
		return nil, err
	}

	f.client.logInfo("created function", map[string]interface{}{
		"name": name,
		"id":   fn.ID,
	})

	return fn, nil
}

func (f *functionsClient) waitUntilVisible(ctx context.Context, functionID string) error {
	deadline := time.Now().Add(constants.AssetVisibilityTimeout)
	ticker := time.NewTicker(constants.FunctionVisibilityPollInterval)

	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, err := f.client.http.Get(ctx, functionPath(apiV1, functionID), nil)
			if err == nil {
				return nil
			}

			if !nyckel.IsNotFound(err) {
				return fmt.Errorf("waiting for function %s: %w", functionID, err)
			}

			if time.Now().After(deadline) {
				return fmt.Errorf("%w: function %s", nyckel.ErrAssetVisibilityWait, functionID)
			}
		}
	}
}

// Get fetches a function. 401 and 403 are translated into distinct errors so
// a caller can tell bad credentials from valid credentials that simply do
// not own the function.
func (f *functionsClient) Get(ctx context.Context, functionID string) (*nyckel.Function, error) {
	resp, err := f.client.http.Get(ctx, functionPath(apiV1, functionID), nil)
	if err != nil {
		// The sentinel and the API error are both wrapped, so errors.Is
		// works on the former and the status predicates on the latter.
		switch {
		case nyckel.IsUnauthorized(err):
			return nil, fmt.Errorf("%w: can't access function %s: %w", nyckel.ErrInvalidAccessToken, functionID, err)
		case nyckel.IsForbidden(err):
			return nil, fmt.Errorf("%w: function %s: %w", nyckel.ErrInsufficientAccess, functionID, err)
		case nyckel.IsNotFound(err):
			return nil, fmt.Errorf("%w: %s: %w", nyckel.ErrFunctionNotFound, functionID, err)
		default:
			return nil, fmt.Errorf("fetching function %s: %w", functionID, err)
		}
	}

	var wire functionWire

	err = json.Unmarshal(resp.Body, &wire)
	if err != nil {
		return nil, fmt.Errorf("%w: function %s: %v", nyckel.ErrDecodeResponse, functionID, err)
	}

	return wire.toFunction(), nil
}

// Delete removes the function and all its labels, fields, and samples.
func (f *functionsClient) Delete(ctx context.Context, functionID string) error {
	_, err := f.client.http.Delete(ctx, functionPath(apiV1, functionID))
	if err != nil {
		return fmt.Errorf("deleting function %s: %w", functionID, err)
	}

	f.client.invalidateLookups(ctx, functionID)

	return nil
}

// Metrics fetches the v0.9 metrics view.
func (f *functionsClient) Metrics(ctx context.Context, functionID string) (*nyckel.FunctionMetrics, error) {
	resp, err := f.client.http.Get(ctx, functionPath(apiV09, functionID, "metrics"), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching metrics for function %s: %w", functionID, err)
	}

	var metrics nyckel.FunctionMetrics

	err = json.Unmarshal(resp.Body, &metrics)
	if err != nil {
		return nil, fmt.Errorf("%w: metrics for function %s: %v", nyckel.ErrDecodeResponse, functionID, err)
	}

	return &metrics, nil
}

// functionMetaV09 is the part of the v0.9 function view used by IsTrained.
type functionMetaV09 struct {
	State string `json:"state"`
}

// IsTrained reports whether the function has a current model: not training,
// every sample has a prediction, and the model state has settled.
func (f *functionsClient) IsTrained(ctx context.Context, functionID string) (bool, error) {
	metrics, err := f.Metrics(ctx, functionID)
	if err != nil {
		return false, err
	}

	resp, err := f.client.http.Get(ctx, functionPath(apiV09, functionID), nil)
	if err != nil {
		return false, fmt.Errorf("fetching v0.9 meta for function %s: %w", functionID, err)
	}

	var meta functionMetaV09

	err = json.Unmarshal(resp.Body, &meta)
	if err != nil {
		return false, fmt.Errorf("%w: v0.9 meta for function %s: %v", nyckel.ErrDecodeResponse, functionID, err)
	}

	settled := meta.State == "Browsing" || meta.State == "Tuning"

	return !metrics.IsTraining && metrics.SampleCount == metrics.PredictionCount && settled, nil
}
