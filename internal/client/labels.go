package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nyckel/nyckel-go/internal/constants"
	inthttp "github.com/nyckel/nyckel-go/internal/http"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

type labelsClient struct {
	client *Client
}

type labelWire struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (w *labelWire) toLabel() nyckel.Label {
	return nyckel.Label{
		ID:          nyckel.StripIDPrefix(w.ID),
		Name:        w.Name,
		Description: w.Description,
		Metadata:    w.Metadata,
	}
}

// Create batch-posts the labels and blocks until every new name is visible
// to a subsequent list. Label creation is a setup step, so any individual
// failure fails the whole call.
func (l *labelsClient) Create(ctx context.Context, functionID string, labels []nyckel.Label) ([]string, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	bodies := make([]interface{}, len(labels))
	names := make([]string, len(labels))

	for i, label := range labels {
		name := strings.TrimSpace(label.Name)
		names[i] = name
		bodies[i] = labelWire{
			Name:        name,
			Description: label.Description,
			Metadata:    label.Metadata,
		}
	}

	poster := inthttp.NewPoster(l.client.http, nil, l.client.concurrency)
	results := poster.Post(ctx, functionPath(apiV1, functionID, "labels"), bodies)

	ids := make([]string, len(results))

	for i, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("creating label %q: %w", names[i], result.Err)
		}

		var wire labelWire

		err := json.Unmarshal(result.Response.Body, &wire)
		if err != nil {
			return nil, fmt.Errorf("%w: label create: %v", nyckel.ErrDecodeResponse, err)
		}

		ids[i] = nyckel.StripIDPrefix(wire.ID)
	}

	l.client.invalidateLabels(ctx, functionID)

	err := l.waitUntilVisible(ctx, functionID, names)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// waitUntilVisible polls the label list until every new name shows up.
// Writes are not immediately readable, and returning before they are would
// make an immediately following create_samples miss its labels.
func (l *labelsClient) waitUntilVisible(ctx context.Context, functionID string, names []string) error {
	deadline := time.Now().Add(constants.AssetVisibilityTimeout)
	ticker := time.NewTicker(constants.AssetVisibilityPollInterval)

	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			listed, err := l.List(ctx, functionID)
			if err != nil {
				return err
			}

			if containsAllNames(names, labelNames(listed)) {
				return nil
			}

			if time.Now().After(deadline) {
				return fmt.Errorf("%w: labels %v", nyckel.ErrAssetVisibilityWait, names)
			}
		}
	}
}

// List fetches all labels, following pagination to the end.
func (l *labelsClient) List(ctx context.Context, functionID string) ([]nyckel.Label, error) {
	pages, err := inthttp.GetAllPages(ctx, l.client.http, functionPath(apiV1, functionID, "labels"), nil, 0)
	if err != nil {
		return nil, fmt.Errorf("listing labels for function %s: %w", functionID, err)
	}

	labels := make([]nyckel.Label, 0, len(pages))

	for _, raw := range pages {
		var wire labelWire

		err := json.Unmarshal(raw, &wire)
		if err != nil {
			return nil, fmt.Errorf("%w: label list: %v", nyckel.ErrDecodeResponse, err)
		}

		labels = append(labels, wire.toLabel())
	}

	return labels, nil
}

// Get fetches one label.
func (l *labelsClient) Get(ctx context.Context, functionID, labelID string) (*nyckel.Label, error) {
	path := functionPath(apiV1, functionID, "labels", nyckel.StripIDPrefix(labelID))

	resp, err := l.client.http.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching label %s: %w", labelID, err)
	}

	var wire labelWire

	err = json.Unmarshal(resp.Body, &wire)
	if err != nil {
		return nil, fmt.Errorf("%w: label %s: %v", nyckel.ErrDecodeResponse, labelID, err)
	}

	label := wire.toLabel()

	return &label, nil
}

// Update replaces a label's name, description, and metadata in place.
func (l *labelsClient) Update(ctx context.Context, functionID string, label nyckel.Label) (*nyckel.Label, error) {
	path := functionPath(apiV1, functionID, "labels", nyckel.StripIDPrefix(label.ID))

	body := labelWire{
		Name:        strings.TrimSpace(label.Name),
		Description: label.Description,
		Metadata:    label.Metadata,
	}

	resp, err := l.client.http.Put(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("updating label %s: %w", label.ID, err)
	}

	l.client.invalidateLabels(ctx, functionID)

	var wire labelWire

	err = json.Unmarshal(resp.Body, &wire)
	if err != nil {
		return nil, fmt.Errorf("%w: label update: %v", nyckel.ErrDecodeResponse, err)
	}

	updated := wire.toLabel()

	return &updated, nil
}

// Delete removes labels in parallel. An empty input returns immediately.
func (l *labelsClient) Delete(ctx context.Context, functionID string, labelIDs []string) error {
	if len(labelIDs) == 0 {
		return nil
	}

	paths := make([]string, len(labelIDs))
	for i, id := range labelIDs {
		paths[i] = functionPath(apiV1, functionID, "labels", nyckel.StripIDPrefix(id))
	}

	deleter := inthttp.NewDeleter(l.client.http, l.client.concurrency)

	for _, result := range deleter.Delete(ctx, paths) {
		if result.Err != nil {
			return fmt.Errorf("deleting label %s: %w", labelIDs[result.Index], result.Err)
		}
	}

	l.client.invalidateLabels(ctx, functionID)

	return nil
}

func labelNames(labels []nyckel.Label) []string {
	names := make([]string, len(labels))
	for i, label := range labels {
		names[i] = label.Name
	}

	return names
}

// containsAllNames reports whether every wanted name is present in got.
func containsAllNames(wanted, got []string) bool {
	present := make(map[string]struct{}, len(got))
	for _, name := range got {
		present[name] = struct{}{}
	}

	for _, name := range wanted {
		if _, ok := present[name]; !ok {
			return false
		}
	}

	return true
}
