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

type fieldsClient struct {
	client *Client
}

type fieldWire struct {
	ID   string           `json:"id,omitempty"`
	Name string           `json:"name"`
	Type nyckel.FieldType `json:"type"`
}

func (w *fieldWire) toField() nyckel.Field {
	return nyckel.Field{
		ID:   nyckel.StripIDPrefix(w.ID),
		Name: w.Name,
		Type: w.Type,
	}
}

// Create batch-posts the fields and blocks until every new name is visible
// to a subsequent list.
func (f *fieldsClient) Create(ctx context.Context, functionID string, fields []nyckel.Field) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	bodies := make([]interface{}, len(fields))
	names := make([]string, len(fields))

	for i, field := range fields {
		name := strings.TrimSpace(field.Name)
		names[i] = name
		bodies[i] = fieldWire{Name: name, Type: field.Type}
	}

	poster := inthttp.NewPoster(f.client.http, nil, f.client.concurrency)
	results := poster.Post(ctx, functionPath(apiV1, functionID, "fields"), bodies)

	ids := make([]string, len(results))

	for i, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("creating field %q: %w", names[i], result.Err)
		}

		var wire fieldWire

		err := json.Unmarshal(result.Response.Body, &wire)
		if err != nil {
			return nil, fmt.Errorf("%w: field create: %v", nyckel.ErrDecodeResponse, err)
		}

		ids[i] = nyckel.StripIDPrefix(wire.ID)
	}

	f.client.invalidateFields(ctx, functionID)

	err := f.waitUntilVisible(ctx, functionID, names)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (f *fieldsClient) waitUntilVisible(ctx context.Context, functionID string, names []string) error {
	deadline := time.Now().Add(constants.AssetVisibilityTimeout)
	ticker := time.NewTicker(constants.AssetVisibilityPollInterval)

	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			listed, err := f.List(ctx, functionID)
			if err != nil {
				return err
			}

			got := make([]string, len(listed))
			for i, field := range listed {
				got[i] = field.Name
			}

			if containsAllNames(names, got) {
				return nil
			}

			if time.Now().After(deadline) {
				return fmt.Errorf("%w: fields %v", nyckel.ErrAssetVisibilityWait, names)
			}
		}
	}
}

// List fetches all fields, following pagination to the end.
func (f *fieldsClient) List(ctx context.Context, functionID string) ([]nyckel.Field, error) {
	pages, err := inthttp.GetAllPages(ctx, f.client.http, functionPath(apiV1, functionID, "fields"), nil, 0)
	if err != nil {
		return nil, fmt.Errorf("listing fields for function %s: %w", functionID, err)
	}

	fields := make([]nyckel.Field, 0, len(pages))

	for _, raw := range pages {
		var wire fieldWire

		err := json.Unmarshal(raw, &wire)
		if err != nil {
			return nil, fmt.Errorf("%w: field list: %v", nyckel.ErrDecodeResponse, err)
		}

		fields = append(fields, wire.toField())
	}

	return fields, nil
}

// Delete removes fields in parallel. An empty input returns immediately.
func (f *fieldsClient) Delete(ctx context.Context, functionID string, fieldIDs []string) error {
	if len(fieldIDs) == 0 {
		return nil
	}

	paths := make([]string, len(fieldIDs))
	for i, id := range fieldIDs {
		paths[i] = functionPath(apiV1, functionID, "fields", nyckel.StripIDPrefix(id))
	}

	deleter := inthttp.NewDeleter(f.client.http, f.client.concurrency)

	for _, result := range deleter.Delete(ctx, paths) {
		if result.Err != nil {
			return fmt.Errorf("deleting field %s: %w", fieldIDs[result.Index], result.Err)
		}
	}

	f.client.invalidateFields(ctx, functionID)

	return nil
}

// imageFieldID returns the prefix-stripped ID of the (at most one) field
// declared with the Image type, or "".
func imageFieldID(fields []nyckel.Field) string {
	for _, field := range fields {
		if field.Type == nyckel.FieldTypeImage {
			return nyckel.StripIDPrefix(field.ID)
		}
	}

	return ""
}
