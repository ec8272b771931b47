package client

import (
	"context"
	"encoding/json"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// Lookup maps (label ID to name, field ID to name) are needed on every
// sample read to resolve foreign keys. They change rarely, so resolved lists
// are cached for a short TTL and invalidated on any mutation.

func cacheKeyFunction(functionID string) string {
	return "function:" + nyckel.StripIDPrefix(functionID)
}

func cacheKeyLabels(functionID string) string {
	return "labels:" + nyckel.StripIDPrefix(functionID)
}

func cacheKeyFields(functionID string) string {
	return "fields:" + nyckel.StripIDPrefix(functionID)
}

// lookupFunction returns the function, from cache when possible.
func (c *Client) lookupFunction(ctx context.Context, functionID string) (*nyckel.Function, error) {
	key := cacheKeyFunction(functionID)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var fn nyckel.Function
		if json.Unmarshal(raw, &fn) == nil {
			return &fn, nil
		}
	}

	fn, err := c.functions.Get(ctx, functionID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(fn); err == nil {
		_ = c.cache.Set(ctx, key, raw, 0)
	}

	return fn, nil
}

// lookupLabels returns all labels of a function, from cache when possible.
func (c *Client) lookupLabels(ctx context.Context, functionID string) ([]nyckel.Label, error) {
	key := cacheKeyLabels(functionID)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var labels []nyckel.Label
		if json.Unmarshal(raw, &labels) == nil {
			return labels, nil
		}
	}

	labels, err := c.labels.List(ctx, functionID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(labels); err == nil {
		_ = c.cache.Set(ctx, key, raw, 0)
	}

	return labels, nil
}

// lookupFields returns all fields of a function, from cache when possible.
func (c *Client) lookupFields(ctx context.Context, functionID string) ([]nyckel.Field, error) {
	key := cacheKeyFields(functionID)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var fields []nyckel.Field
		if json.Unmarshal(raw, &fields) == nil {
			return fields, nil
		}
	}

	fields, err := c.fields.List(ctx, functionID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(fields); err == nil {
		_ = c.cache.Set(ctx, key, raw, 0)
	}

	return fields, nil
}

// invalidateLabels drops the cached label list after a mutation.
func (c *Client) invalidateLabels(ctx context.Context, functionID string) {
	_ = c.cache.Delete(ctx, cacheKeyLabels(functionID))
}

// invalidateFields drops the cached field list after a mutation.
func (c *Client) invalidateFields(ctx context.Context, functionID string) {
	_ = c.cache.Delete(ctx, cacheKeyFields(functionID))
}

// invalidateLookups drops everything cached for a function.
func (c *Client) invalidateLookups(ctx context.Context, functionID string) {
	_ = c.cache.Delete(ctx, cacheKeyFunction(functionID))
	c.invalidateLabels(ctx, functionID)
	c.invalidateFields(ctx, functionID)
}

// labelNamesByID builds a lookup from prefix-stripped label ID to name.
func labelNamesByID(labels []nyckel.Label) map[string]string {
	names := make(map[string]string, len(labels))
	for _, label := range labels {
		names[nyckel.StripIDPrefix(label.ID)] = label.Name
	}

	return names
}

// fieldNamesByID builds a lookup from prefix-stripped field ID to name.
func fieldNamesByID(fields []nyckel.Field) map[string]string {
	names := make(map[string]string, len(fields))
	for _, field := range fields {
		names[nyckel.StripIDPrefix(field.ID)] = field.Name
	}

	return names
}
