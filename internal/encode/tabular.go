package encode

import (
	"context"
	"fmt"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// TabularEncoder rewrites the image column of a tabular row. Only the single
// field declared with the Image type is touched; text and number fields pass
// through untouched. Tabular images are thumbnails, so the pixel bound is
// smaller than for primary image content.
type TabularEncoder struct {
	images *ImageEncoder
	// imageFieldKey is the field name (or field ID, for rows already keyed
	// by ID) whose values hold image references. Empty means the function
	// has no image field and rows pass through as-is.
	imageFieldKey string
}

// NewTabularEncoder creates an encoder targeting the given image field key.
func NewTabularEncoder(images *ImageEncoder, imageFieldKey string) *TabularEncoder {
	return &TabularEncoder{images: images, imageFieldKey: imageFieldKey}
}

// EncodeRow returns a copy of the row with the image field inlined as a data
// URI. The input row is never mutated.
func (e *TabularEncoder) EncodeRow(ctx context.Context, row map[string]nyckel.TabularValue) (map[string]nyckel.TabularValue, error) {
	if e.imageFieldKey == "" {
		return row, nil
	}

	value, ok := row[e.imageFieldKey]
	if !ok {
		return row, nil
	}

	ref, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("image field %q holds %T, want string", e.imageFieldKey, value)
	}

	encoded, err := e.images.EncodeInline(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("encoding image field %q: %w", e.imageFieldKey, err)
	}

	out := make(map[string]nyckel.TabularValue, len(row))
	for key, val := range row {
		out[key] = val
	}

	out[e.imageFieldKey] = encoded

	return out, nil
}
