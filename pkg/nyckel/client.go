package nyckel

import (
	"context"
)

// FunctionsClient manages function resources.
type FunctionsClient interface {
	// Create posts a new function and waits until it is readable.
	Create(ctx context.Context, name string, input InputModality, output OutputModality) (*Function, error)
	// Get fetches a function, translating 401/403 into distinct access errors.
	Get(ctx context.Context, functionID string) (*Function, error)
	// Delete removes a function and everything in it.
	Delete(ctx context.Context, functionID string) error
	// Metrics fetches the legacy metrics view.
	Metrics(ctx context.Context, functionID string) (*FunctionMetrics, error)
	// IsTrained reports whether the function has a model that is caught up
	// with its samples.
	IsTrained(ctx context.Context, functionID string) (bool, error)
}

// LabelsClient manages labels within a function.
type LabelsClient interface {
	// Create batch-posts labels and blocks until they are visible to reads.
	// Returned IDs are prefix-stripped and index-aligned with the input.
	Create(ctx context.Context, functionID string, labels []Label) ([]string, error)
	// List fetches all labels, following pagination to completion.
	List(ctx context.Context, functionID string) ([]Label, error)
	// Get fetches a single label.
	Get(ctx context.Context, functionID, labelID string) (*Label, error)
	// Update replaces a label's name, description, and metadata.
	Update(ctx context.Context, functionID string, label Label) (*Label, error)
	// Delete removes labels in parallel. An empty input is a no-op.
	Delete(ctx context.Context, functionID string, labelIDs []string) error
}

// FieldsClient manages tabular function fields.
type FieldsClient interface {
	Create(ctx context.Context, functionID string, fields []Field) ([]string, error)
	List(ctx context.Context, functionID string) ([]Field, error)
	Delete(ctx context.Context, functionID string, fieldIDs []string) error
}

// SampleFilter narrows a sample listing.
type SampleFilter struct {
	// AnnotationLabelID keeps only samples annotated with this label.
	AnnotationLabelID string
	// SortByNewestFirst orders by creation time, newest first.
	SortByNewestFirst bool
}

// SamplesClient manages samples within a function.
type SamplesClient interface {
	// Create batch-posts samples in chunks, encoding image payloads lazily
	// inside the worker pool. Labels referenced by annotations are created
	// first if missing. A 409 response is treated as a soft success and the
	// existing sample's ID is returned for that item. Returned IDs are
	// prefix-stripped; items that failed outright are omitted.
	Create(ctx context.Context, functionID string, samples []Sample) ([]string, error)
	// List fetches all samples matching the filter.
	List(ctx context.Context, functionID string, filter *SampleFilter) ([]Sample, error)
	// Get fetches one sample, retrying once if it was created moments ago.
	Get(ctx context.Context, functionID, sampleID string) (*Sample, error)
	// UpdateAnnotation sets or clears the ground truth of a sample. A nil
	// annotation clears it.
	UpdateAnnotation(ctx context.Context, functionID, sampleID string, annotation *Annotation) error
	// Delete removes samples in parallel. An empty input is a no-op.
	Delete(ctx context.Context, functionID string, sampleIDs []string) error
}

// InvokeClient requests predictions from trained functions.
type InvokeClient interface {
	// Classify invokes a classification function for each input, waiting
	// and retrying while the model is still training. Results are
	// index-aligned with the inputs; individual failures are reported in
	// the result rather than aborting the batch.
	Classify(ctx context.Context, functionID string, data []SampleData) ([]InvokeResult, error)
	// Tag invokes a tagging function. Each result carries every tag with
	// its presence flag.
	Tag(ctx context.Context, functionID string, data []SampleData) ([]TagsResult, error)
}

// InvokeResult is one classification invoke outcome.
type InvokeResult struct {
	Prediction Prediction
	Err        error
}

// TagsResult is one tagging invoke outcome.
type TagsResult struct {
	Predictions []Prediction
	Err         error
}

// Client is the public surface of the SDK.
type Client interface {
	Functions() FunctionsClient
	Labels() LabelsClient
	Fields() FieldsClient
	Samples() SamplesClient
	Invoke() InvokeClient
}
