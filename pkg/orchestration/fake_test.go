package orchestration_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// fakeClient is an in-memory nyckel.Client good enough for workflow tests.
type fakeClient struct {
	mu        sync.Mutex
	nextID    int
	functions map[string]*nyckel.Function
	labels    map[string][]nyckel.Label
	fields    map[string][]nyckel.Field
	samples   map[string][]nyckel.Sample
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		functions: make(map[string]*nyckel.Function),
		labels:    make(map[string][]nyckel.Label),
		fields:    make(map[string][]nyckel.Field),
		samples:   make(map[string][]nyckel.Sample),
	}
}

func (f *fakeClient) newID(kind string) string {
	f.nextID++

	return fmt.Sprintf("%s%d", kind, f.nextID)
}

func (f *fakeClient) addFunction(id string, input nyckel.InputModality, output nyckel.OutputModality) *nyckel.Function {
	fn := &nyckel.Function{ID: id, Name: "Fn " + id, Input: input, Output: output}
	f.functions[id] = fn

	return fn
}

func (f *fakeClient) Functions() nyckel.FunctionsClient { return (*fakeFunctions)(f) }
func (f *fakeClient) Labels() nyckel.LabelsClient       { return (*fakeLabels)(f) }
func (f *fakeClient) Fields() nyckel.FieldsClient       { return (*fakeFields)(f) }
func (f *fakeClient) Samples() nyckel.SamplesClient     { return (*fakeSamples)(f) }
func (f *fakeClient) Invoke() nyckel.InvokeClient       { return (*fakeInvoke)(f) }

type fakeFunctions fakeClient

func (f *fakeFunctions) Create(ctx context.Context, name string, input nyckel.InputModality, output nyckel.OutputModality) (*nyckel.Function, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn := &nyckel.Function{ID: (*fakeClient)(f).newID("fn"), Name: name, Input: input, Output: output}
	f.functions[fn.ID] = fn

	return fn, nil
}

func (f *fakeFunctions) Get(ctx context.Context, functionID string) (*nyckel.Function, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn, ok := f.functions[functionID]
	if !ok {
		return nil, nyckel.ErrFunctionNotFound
	}

	copied := *fn

	return &copied, nil
}

func (f *fakeFunctions) Delete(ctx context.Context, functionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.functions, functionID)
	delete(f.labels, functionID)
	delete(f.fields, functionID)
	delete(f.samples, functionID)

	return nil
}

func (f *fakeFunctions) Metrics(ctx context.Context, functionID string) (*nyckel.FunctionMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &nyckel.FunctionMetrics{SampleCount: len(f.samples[functionID])}, nil
}

func (f *fakeFunctions) IsTrained(ctx context.Context, functionID string) (bool, error) {
	return false, nil
}

type fakeLabels fakeClient

func (f *fakeLabels) Create(ctx context.Context, functionID string, labels []nyckel.Label) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, len(labels))

	for i, label := range labels {
		label.ID = (*fakeClient)(f).newID("lbl")
		f.labels[functionID] = append(f.labels[functionID], label)
		ids[i] = label.ID
	}

	return ids, nil
}

func (f *fakeLabels) List(ctx context.Context, functionID string) ([]nyckel.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]nyckel.Label(nil), f.labels[functionID]...), nil
}

func (f *fakeLabels) Get(ctx context.Context, functionID, labelID string) (*nyckel.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, label := range f.labels[functionID] {
		if label.ID == labelID {
			return &label, nil
		}
	}

	return nil, &nyckel.APIError{StatusCode: 404, Endpoint: "labels/" + labelID}
}

func (f *fakeLabels) Update(ctx context.Context, functionID string, label nyckel.Label) (*nyckel.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.labels[functionID] {
		if f.labels[functionID][i].ID == label.ID {
			f.labels[functionID][i] = label

			return &label, nil
		}
	}

	return nil, &nyckel.APIError{StatusCode: 404, Endpoint: "labels/" + label.ID}
}

func (f *fakeLabels) Delete(ctx context.Context, functionID string, labelIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	remove := make(map[string]bool, len(labelIDs))
	for _, id := range labelIDs {
		remove[id] = true
	}

	kept := f.labels[functionID][:0]

	for _, label := range f.labels[functionID] {
		if !remove[label.ID] {
			kept = append(kept, label)
		}
	}

	f.labels[functionID] = kept

	return nil
}

type fakeFields fakeClient

func (f *fakeFields) Create(ctx context.Context, functionID string, fields []nyckel.Field) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, len(fields))

	for i, field := range fields {
		field.ID = (*fakeClient)(f).newID("fld")
		f.fields[functionID] = append(f.fields[functionID], field)
		ids[i] = field.ID
	}

	return ids, nil
}

func (f *fakeFields) List(ctx context.Context, functionID string) ([]nyckel.Field, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]nyckel.Field(nil), f.fields[functionID]...), nil
}

func (f *fakeFields) Delete(ctx context.Context, functionID string, fieldIDs []string) error {
	return nil
}

type fakeSamples fakeClient

func (f *fakeSamples) Create(ctx context.Context, functionID string, samples []nyckel.Sample) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, len(samples))

	for i, sample := range samples {
		sample.ID = (*fakeClient)(f).newID("smp")
		f.samples[functionID] = append(f.samples[functionID], sample)
		ids[i] = sample.ID
	}

	return ids, nil
}

func (f *fakeSamples) List(ctx context.Context, functionID string, filter *nyckel.SampleFilter) ([]nyckel.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []nyckel.Sample

	for _, sample := range f.samples[functionID] {
		if filter != nil && filter.AnnotationLabelID != "" {
			if sample.Annotation == nil || f.labelID(functionID, sample.Annotation.LabelName) != filter.AnnotationLabelID {
				continue
			}
		}

		out = append(out, sample)
	}

	return out, nil
}

// labelID resolves a label name the way the real API resolves the
// annotationLabelId filter. Caller holds the lock.
func (f *fakeSamples) labelID(functionID, labelName string) string {
	for _, label := range f.labels[functionID] {
		if label.Name == labelName {
			return label.ID
		}
	}

	return ""
}

func (f *fakeSamples) Get(ctx context.Context, functionID, sampleID string) (*nyckel.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sample := range f.samples[functionID] {
		if sample.ID == sampleID {
			return &sample, nil
		}
	}

	return nil, &nyckel.APIError{StatusCode: 404, Endpoint: "samples/" + sampleID}
}

func (f *fakeSamples) UpdateAnnotation(ctx context.Context, functionID, sampleID string, annotation *nyckel.Annotation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.samples[functionID] {
		if f.samples[functionID][i].ID == sampleID {
			f.samples[functionID][i].Annotation = annotation

			return nil
		}
	}

	return &nyckel.APIError{StatusCode: 404, Endpoint: "samples/" + sampleID}
}

func (f *fakeSamples) Delete(ctx context.Context, functionID string, sampleIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	remove := make(map[string]bool, len(sampleIDs))
	for _, id := range sampleIDs {
		remove[id] = true
	}

	kept := f.samples[functionID][:0]

	for _, sample := range f.samples[functionID] {
		if !remove[sample.ID] {
			kept = append(kept, sample)
		}
	}

	f.samples[functionID] = kept

	return nil
}

type fakeInvoke fakeClient

func (f *fakeInvoke) Classify(ctx context.Context, functionID string, data []nyckel.SampleData) ([]nyckel.InvokeResult, error) {
	return make([]nyckel.InvokeResult, len(data)), nil
}

func (f *fakeInvoke) Tag(ctx context.Context, functionID string, data []nyckel.SampleData) ([]nyckel.TagsResult, error) {
	return make([]nyckel.TagsResult, len(data)), nil
}
