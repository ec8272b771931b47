package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nyckel/nyckel-go/internal/constants"
	"github.com/nyckel/nyckel-go/internal/encode"
	inthttp "github.com/nyckel/nyckel-go/internal/http"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

type samplesClient struct {
	client *Client
}

// sampleCreateBody is the wire shape of a sample create request. Annotation
// is a single object for classification functions and a list for tagging
// functions.
type sampleCreateBody struct {
	Data       interface{} `json:"data"`
	ExternalID string      `json:"externalId,omitempty"`
	Annotation interface{} `json:"annotation,omitempty"`
}

type sampleCreateResponse struct {
	ID               string `json:"id"`
	ExistingSampleID string `json:"existingSampleId"`
}

// Create uploads samples in chunks. Image payloads are encoded lazily inside
// the worker pool, so at most `concurrency` decoded images exist at once.
// Labels referenced by annotations are created first when missing; a 409
// means the sample already exists and its ID is returned in place of a new
// one. Items that fail outright are logged and omitted from the result.
func (s *samplesClient) Create(ctx context.Context, functionID string, samples []nyckel.Sample) ([]string, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	fn, err := s.client.lookupFunction(ctx, functionID)
	if err != nil {
		return nil, err
	}

	err = validateSampleModalities(fn, samples)
	if err != nil {
		return nil, err
	}

	err = s.createMissingLabels(ctx, functionID, samples)
	if err != nil {
		return nil, err
	}

	var imageFieldKey string

	if fn.Input == nyckel.InputTabular {
		fields, err := s.client.lookupFields(ctx, functionID)
		if err != nil {
			return nil, err
		}

		samples, err = rekeyTabularSamples(samples, fields)
		if err != nil {
			return nil, err
		}

		imageFieldKey = imageFieldID(fields)
	}

	bodies := make([]interface{}, len(samples))
	for i, sample := range samples {
		bodies[i] = buildSampleCreateBody(fn.Output, sample)
	}

	transformer := s.bodyTransformer(fn.Input, imageFieldKey)
	path := functionPath(sampleAPIVersion(fn.Output), functionID, "samples")
	poster := inthttp.NewPoster(s.client.http, transformer, s.client.concurrency)

	var ids []string

	for _, chunk := range inthttp.Chunk(bodies, constants.SampleChunkSize) {
		for _, result := range poster.Post(ctx, path, chunk) {
			id, ok := s.sampleIDFromResult(result)
			if ok {
				ids = append(ids, id)
			}
		}
	}

	return ids, nil
}

func (s *samplesClient) sampleIDFromResult(result inthttp.PostResult) (string, bool) {
	if result.Err != nil && !nyckel.IsConflict(result.Err) {
		s.client.logWarn("sample upload failed", map[string]interface{}{
			"index": result.Index,
			"error": result.Err.Error(),
		})

		return "", false
	}

	var created sampleCreateResponse

	err := json.Unmarshal(result.Response.Body, &created)
	if err != nil {
		s.client.logWarn("sample upload returned undecodable body", map[string]interface{}{
			"index": result.Index,
			"error": err.Error(),
		})

		return "", false
	}

	if created.ExistingSampleID != "" {
		return nyckel.StripIDPrefix(created.ExistingSampleID), true
	}

	return nyckel.StripIDPrefix(created.ID), true
}

// createMissingLabels creates any label referenced by an annotation that the
// function does not have yet, so sample posts never 404 on label names.
func (s *samplesClient) createMissingLabels(ctx context.Context, functionID string, samples []nyckel.Sample) error {
	referenced := map[string]struct{}{}

	for _, sample := range samples {
		if sample.Annotation != nil {
			referenced[strings.TrimSpace(sample.Annotation.LabelName)] = struct{}{}
		}

		for _, tag := range sample.TagAnnotations {
			referenced[strings.TrimSpace(tag.LabelName)] = struct{}{}
		}
	}

	delete(referenced, "")

	if len(referenced) == 0 {
		return nil
	}

	existing, err := s.client.lookupLabels(ctx, functionID)
	if err != nil {
		return err
	}

	for _, label := range existing {
		delete(referenced, label.Name)
	}

	if len(referenced) == 0 {
		return nil
	}

	missing := make([]nyckel.Label, 0, len(referenced))
	for name := range referenced {
		missing = append(missing, nyckel.Label{Name: name})
	}

	_, err = s.client.labels.Create(ctx, functionID, missing)

	return err
}

// bodyTransformer builds the lazy per-item transform for the worker pool.
// Text samples need none.
func (s *samplesClient) bodyTransformer(input nyckel.InputModality, imageFieldKey string) inthttp.BodyTransformer {
	switch input {
	case nyckel.InputImage:
		encoder := encode.NewImageEncoder(constants.MaxImageSizePixels)

		return inthttp.BodyTransformerFunc(func(ctx context.Context, body interface{}) (interface{}, error) {
			sample := body.(sampleCreateBody)

			ref, ok := sample.Data.(string)
			if !ok {
				return nil, fmt.Errorf("image sample data holds %T, want string", sample.Data)
			}

			encoded, err := encoder.EncodeInline(ctx, ref)
			if err != nil {
				return nil, err
			}

			sample.Data = encoded

			return sample, nil
		})

	case nyckel.InputTabular:
		encoder := encode.NewTabularEncoder(encode.NewImageEncoder(constants.MaxImageSizePixelsTabular), imageFieldKey)

		return inthttp.BodyTransformerFunc(func(ctx context.Context, body interface{}) (interface{}, error) {
			sample := body.(sampleCreateBody)

			row, ok := sample.Data.(map[string]nyckel.TabularValue)
			if !ok {
				return nil, fmt.Errorf("tabular sample data holds %T, want map", sample.Data)
			}

			encoded, err := encoder.EncodeRow(ctx, row)
			if err != nil {
				return nil, err
			}

			sample.Data = encoded

			return sample, nil
		})

	default:
		return nil
	}
}

// List fetches all samples matching the filter, resolving label and field
// IDs back to names.
func (s *samplesClient) List(ctx context.Context, functionID string, filter *nyckel.SampleFilter) ([]nyckel.Sample, error) {
	fn, err := s.client.lookupFunction(ctx, functionID)
	if err != nil {
		return nil, err
	}

	query := url.Values{"batchSize": []string{strconv.Itoa(constants.ListBatchSize)}}

	if filter != nil {
		if filter.AnnotationLabelID != "" {
			query.Set("annotationLabelId", nyckel.StripIDPrefix(filter.AnnotationLabelID))
		}

		if filter.SortByNewestFirst {
			query.Set("sortBy", "creation")
			query.Set("sortOrder", "descending")
		}
	}

	path := functionPath(sampleAPIVersion(fn.Output), functionID, "samples")

	pages, err := inthttp.GetAllPages(ctx, s.client.http, path, query, 0)
	if err != nil {
		return nil, fmt.Errorf("listing samples for function %s: %w", functionID, err)
	}

	resolver, err := s.newSampleResolver(ctx, fn)
	if err != nil {
		return nil, err
	}

	samples := make([]nyckel.Sample, 0, len(pages))

	for _, raw := range pages {
		sample, err := resolver.fromWire(raw)
		if err != nil {
			return nil, err
		}

		samples = append(samples, sample)
	}

	return samples, nil
}

// Get fetches one sample. A read issued right after create can 404 while
// the write propagates, so a 404 is retried once after a short wait.
func (s *samplesClient) Get(ctx context.Context, functionID, sampleID string) (*nyckel.Sample, error) {
	fn, err := s.client.lookupFunction(ctx, functionID)
	if err != nil {
		return nil, err
	}

	path := functionPath(sampleAPIVersion(fn.Output), functionID, "samples", nyckel.StripIDPrefix(sampleID))

	resp, err := s.client.http.Get(ctx, path, nil)
	if err != nil && nyckel.IsNotFound(err) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(constants.SampleReadRetryDelay):
		}

		resp, err = s.client.http.Get(ctx, path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("fetching sample %s: %w", sampleID, err)
	}

	resolver, err := s.newSampleResolver(ctx, fn)
	if err != nil {
		return nil, err
	}

	sample, err := resolver.fromWire(resp.Body)
	if err != nil {
		return nil, err
	}

	return &sample, nil
}

// UpdateAnnotation sets the ground truth of a sample, or clears it when the
// annotation is nil.
func (s *samplesClient) UpdateAnnotation(ctx context.Context, functionID, sampleID string, annotation *nyckel.Annotation) error {
	fn, err := s.client.lookupFunction(ctx, functionID)
	if err != nil {
		return err
	}

	path := functionPath(sampleAPIVersion(fn.Output), functionID, "samples", nyckel.StripIDPrefix(sampleID), "annotation")

	if annotation == nil {
		_, err = s.client.http.Delete(ctx, path)
		if err != nil {
			return fmt.Errorf("clearing annotation of sample %s: %w", sampleID, err)
		}

		return nil
	}

	body := map[string]string{"labelName": strings.TrimSpace(annotation.LabelName)}

	_, err = s.client.http.Put(ctx, path, body)
	if err != nil {
		return fmt.Errorf("annotating sample %s: %w", sampleID, err)
	}

	return nil
}

// Delete removes samples in parallel. An empty input returns immediately.
func (s *samplesClient) Delete(ctx context.Context, functionID string, sampleIDs []string) error {
	if len(sampleIDs) == 0 {
		return nil
	}

	fn, err := s.client.lookupFunction(ctx, functionID)
	if err != nil {
		return err
	}

	version := sampleAPIVersion(fn.Output)

	paths := make([]string, len(sampleIDs))
	for i, id := range sampleIDs {
		paths[i] = functionPath(version, functionID, "samples", nyckel.StripIDPrefix(id))
	}

	deleter := inthttp.NewDeleter(s.client.http, s.client.concurrency)

	for _, result := range deleter.Delete(ctx, paths) {
		if result.Err != nil {
			return fmt.Errorf("deleting sample %s: %w", sampleIDs[result.Index], result.Err)
		}
	}

	return nil
}

// validateSampleModalities rejects payloads that do not match the function's
// input modality before anything is uploaded.
func validateSampleModalities(fn *nyckel.Function, samples []nyckel.Sample) error {
	for i, sample := range samples {
		if sample.Data == nil {
			return fmt.Errorf("sample %d has no data", i)
		}

		if sample.Data.Modality() != fn.Input {
			return fmt.Errorf("%w: sample %d is %s, function %s takes %s",
				nyckel.ErrWrongInputModality, i, sample.Data.Modality(), fn.ID, fn.Input)
		}
	}

	return nil
}

// buildSampleCreateBody maps a sample to its wire shape. Tagging functions
// take annotations as a list, classification as a single object.
func buildSampleCreateBody(output nyckel.OutputModality, sample nyckel.Sample) sampleCreateBody {
	body := sampleCreateBody{
		Data:       sampleDataValue(sample.Data),
		ExternalID: sample.ExternalID,
	}

	if output == nyckel.OutputTags {
		if len(sample.TagAnnotations) > 0 {
			tags := make([]map[string]interface{}, len(sample.TagAnnotations))
			for i, tag := range sample.TagAnnotations {
				tags[i] = map[string]interface{}{
					"labelName": strings.TrimSpace(tag.LabelName),
					"present":   tag.Present,
				}
			}

			body.Annotation = tags
		}

		return body
	}

	if sample.Annotation != nil {
		body.Annotation = map[string]string{"labelName": strings.TrimSpace(sample.Annotation.LabelName)}
	}

	return body
}

func sampleDataValue(data nyckel.SampleData) interface{} {
	switch d := data.(type) {
	case nyckel.TextData:
		return string(d)
	case nyckel.ImageData:
		return string(d)
	case nyckel.TabularData:
		return map[string]nyckel.TabularValue(d)
	default:
		return data
	}
}

// rekeyTabularSamples switches tabular rows from field names to field IDs,
// which is what the samples endpoint expects. Referencing a field that has
// not been created is a client-side setup error.
func rekeyTabularSamples(samples []nyckel.Sample, fields []nyckel.Field) ([]nyckel.Sample, error) {
	idByName := make(map[string]string, len(fields))
	for _, field := range fields {
		idByName[field.Name] = nyckel.StripIDPrefix(field.ID)
	}

	rekeyed := make([]nyckel.Sample, len(samples))

	for i, sample := range samples {
		row, ok := sample.Data.(nyckel.TabularData)
		if !ok {
			return nil, fmt.Errorf("sample %d data holds %T, want TabularData", i, sample.Data)
		}

		out := make(nyckel.TabularData, len(row))

		for name, value := range row {
			id, ok := idByName[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", nyckel.ErrFieldNotCreated, name)
			}

			out[id] = value
		}

		rekeyed[i] = sample
		rekeyed[i].Data = out
	}

	return rekeyed, nil
}

// sampleResolver converts wire samples to the public shape, resolving label
// and field foreign keys to names.
type sampleResolver struct {
	fn         *nyckel.Function
	labelNames map[string]string
	fieldNames map[string]string
}

func (s *samplesClient) newSampleResolver(ctx context.Context, fn *nyckel.Function) (*sampleResolver, error) {
	labels, err := s.client.lookupLabels(ctx, fn.ID)
	if err != nil {
		return nil, err
	}

	resolver := &sampleResolver{fn: fn, labelNames: labelNamesByID(labels)}

	if fn.Input == nyckel.InputTabular {
		fields, err := s.client.lookupFields(ctx, fn.ID)
		if err != nil {
			return nil, err
		}

		resolver.fieldNames = fieldNamesByID(fields)
	}

	return resolver, nil
}

type sampleWire struct {
	ID         string          `json:"id"`
	ExternalID string          `json:"externalId"`
	Data       json.RawMessage `json:"data"`
	Annotation json.RawMessage `json:"annotation"`
	Prediction *struct {
		LabelID    string  `json:"labelId"`
		Confidence float64 `json:"confidence"`
	} `json:"prediction"`
}

func (r *sampleResolver) fromWire(raw json.RawMessage) (nyckel.Sample, error) {
	var wire sampleWire

	err := json.Unmarshal(raw, &wire)
	if err != nil {
		return nyckel.Sample{}, fmt.Errorf("%w: sample: %v", nyckel.ErrDecodeResponse, err)
	}

	sample := nyckel.Sample{
		ID:         nyckel.StripIDPrefix(wire.ID),
		ExternalID: wire.ExternalID,
	}

	sample.Data, err = r.dataFromWire(wire.Data)
	if err != nil {
		return nyckel.Sample{}, err
	}

	err = r.annotationFromWire(wire.Annotation, &sample)
	if err != nil {
		return nyckel.Sample{}, err
	}

	if wire.Prediction != nil {
		sample.Prediction = &nyckel.Prediction{
			LabelName:  r.labelName(wire.Prediction.LabelID),
			Confidence: wire.Prediction.Confidence,
		}
	}

	return sample, nil
}

func (r *sampleResolver) dataFromWire(raw json.RawMessage) (nyckel.SampleData, error) {
	switch r.fn.Input {
	case nyckel.InputTabular:
		var row map[string]nyckel.TabularValue

		err := json.Unmarshal(raw, &row)
		if err != nil {
			return nil, fmt.Errorf("%w: tabular sample data: %v", nyckel.ErrDecodeResponse, err)
		}

		named := make(nyckel.TabularData, len(row))

		for fieldID, value := range row {
			name, ok := r.fieldNames[nyckel.StripIDPrefix(fieldID)]
			if !ok {
				name = nyckel.StripIDPrefix(fieldID)
			}

			named[name] = value
		}

		return named, nil

	default:
		var value string

		err := json.Unmarshal(raw, &value)
		if err != nil {
			return nil, fmt.Errorf("%w: sample data: %v", nyckel.ErrDecodeResponse, err)
		}

		if r.fn.Input == nyckel.InputImage {
			return nyckel.ImageData(value), nil
		}

		return nyckel.TextData(value), nil
	}
}

func (r *sampleResolver) annotationFromWire(raw json.RawMessage, sample *nyckel.Sample) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	if r.fn.Output == nyckel.OutputTags {
		var tags []struct {
			LabelID string `json:"labelId"`
			Present bool   `json:"present"`
		}

		err := json.Unmarshal(raw, &tags)
		if err != nil {
			return fmt.Errorf("%w: tag annotations: %v", nyckel.ErrDecodeResponse, err)
		}

		for _, tag := range tags {
			sample.TagAnnotations = append(sample.TagAnnotations, nyckel.TagAnnotation{
				LabelName: r.labelName(tag.LabelID),
				Present:   tag.Present,
			})
		}

		return nil
	}

	var annotation struct {
		LabelID string `json:"labelId"`
	}

	err := json.Unmarshal(raw, &annotation)
	if err != nil {
		return fmt.Errorf("%w: annotation: %v", nyckel.ErrDecodeResponse, err)
	}

	sample.Annotation = &nyckel.Annotation{LabelName: r.labelName(annotation.LabelID)}

	return nil
}

// labelName resolves a label ID to its name, falling back to the stripped ID
// for labels deleted since the lookup map was cached.
func (r *sampleResolver) labelName(labelID string) string {
	stripped := nyckel.StripIDPrefix(labelID)

	if name, ok := r.labelNames[stripped]; ok {
		return name
	}

	return stripped
}
