package http

import (
	"context"
	"sync"

	"github.com/nyckel/nyckel-go/internal/constants"
)

// BodyTransformer prepares a request body right before it is posted. Sample
// bodies carry image references that are only expanded (fetched, resized,
// re-encoded) inside the worker goroutine, so a large batch never holds more
// than maxConcurrency decoded images in memory at once.
type BodyTransformer interface {
	Transform(ctx context.Context, body interface{}) (interface{}, error)
}

// BodyTransformerFunc adapts a function to the BodyTransformer interface.
type BodyTransformerFunc func(ctx context.Context, body interface{}) (interface{}, error)

// Transform implements BodyTransformer.
func (f BodyTransformerFunc) Transform(ctx context.Context, body interface{}) (interface{}, error) {
	return f(ctx, body)
}

// PostResult is the outcome of one request in a batch. Exactly one of
// Response and Err is set.
type PostResult struct {
	Index    int
	Response *Response
	Err      error
}

// Poster posts a list of bodies to one endpoint concurrently. Results come
// back in submission order regardless of completion order.
type Poster struct {
	client         *Client
	transformer    BodyTransformer
	maxConcurrency int
}

// NewPoster creates a batch poster. A nil transformer posts bodies as-is.
func NewPoster(client *Client, transformer BodyTransformer, maxConcurrency int) *Poster {
	if maxConcurrency <= 0 {
		maxConcurrency = constants.MaxConcurrentRequests
	}

	return &Poster{
		client:         client,
		transformer:    transformer,
		maxConcurrency: maxConcurrency,
	}
}

// Post sends all bodies to path. Individual failures are captured per result
// and never abort the rest of the batch.
func (p *Poster) Post(ctx context.Context, path string, bodies []interface{}) []PostResult {
	results := make([]PostResult, len(bodies))

	concurrency := p.maxConcurrency
	if len(bodies) < concurrency {
		concurrency = len(bodies)
	}

	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup

	for i, body := range bodies {
		wg.Add(1)

		go func(index int, body interface{}) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[index] = p.postOne(ctx, path, index, body)
		}(i, body)
	}

	wg.Wait()

	return results
}

func (p *Poster) postOne(ctx context.Context, path string, index int, body interface{}) PostResult {
	if p.transformer != nil {
		transformed, err := p.transformer.Transform(ctx, body)
		if err != nil {
			return PostResult{Index: index, Err: err}
		}

		body = transformed
	}

	resp, err := p.client.Post(ctx, path, body)
	if err != nil {
		return PostResult{Index: index, Response: resp, Err: err}
	}

	return PostResult{Index: index, Response: resp}
}

// DeleteResult is the outcome of one DELETE in a batch.
type DeleteResult struct {
	Index int
	Err   error
}

// Deleter issues DELETE requests for a list of paths concurrently.
type Deleter struct {
	client         *Client
	maxConcurrency int
}

// NewDeleter creates a batch deleter.
func NewDeleter(client *Client, maxConcurrency int) *Deleter {
	if maxConcurrency <= 0 {
		maxConcurrency = constants.MaxConcurrentRequests
	}

	return &Deleter{client: client, maxConcurrency: maxConcurrency}
}

// Delete removes every path. An empty list returns immediately.
func (d *Deleter) Delete(ctx context.Context, paths []string) []DeleteResult {
	if len(paths) == 0 {
		return nil
	}

	results := make([]DeleteResult, len(paths))

	concurrency := d.maxConcurrency
	if len(paths) < concurrency {
		concurrency = len(paths)
	}

	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)

		go func(index int, path string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			_, err := d.client.Delete(ctx, path)
			results[index] = DeleteResult{Index: index, Err: err}
		}(i, path)
	}

	wg.Wait()

	return results
}

// Chunk splits items into slices of at most size elements, preserving order.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)

	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}

		chunks = append(chunks, items[start:end])
	}

	return chunks
}
