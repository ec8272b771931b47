package constants

import "time"

// Server defaults.
const (
	// DefaultServerURL is the production Nyckel host.
	DefaultServerURL = "https://www.nyckel.com"

	// NyckelOwnedURLPrefix marks image URLs that point at Nyckel's own S3
	// bucket. Such images are already processed server-side and are passed
	// through unchanged.
	NyckelOwnedURLPrefix = "https://s3.us-west-2.amazonaws.com/nyckel.server."
)

// Authentication.
const (
	// TokenRenewMargin is subtracted from the token lifetime so renewal
	// happens well before actual expiry.
	TokenRenewMargin = 10 * time.Minute
)

// Concurrency and batching limits.
const (
	// MaxConcurrentRequests bounds the worker pool used for batched
	// POST/DELETE requests.
	MaxConcurrentRequests = 10

	// SampleChunkSize is the maximum number of samples submitted to the
	// executor in one go. Chunking keeps progress observable on large
	// uploads and bounds the damage of a mid-batch failure.
	SampleChunkSize = 500
)

// Image encoding.
const (
	// MaxImageSizePixels is the default bound on the longer image side.
	MaxImageSizePixels = 1024

	// MaxImageSizePixelsTabular is the bound for image fields in tabular
	// samples, which are thumbnails rather than primary content.
	MaxImageSizePixelsTabular = 384

	// JPEGQuality is used when re-encoding uploaded images.
	JPEGQuality = 95
)

// Retry and transport limits.
const (
	// DefaultRetryMax is the default number of transport-level retries for
	// 5xx and connection errors.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the minimum backoff between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum backoff between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Eventual-consistency polling.
const (
	// AssetVisibilityTimeout bounds the wait for freshly created labels and
	// fields to become visible to reads.
	AssetVisibilityTimeout = 5 * time.Second

	// AssetVisibilityPollInterval is the wait between visibility checks.
	AssetVisibilityPollInterval = 500 * time.Millisecond

	// FunctionVisibilityPollInterval is the wait between checks for a newly
	// created function to become readable.
	FunctionVisibilityPollInterval = 250 * time.Millisecond

	// SampleReadRetryDelay is the wait before retrying a sample read that
	// 404s right after create.
	SampleReadRetryDelay = 1 * time.Second
)

// Invoke retry.
const (
	// InvokeMaxAttempts is the number of times invoke is attempted while
	// the server reports that no trained model is available yet.
	InvokeMaxAttempts = 10

	// InvokeRetryInterval is the wait between invoke attempts.
	InvokeRetryInterval = 5 * time.Second
)

// Listing.
const (
	// ListBatchSize is the page size requested from listing endpoints.
	ListBatchSize = 1000
)
