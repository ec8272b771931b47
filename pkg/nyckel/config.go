package nyckel

import (
	"time"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config holds everything needed to build a Client.
//
// ClientID and ClientSecret are the OAuth2 client credentials issued by the
// Nyckel console. ServerURL defaults to the production host and is only
// overridden for local or staging testing.
type Config struct {
	// ClientID is the OAuth2 client ID.
	ClientID string
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string
	// ServerURL is the API base URL. Defaults to https://www.nyckel.com.
	// A trailing slash is trimmed.
	ServerURL string

	// RetryMax is the maximum number of transport-level retries for 5xx
	// responses and connection errors. If 0 a default is used.
	RetryMax int
	// RetryWaitMin is the minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between retries.
	RetryWaitMax time.Duration

	// MaxConcurrentRequests bounds the worker pool for batched requests.
	// If 0 a default of 10 is used.
	MaxConcurrentRequests int

	// Debug enables verbose HTTP request/response logging when a Logger is
	// provided.
	Debug bool
	// Logger is an optional structured logger.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Cache configures the lookup-map cache used when resolving label and
	// field IDs to names. If nil, a small in-memory cache is used.
	Cache *CacheConfig
}
