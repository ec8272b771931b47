package nyckel

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a non-2xx response from the Nyckel API.
type APIError struct {
	StatusCode int    `json:"statusCode" yaml:"statusCode"`
	Endpoint   string `json:"endpoint"   yaml:"endpoint"`
	Body       string `json:"body"       yaml:"body"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Static errors that can be wrapped with context.
var (
	ErrAuthenticationFailed = errors.New("failed to obtain access token")
	ErrInvalidAccessToken   = errors.New("invalid access token")
	ErrInsufficientAccess   = errors.New("credentials lack access to this function")
	ErrFunctionNotFound     = errors.New("function not found")
	ErrAssetVisibilityWait  = errors.New("created resources did not become visible in time")
	ErrModelNotTrained      = errors.New("no trained model available to invoke")
	ErrDecodeResponse       = errors.New("failed to decode response body")
	ErrUnknownImageInput    = errors.New("image input is not a URL, local file path, or data URI")
	ErrMalformedDataURI     = errors.New("malformed data URI")
	ErrFieldNotCreated      = errors.New("sample references a field that has not been created")
	ErrServerURLRequired    = errors.New("server URL is required")
	ErrCredentialsRequired  = errors.New("client ID and client secret are required")
	ErrWrongInputModality   = errors.New("function has a different input modality")
	ErrWrongOutputModality  = errors.New("function has a different output modality")
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
)

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is an API error with status 401.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports whether err is an API error with status 403.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsConflict reports whether err is an API error with status 409.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func hasStatus(err error, status int) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}

	return false
}
