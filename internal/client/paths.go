package client

import (
	"strings"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// API versions. Classification resources live under v1; tagging functions
// expose their samples and invoke endpoints under the older v0.9 surface.
const (
	apiV1  = "v1"
	apiV09 = "v0.9"
)

// functionPath builds an endpoint path under a function resource.
func functionPath(version, functionID string, parts ...string) string {
	segments := []string{"", version, "functions", nyckel.StripIDPrefix(functionID)}
	segments = append(segments, parts...)

	return strings.Join(segments, "/")
}

// sampleAPIVersion picks the API surface for sample and invoke endpoints
// based on the function's output modality.
func sampleAPIVersion(output nyckel.OutputModality) string {
	if output == nyckel.OutputTags {
		return apiV09
	}

	return apiV1
}
