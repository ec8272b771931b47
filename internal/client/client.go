// Package client implements the SDK operations on top of the HTTP core.
package client

import (
	"github.com/nyckel/nyckel-go/internal/constants"
	inthttp "github.com/nyckel/nyckel-go/internal/http"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// Client bundles the resource handlers. It implements nyckel.Client.
type Client struct {
	http        *inthttp.Client
	cache       nyckel.Cache
	logger      nyckel.Logger
	concurrency int

	functions *functionsClient
	labels    *labelsClient
	fields    *fieldsClient
	samples   *samplesClient
	invoke    *invokeClient
}

// New creates a client over the given HTTP core. A nil cache disables
// lookup-map caching, a nil logger disables logging.
func New(httpClient *inthttp.Client, cache nyckel.Cache, logger nyckel.Logger, concurrency int) *Client {
	if cache == nil {
		cache = nyckel.NewNoOpCache()
	}

	if concurrency <= 0 {
		concurrency = constants.MaxConcurrentRequests
	}

	c := &Client{
		http:        httpClient,
		cache:       cache,
		logger:      logger,
		concurrency: concurrency,
	}

	c.functions = &functionsClient{client: c}
	c.labels = &labelsClient{client: c}
	c.fields = &fieldsClient{client: c}
	c.samples = &samplesClient{client: c}
	c.invoke = &invokeClient{client: c}

	return c
}

// Functions implements nyckel.Client.
func (c *Client) Functions() nyckel.FunctionsClient { return c.functions }

// Labels implements nyckel.Client.
func (c *Client) Labels() nyckel.LabelsClient { return c.labels }

// Fields implements nyckel.Client.
func (c *Client) Fields() nyckel.FieldsClient { return c.fields }

// Samples implements nyckel.Client.
func (c *Client) Samples() nyckel.SamplesClient { return c.samples }

// Invoke implements nyckel.Client.
func (c *Client) Invoke() nyckel.InvokeClient { return c.invoke }

func (c *Client) logWarn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}

func (c *Client) logInfo(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, fields)
	}
}
