// Package nyckelclient constructs SDK clients.
//
// It lives apart from package nyckel so that the interface package stays
// free of transport dependencies.
package nyckelclient

import (
	"fmt"
	"strings"

	"github.com/nyckel/nyckel-go/internal/auth"
	"github.com/nyckel/nyckel-go/internal/client"
	"github.com/nyckel/nyckel-go/internal/constants"
	inthttp "github.com/nyckel/nyckel-go/internal/http"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

// New creates a client from the given configuration.
func New(config *nyckel.Config) (nyckel.Client, error) {
	if config == nil {
		config = &nyckel.Config{}
	}

	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, nyckel.ErrCredentialsRequired
	}

	serverURL := strings.TrimSuffix(config.ServerURL, "/")
	if serverURL == "" {
		serverURL = constants.DefaultServerURL
	}

	tokenManager := auth.NewTokenManagerForServer(serverURL, config.ClientID, config.ClientSecret)

	opts := []inthttp.Option{}

	if config.Logger != nil {
		opts = append(opts, inthttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, inthttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, inthttp.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 || config.RetryWaitMin > 0 || config.RetryWaitMax > 0 {
		retryMax := config.RetryMax
		if retryMax <= 0 {
			retryMax = constants.DefaultRetryMax
		}

		waitMin := config.RetryWaitMin
		if waitMin <= 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		waitMax := config.RetryWaitMax
		if waitMax <= 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		opts = append(opts, inthttp.WithRetryConfig(retryMax, waitMin, waitMax))
	}

	httpClient := inthttp.NewClient(serverURL, tokenManager, opts...)

	cache, err := nyckel.NewCacheFromConfig(config.Cache)
	if err != nil {
		return nil, fmt.Errorf("building lookup cache: %w", err)
	}

	return client.New(httpClient, cache, config.Logger, config.MaxConcurrentRequests), nil
}

// NewWithCredentials creates a client for the production host.
func NewWithCredentials(clientID, clientSecret string) (nyckel.Client, error) {
	return New(&nyckel.Config{ClientID: clientID, ClientSecret: clientSecret})
}
