package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inthttp "github.com/nyckel/nyckel-go/internal/http"
	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(inthttp.NewClient(server.URL, nil), nil, nil, 10), server
}

func TestFunctionsClient_Create(t *testing.T) {
	t.Parallel()

	var reads atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/functions":
			var body map[string]string

			err := json.NewDecoder(r.Body).Decode(&body)
			require.NoError(t, err)
			assert.Equal(t, "IsToxic", body["name"])
			assert.Equal(t, "Text", body["input"])
			assert.Equal(t, "Classification", body["output"])

			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "function_new1", "name": "IsToxic", "input": "Text", "output": "Classification",
			})

		case r.Method == http.MethodGet && r.URL.Path == "/v1/functions/new1":
			// Fresh functions lag behind their create for a moment.
			if reads.Add(1) < 3 {
				http.Error(w, "not found", http.StatusNotFound)

				return
			}

			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "function_new1", "name": "IsToxic", "input": "Text", "output": "Classification",
			})

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	fn, err := client.Functions().Create(context.Background(), "IsToxic", nyckel.InputText, nyckel.OutputClassification)
	require.NoError(t, err)
	assert.Equal(t, "new1", fn.ID)
	assert.Equal(t, nyckel.InputText, fn.Input)
	assert.GreaterOrEqual(t, reads.Load(), int32(3))
}

func TestFunctionsClient_Get(t *testing.T) {
	t.Parallel()

	t.Run("strips the ID prefix in the response", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/functions/f1", r.URL.Path)

			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "function_f1", "name": "IsToxic", "input": "Text", "output": "Classification",
			})
		}))

		fn, err := client.Functions().Get(context.Background(), "function_f1")
		require.NoError(t, err)
		assert.Equal(t, "f1", fn.ID)
	})

	t.Run("401 means bad credentials", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))

		_, err := client.Functions().Get(context.Background(), "f1")
		assert.ErrorIs(t, err, nyckel.ErrInvalidAccessToken)
		assert.True(t, nyckel.IsUnauthorized(err))
	})

	t.Run("403 means no access to this function", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))

		_, err := client.Functions().Get(context.Background(), "f1")
		assert.ErrorIs(t, err, nyckel.ErrInsufficientAccess)
		assert.True(t, nyckel.IsForbidden(err))
	})

	t.Run("404 means the function does not exist", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))

		_, err := client.Functions().Get(context.Background(), "f1")
		assert.ErrorIs(t, err, nyckel.ErrFunctionNotFound)

		// The underlying API error stays in the chain alongside the sentinel.
		assert.True(t, nyckel.IsNotFound(err))
	})
}

func TestFunctionsClient_Metrics(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0.9/functions/f1/metrics", r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"isTraining":           true,
			"sampleCount":          120,
			"predictionCount":      80,
			"annotatedLabelCounts": map[string]int{"label_a": 60, "label_b": 60},
		})
	}))

	metrics, err := client.Functions().Metrics(context.Background(), "f1")
	require.NoError(t, err)
	assert.True(t, metrics.IsTraining)
	assert.Equal(t, 120, metrics.SampleCount)
	assert.Equal(t, 80, metrics.PredictionCount)
	assert.Len(t, metrics.AnnotatedLabelCounts, 2)
}

func TestFunctionsClient_IsTrained(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		metrics map[string]interface{}
		state   string
		want    bool
	}{
		{
			name:    "caught up and settled",
			metrics: map[string]interface{}{"isTraining": false, "sampleCount": 10, "predictionCount": 10},
			state:   "Browsing",
			want:    true,
		},
		{
			name:    "still training",
			metrics: map[string]interface{}{"isTraining": true, "sampleCount": 10, "predictionCount": 10},
			state:   "Browsing",
			want:    false,
		},
		{
			name:    "predictions lag samples",
			metrics: map[string]interface{}{"isTraining": false, "sampleCount": 10, "predictionCount": 7},
			state:   "Tuning",
			want:    false,
		},
		{
			name:    "model state not settled",
			metrics: map[string]interface{}{"isTraining": false, "sampleCount": 10, "predictionCount": 10},
			state:   "Training",
			want:    false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/v0.9/functions/f1/metrics":
					_ = json.NewEncoder(w).Encode(tc.metrics)
				case "/v0.9/functions/f1":
					_ = json.NewEncoder(w).Encode(map[string]string{"state": tc.state})
				default:
					t.Errorf("unexpected request: %s", r.URL.Path)
				}
			}))

			trained, err := client.Functions().IsTrained(context.Background(), "f1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, trained)
		})
	}
}
