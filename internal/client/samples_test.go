package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
)

func writeFunction(w http.ResponseWriter, id string, input nyckel.InputModality, output nyckel.OutputModality) {
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id": "function_" + id, "name": "test", "input": string(input), "output": string(output),
	})
}

func TestSamplesClient_Create(t *testing.T) {
	t.Parallel()

	t.Run("posts annotated text samples and collects stripped IDs", func(t *testing.T) {
		t.Parallel()

		var posted atomic.Int32

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/v1/functions/f1" && r.Method == http.MethodGet:
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

			case r.URL.Path == "/v1/functions/f1/labels" && r.Method == http.MethodGet:
				_, _ = w.Write([]byte(`[{"id":"label_l1","name":"Positive"}]`))

			case r.URL.Path == "/v1/functions/f1/samples" && r.Method == http.MethodPost:
				var body map[string]interface{}

				err := json.NewDecoder(r.Body).Decode(&body)
				require.NoError(t, err)

				annotation, ok := body["annotation"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "Positive", annotation["labelName"])

				n := posted.Add(1)
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "sample_s" + string(rune('0'+n))})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		ids, err := client.Samples().Create(context.Background(), "f1", []nyckel.Sample{
			nyckel.NewAnnotatedTextSample("great stuff", "Positive"),
			nyckel.NewAnnotatedTextSample("love it", "Positive"),
		})
		require.NoError(t, err)
		assert.Len(t, ids, 2)

		for _, id := range ids {
			assert.NotContains(t, id, "sample_")
		}
	})

	t.Run("409 duplicates report the existing sample ID", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/v1/functions/f1" && r.Method == http.MethodGet:
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

			case r.URL.Path == "/v1/functions/f1/samples" && r.Method == http.MethodPost:
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"existingSampleId": "sample_dup"})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		ids, err := client.Samples().Create(context.Background(), "f1", []nyckel.Sample{
			nyckel.NewTextSample("seen this before"),
		})
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, "dup", ids[0])
	})

	t.Run("a rejected sample is omitted without failing the batch", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/v1/functions/f1" && r.Method == http.MethodGet:
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

			case r.URL.Path == "/v1/functions/f1/samples" && r.Method == http.MethodPost:
				var body map[string]interface{}

				err := json.NewDecoder(r.Body).Decode(&body)
				require.NoError(t, err)

				if body["data"] == "broken" {
					http.Error(w, "field type conflict", http.StatusBadRequest)

					return
				}

				data, ok := body["data"].(string)
				require.True(t, ok)

				_ = json.NewEncoder(w).Encode(map[string]string{"id": "sample_" + data})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		ids, err := client.Samples().Create(context.Background(), "f1", []nyckel.Sample{
			nyckel.NewTextSample("first"),
			nyckel.NewTextSample("broken"),
			nyckel.NewTextSample("third"),
		})
		require.NoError(t, err)

		// Two of three made it; the 400 is logged and dropped.
		require.Len(t, ids, 2)
		assert.ElementsMatch(t, []string{"first", "third"}, ids)
	})

	t.Run("creates labels referenced by annotations first", func(t *testing.T) {
		t.Parallel()

		store := &labelStore{}

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/v1/functions/f1" && r.Method == http.MethodGet:
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

			case r.URL.Path == "/v1/functions/f1/labels":
				store.handle(t, w, r)

			case r.URL.Path == "/v1/functions/f1/samples" && r.Method == http.MethodPost:
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "sample_s1"})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		_, err := client.Samples().Create(context.Background(), "f1", []nyckel.Sample{
			nyckel.NewAnnotatedTextSample("fresh label", "BrandNew"),
		})
		require.NoError(t, err)

		require.Len(t, store.created, 1)
		assert.Equal(t, "BrandNew", store.created[0]["name"])
	})

	t.Run("tagging functions post annotation lists to the v0.9 surface", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/v1/functions/f1" && r.Method == http.MethodGet:
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputTags)

			case r.URL.Path == "/v1/functions/f1/labels" && r.Method == http.MethodGet:
				_, _ = w.Write([]byte(`[{"id":"label_l1","name":"Urgent"},{"id":"label_l2","name":"Billing"}]`))

			case r.URL.Path == "/v0.9/functions/f1/samples" && r.Method == http.MethodPost:
				var body map[string]interface{}

				err := json.NewDecoder(r.Body).Decode(&body)
				require.NoError(t, err)

				tags, ok := body["annotation"].([]interface{})
				require.True(t, ok)
				require.Len(t, tags, 2)

				first, ok := tags[0].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "Urgent", first["labelName"])
				assert.Equal(t, true, first["present"])

				second, ok := tags[1].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "Billing", second["labelName"])
				assert.Equal(t, false, second["present"])

				_ = json.NewEncoder(w).Encode(map[string]string{"id": "sample_s1"})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		ids, err := client.Samples().Create(context.Background(), "f1", []nyckel.Sample{
			{
				Data: nyckel.TextData("invoice overdue"),
				TagAnnotations: []nyckel.TagAnnotation{
					{LabelName: "Urgent", Present: true},
					{LabelName: "Billing", Present: false},
				},
			},
		})
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, "s1", ids[0])
	})

	t.Run("wrong modality fails before any upload", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/functions/f1" {
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

				return
			}

			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}))

		_, err := client.Samples().Create(context.Background(), "f1", []nyckel.Sample{
			nyckel.NewImageSample("https://example.com/cat.jpg"),
		})
		assert.ErrorIs(t, err, nyckel.ErrWrongInputModality)
	})

	t.Run("tabular samples need their fields created first", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/functions/f1":
				writeFunction(w, "f1", nyckel.InputTabular, nyckel.OutputClassification)
			case "/v1/functions/f1/fields":
				_, _ = w.Write([]byte(`[{"id":"field_x1","name":"Name","type":"Text"}]`))
			case "/v1/functions/f1/labels":
				_, _ = w.Write([]byte(`[]`))
			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		_, err := client.Samples().Create(context.Background(), "f1", []nyckel.Sample{
			nyckel.NewTabularSample(nyckel.TabularData{"Name": "Ada", "Role": "Engineer"}),
		})
		assert.ErrorIs(t, err, nyckel.ErrFieldNotCreated)
	})

	t.Run("tabular rows are rekeyed to field IDs", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/v1/functions/f1" && r.Method == http.MethodGet:
				writeFunction(w, "f1", nyckel.InputTabular, nyckel.OutputClassification)

			case r.URL.Path == "/v1/functions/f1/fields":
				_, _ = w.Write([]byte(`[{"id":"field_x1","name":"Name","type":"Text"}]`))

			case r.URL.Path == "/v1/functions/f1/samples" && r.Method == http.MethodPost:
				var body map[string]interface{}

				err := json.NewDecoder(r.Body).Decode(&body)
				require.NoError(t, err)

				data, ok := body["data"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "Ada", data["x1"])
				assert.NotContains(t, data, "Name")

				_ = json.NewEncoder(w).Encode(map[string]string{"id": "sample_s1"})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		ids, err := client.Samples().Create(context.Background(), "f1", []nyckel.Sample{
			nyckel.NewTabularSample(nyckel.TabularData{"Name": "Ada"}),
		})
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))

		ids, err := client.Samples().Create(context.Background(), "f1", nil)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestSamplesClient_Get(t *testing.T) {
	t.Parallel()

	t.Run("retries a 404 once before giving up", func(t *testing.T) {
		t.Parallel()

		var reads atomic.Int32

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/functions/f1":
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

			case "/v1/functions/f1/labels":
				_, _ = w.Write([]byte(`[{"id":"label_l1","name":"Positive"}]`))

			case "/v1/functions/f1/samples/s1":
				if reads.Add(1) == 1 {
					http.Error(w, "not found", http.StatusNotFound)

					return
				}

				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"id":         "sample_s1",
					"data":       "hello",
					"annotation": map[string]string{"labelId": "label_l1"},
				})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		sample, err := client.Samples().Get(context.Background(), "f1", "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", sample.ID)
		assert.Equal(t, nyckel.TextData("hello"), sample.Data)
		require.NotNil(t, sample.Annotation)
		assert.Equal(t, "Positive", sample.Annotation.LabelName)
		assert.Equal(t, int32(2), reads.Load())
	})
}

func TestSamplesClient_List(t *testing.T) {
	t.Parallel()

	t.Run("resolves label IDs to names", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/functions/f1":
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

			case "/v1/functions/f1/labels":
				_, _ = w.Write([]byte(`[{"id":"label_l1","name":"Positive"},{"id":"label_l2","name":"Negative"}]`))

			case "/v1/functions/f1/samples":
				assert.Equal(t, "1000", r.URL.Query().Get("batchSize"))

				_ = json.NewEncoder(w).Encode([]map[string]interface{}{
					{
						"id":         "sample_s1",
						"data":       "great",
						"annotation": map[string]string{"labelId": "label_l1"},
						"prediction": map[string]interface{}{"labelId": "label_l2", "confidence": 0.9},
					},
					{"id": "sample_s2", "data": "meh"},
				})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		samples, err := client.Samples().List(context.Background(), "f1", nil)
		require.NoError(t, err)
		require.Len(t, samples, 2)

		assert.Equal(t, "Positive", samples[0].Annotation.LabelName)
		assert.Equal(t, "Negative", samples[0].Prediction.LabelName)
		assert.InDelta(t, 0.9, samples[0].Prediction.Confidence, 0.0001)
		assert.Nil(t, samples[1].Annotation)
	})

	t.Run("tag annotations resolve each label ID to a name", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/functions/f1":
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputTags)

			case "/v1/functions/f1/labels":
				_, _ = w.Write([]byte(`[{"id":"label_l1","name":"Urgent"},{"id":"label_l2","name":"Billing"}]`))

			case "/v0.9/functions/f1/samples":
				_ = json.NewEncoder(w).Encode([]map[string]interface{}{
					{
						"id":   "sample_s1",
						"data": "invoice overdue",
						"annotation": []map[string]interface{}{
							{"labelId": "label_l1", "present": true},
							{"labelId": "label_l2", "present": false},
						},
					},
				})

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		samples, err := client.Samples().List(context.Background(), "f1", nil)
		require.NoError(t, err)
		require.Len(t, samples, 1)

		assert.Nil(t, samples[0].Annotation)
		require.Len(t, samples[0].TagAnnotations, 2)
		assert.Equal(t, nyckel.TagAnnotation{LabelName: "Urgent", Present: true}, samples[0].TagAnnotations[0])
		assert.Equal(t, nyckel.TagAnnotation{LabelName: "Billing", Present: false}, samples[0].TagAnnotations[1])
	})

	t.Run("filter narrows by label and sorts by newest", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/functions/f1":
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

			case "/v1/functions/f1/labels":
				_, _ = w.Write([]byte(`[]`))

			case "/v1/functions/f1/samples":
				assert.Equal(t, "l1", r.URL.Query().Get("annotationLabelId"))
				assert.Equal(t, "creation", r.URL.Query().Get("sortBy"))
				assert.Equal(t, "descending", r.URL.Query().Get("sortOrder"))

				_, _ = w.Write([]byte(`[]`))

			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))

		_, err := client.Samples().List(context.Background(), "f1", &nyckel.SampleFilter{
			AnnotationLabelID: "label_l1",
			SortByNewestFirst: true,
		})
		require.NoError(t, err)
	})
}

func TestSamplesClient_UpdateAnnotation(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		method string
		body   map[string]string
	)

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/functions/f1":
			writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

		case "/v1/functions/f1/samples/s1/annotation":
			mu.Lock()
			method = r.Method

			if r.Method == http.MethodPut {
				_ = json.NewDecoder(r.Body).Decode(&body)
			}
			mu.Unlock()

			w.WriteHeader(http.StatusOK)

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	err := client.Samples().UpdateAnnotation(context.Background(), "f1", "s1", &nyckel.Annotation{LabelName: "Positive"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "Positive", body["labelName"])

	err = client.Samples().UpdateAnnotation(context.Background(), "f1", "s1", nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
}

func TestSamplesClient_Delete(t *testing.T) {
	t.Parallel()

	t.Run("empty input issues no requests", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))

		require.NoError(t, client.Samples().Delete(context.Background(), "f1", nil))
	})

	t.Run("deletes each sample", func(t *testing.T) {
		t.Parallel()

		var deleted sync.Map

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/functions/f1" {
				writeFunction(w, "f1", nyckel.InputText, nyckel.OutputClassification)

				return
			}

			assert.Equal(t, http.MethodDelete, r.Method)
			deleted.Store(r.URL.Path, true)
			w.WriteHeader(http.StatusOK)
		}))

		err := client.Samples().Delete(context.Background(), "f1", []string{"sample_a", "b"})
		require.NoError(t, err)

		_, ok := deleted.Load("/v1/functions/f1/samples/a")
		assert.True(t, ok)
		_, ok = deleted.Load("/v1/functions/f1/samples/b")
		assert.True(t, ok)
	})
}
