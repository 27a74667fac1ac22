package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"legal-indexer-be/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerateBatchNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		resp := ollamaEmbedResponse{}
		for range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float64{3, 4})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "")
	vectors, err := p.GenerateBatch(context.Background(), []string{"a", "b"}, TaskTypeRetrievalDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.InDelta(t, 0.6, vectors[0][0], 1e-6)
	assert.InDelta(t, 0.8, vectors[0][1], 1e-6)

	single, err := p.Generate(context.Background(), "query", TaskTypeRetrievalQuery)
	require.NoError(t, err)
	var norm float64
	for _, v := range single.Embedding.Values {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestOllamaGenerateBatchErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   string
		wantTries int32
	}{
		{
			name:      "unknown model stops immediately",
			status:    http.StatusNotFound,
			body:      `{"error":"model \"missing\" not found"}`,
			wantErr:   `status 404: model "missing" not found`,
			wantTries: 1,
		},
		{
			name:      "server error is retried",
			status:    http.StatusServiceUnavailable,
			body:      "loading model",
			wantErr:   "status 503: loading model",
			wantTries: 2,
		},
		{
			name:      "short batch",
			status:    http.StatusOK,
			body:      `{"embeddings":[[1,0]]}`,
			wantErr:   "1 embeddings for 2 inputs",
			wantTries: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tries atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tries.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			policy := resilience.NewPolicy(resilience.Config{MaxTries: 2, InitialInterval: time.Millisecond})
			p := NewRetryingProvider(NewOllamaProvider(server.URL, "missing"), policy)

			_, err := p.GenerateBatch(context.Background(), []string{"a", "b"}, "")
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Equal(t, tt.wantTries, tries.Load())
		})
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	assert.Equal(t, []float32{0, 0}, normalizeVector([]float32{0, 0}))
}
