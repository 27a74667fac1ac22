package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/pkg/ai/analyzer"
	"legal-indexer-be/pkg/embedding"
	"legal-indexer-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "gemma:2b"
	defaultEmbedModel  = "nomic-embed-text"
)

func ollamaURL(t *testing.T) string {
	t.Helper()
	if os.Getenv("OLLAMA_INTEGRATION") == "" {
		t.Skip("Skipping Ollama test: OLLAMA_INTEGRATION not set")
	}
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		return url
	}
	return defaultOllamaURL
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestOllamaEmbeddingsAreUnitLength(t *testing.T) {
	url := ollamaURL(t)
	provider := embedding.NewOllamaProvider(url, envOr("EMBEDDING_MODEL", defaultEmbedModel))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	vectors, err := provider.GenerateBatch(ctx, []string{
		"The tenant must give thirty days notice.",
		"Protective orders under the Illinois Domestic Violence Act.",
	}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	for _, v := range vectors {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, sum, 1e-3)
	}
}

func TestOllamaClassifiesReference(t *testing.T) {
	url := ollamaURL(t)
	provider := ollama.NewOllamaProvider(url, envOr("LLM_MODEL", defaultOllamaModel))
	a := analyzer.NewAnalyzer(provider, analyzer.Config{}, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	accepted, err := a.ClassifyReference(ctx, "Illinois Domestic Violence Act",
		"Orders of protection are issued under the Illinois Domestic Violence Act of 1986, 750 ILCS 60.")
	require.NoError(t, err)
	t.Logf("reference accepted: %v", accepted)

	analysis, err := a.AnalyzeImpact(ctx, "Illinois Domestic Violence Act", "Section 214 was renumbered",
		"Orders of protection are issued under Section 214 of the Illinois Domestic Violence Act.")
	require.NoError(t, err)
	assert.NotNil(t, analysis.Sections)
}
