package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("PIPELINE_CONCURRENCY", "")

	cfg := Load()

	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 300, cfg.Chunking.Overlap)
	assert.Equal(t, 1, cfg.Pipeline.Concurrency)
	assert.Equal(t, 1000, cfg.Retrieval.SemanticCeiling)
	assert.InDelta(t, 0.3, cfg.Retrieval.DefaultThreshold, 1e-9)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("COLLABORATOR_CALL_TIMEOUT", "5s")
	t.Setenv("NOTIFY_EMAILS", "a@example.com, b@example.com,,")

	cfg := Load()

	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.CallTimeout)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.App.NotifyEmails)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "overlap equal to size", mutate: func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, wantErr: true},
		{name: "overlap above size", mutate: func(c *Config) { c.Chunking.Overlap = 2000 }, wantErr: true},
		{name: "negative overlap", mutate: func(c *Config) { c.Chunking.Overlap = -1 }, wantErr: true},
		{name: "zero size", mutate: func(c *Config) { c.Chunking.Size = 0 }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.Pipeline.Concurrency = 0 }, wantErr: true},
		{name: "threshold zero", mutate: func(c *Config) { c.Retrieval.DefaultThreshold = 0 }, wantErr: true},
		{name: "threshold one", mutate: func(c *Config) { c.Retrieval.DefaultThreshold = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Chunking:  ChunkingConfig{Size: 1000, Overlap: 300},
				Retrieval: RetrievalConfig{SemanticCeiling: 1000, DefaultThreshold: 0.3},
				Pipeline:  PipelineConfig{Concurrency: 1, MaxRetries: 3},
				Ai:        AIConfig{EmbeddingBatchSize: 100},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
