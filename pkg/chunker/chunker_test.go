package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"legal-indexer-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleURL = "https://example.org/guides/protective-orders"

func sampleText() string {
	paragraph := "Under the Illinois Domestic Violence Act, a petitioner may seek an emergency order of protection. " +
		"The court must hold a hearing within fourteen days, and the respondent may appear with counsel."
	return strings.Repeat(paragraph+"\n\n\n\n", 20)
}

func TestChunkIsIdempotent(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	src := Source{URL: sampleURL, Title: "Protective orders", Type: entity.SourceTypeWebpage}
	first, err := c.Chunk(sampleText(), src)
	require.NoError(t, err)
	second, err := c.Chunk(sampleText(), src)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	require.NotEmpty(t, first)
	for i := range first {
		assert.Equal(t, first[i].ChunkId, second[i].ChunkId)
		assert.Equal(t, first[i].DocumentId, second[i].DocumentId)
	}
	assert.Equal(t, DocumentId(sampleURL), first[0].DocumentId)
}

func TestChunkMetadata(t *testing.T) {
	c, err := New(WithChunkSize(200), WithOverlap(50))
	require.NoError(t, err)

	chunks, err := c.Chunk(sampleText(), Source{URL: sampleURL, Title: "Protective orders", Type: entity.SourceTypePDF})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	seen := map[string]bool{}
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Metadata.ChunkIndex)
		assert.Equal(t, len(chunks), ch.Metadata.TotalChunks)
		assert.Equal(t, utf8.RuneCountInString(ch.Text), ch.Metadata.CharCount)
		assert.Equal(t, len(strings.Fields(ch.Text)), ch.Metadata.WordCount)
		assert.Equal(t, entity.SourceTypePDF, ch.Metadata.Type)
		assert.Equal(t, sampleURL, ch.Metadata.URL)
		assert.LessOrEqual(t, ch.Metadata.CharCount, 200)
		assert.Equal(t, ChunkId(sampleURL, i), ch.ChunkId)
		assert.False(t, seen[ch.ChunkId], "chunk ids must be unique")
		seen[ch.ChunkId] = true
	}
}

func TestChunkEdgeCases(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	chunks, err := c.Chunk("   \n\n\n  ", Source{URL: sampleURL})
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = c.Chunk("some text", Source{})
	assert.ErrorIs(t, err, ErrMissingURL)
}

func TestNewRejectsOverlapNotBelowSize(t *testing.T) {
	_, err := New(WithChunkSize(100), WithOverlap(100))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "blank line runs", input: "a\n\n\n\nb", expected: "a\n\nb"},
		{name: "blank lines with spaces", input: "a\n  \n \n\nb", expected: "a\n\nb"},
		{name: "single blank line kept", input: "a\n\nb", expected: "a\n\nb"},
		{name: "space runs", input: "a     b  c", expected: "a b c"},
		{name: "trim", input: "  \n a b \n ", expected: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestIdsDependOnURLAndIndex(t *testing.T) {
	assert.NotEqual(t, DocumentId("https://a.example"), DocumentId("https://b.example"))
	assert.NotEqual(t, ChunkId(sampleURL, 0), ChunkId(sampleURL, 1))
	assert.Len(t, DocumentId(sampleURL), 64)
}
