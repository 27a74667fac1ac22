package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	lines := `{"level":"INFO","timestamp":"2026-01-01T00:00:00Z","message":"first","module":"JobService"}
not json
{"level":"ERROR","timestamp":"2026-01-01T00:00:01Z","message":"second","module":"FlagPipeline"}
{"level":"INFO","timestamp":"2026-01-01T00:00:02Z","message":"third","module":"JobService"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	l := &ZapLogger{filePath: path}

	tests := []struct {
		name     string
		level    string
		limit    int
		offset   int
		expected []string
	}{
		{name: "newest first", limit: 10, expected: []string{"third", "second", "first"}},
		{name: "level filter", level: "INFO", limit: 10, expected: []string{"third", "first"}},
		{name: "level filter ignores case", level: "error", limit: 10, expected: []string{"second"}},
		{name: "zero limit", limit: 0, expected: []string{}},
		{name: "paged", limit: 1, offset: 1, expected: []string{"second"}},
		{name: "offset past end", limit: 5, offset: 9, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := l.GetLogs(tt.level, tt.limit, tt.offset)
			require.NoError(t, err)

			got := make([]string, 0, len(entries))
			for _, e := range entries {
				assert.NotEmpty(t, e.Id)
				got = append(got, e.Message)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGetLogsMissingFile(t *testing.T) {
	l := &ZapLogger{filePath: filepath.Join(t.TempDir(), "missing.log")}
	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
