package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/internal/config"
)

// setupTestEnv creates a writer rooted at a temporary layout
func setupTestEnv(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	return NewCSVWriter(paths, nil), paths
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, paths := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		wantPath string
		wantBOM  bool
		want     [][]string
	}{
		{
			name:     "report with BOM",
			filePath: "stats.csv",
			options: WriteOptions{
				Headers:   []string{"zone", "pickups"},
				Records:   [][]string{{"132", "10"}, {"138", "4"}},
				BOMPrefix: true,
			},
			wantPath: filepath.Join(paths.ReportsDir, "stats.csv"),
			wantBOM:  true,
			want:     [][]string{{"zone", "pickups"}, {"132", "10"}, {"138", "4"}},
		},
		{
			name:     "cache prefix resolves to cache dir",
			filePath: "cache/plain.csv",
			options: WriteOptions{
				Headers: []string{"a"},
				Records: [][]string{{`\N`}},
			},
			wantPath: filepath.Join(paths.CacheDir, "plain.csv"),
			want:     [][]string{{"a"}, {`\N`}},
		},
		{
			name:     "quoted commas",
			filePath: "quoted.csv",
			options: WriteOptions{
				Headers: []string{"zone"},
				Records: [][]string{{"Astoria, Queens"}},
			},
			wantPath: filepath.Join(paths.ReportsDir, "quoted.csv"),
			want:     [][]string{{"zone"}, {"Astoria, Queens"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))

			content, err := os.ReadFile(tt.wantPath)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(content, utf8BOM))
			assert.Equal(t, tt.want, readCSV(t, tt.wantPath))
		})
	}
}

func TestCSVWriter_AppendToCSV(t *testing.T) {
	writer, paths := setupTestEnv(t)

	require.NoError(t, writer.WriteSimpleCSV("runs.csv", []string{"run"}, [][]string{{"a"}}))
	require.NoError(t, writer.AppendToCSV("runs.csv", [][]string{{"b"}, {"c"}}))

	assert.Equal(t, [][]string{{"run"}, {"a"}, {"b"}, {"c"}}, readCSV(t, filepath.Join(paths.ReportsDir, "runs.csv")))
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	writer, _ := setupTestEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "stream.csv")

	stream, err := writer.CreateStreamWriter(path, []string{"x", "y"}, false)
	require.NoError(t, err)
	for _, rec := range [][]string{{"1", "2"}, {"3", "4"}} {
		require.NoError(t, stream.WriteRecord(rec))
	}
	assert.Equal(t, 2, stream.Rows())
	assert.Equal(t, path, stream.Path())
	require.NoError(t, stream.Close())

	assert.Equal(t, [][]string{{"x", "y"}, {"1", "2"}, {"3", "4"}}, readCSV(t, path))
}
