package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	root := t.TempDir()
	paths := NewPaths(root)

	assert.Equal(t, root, paths.RootDir)
	assert.Equal(t, filepath.Join(root, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(root, "data", "cache"), paths.CacheDir)
	assert.Equal(t, filepath.Join(root, "data", "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(root, "data", "figures"), paths.FiguresDir)
	assert.Equal(t, filepath.Join(root, "logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(root, "data", "cache", "manifest.json"), paths.ManifestFile)
}

func TestPathFileNames(t *testing.T) {
	paths := NewPaths("/srv/taxi")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "cache file", got: paths.CacheFile(2019, 1), want: "/srv/taxi/data/cache/df_taxi_2019_01.csv"},
		{name: "cleaned file", got: paths.CleanedFile(2020, 12), want: "/srv/taxi/data/reports/cleaned_2020_12.csv"},
		{name: "workbook", got: paths.WorkbookFile(2019, 3), want: "/srv/taxi/data/reports/analysis_2019_03.xlsx"},
		{name: "run report", got: paths.RunReportFile(2019, 3), want: "/srv/taxi/data/reports/run_2019_03.pdf"},
		{name: "figure", got: paths.FigureFile("heatmap.svg"), want: "/srv/taxi/data/figures/heatmap.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), tt.got)
		})
	}
}

func TestPathsForOverrides(t *testing.T) {
	root := t.TempDir()

	paths, err := PathsFor(PathsConfig{Root: root, DataDir: "store", LogsDir: "var/log"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "store"), paths.DataDir)
	assert.Equal(t, filepath.Join(root, "store", "cache"), paths.CacheDir)
	assert.Equal(t, filepath.Join(root, "var", "log"), paths.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	paths := NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.CacheDir, paths.ReportsDir, paths.FiguresDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.csv")))
}
