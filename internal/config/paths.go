package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	RootDir    string
	DataDir    string
	CacheDir   string
	ReportsDir string
	FiguresDir string
	LogsDir    string

	ManifestFile string
}

// GetPaths returns the application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// PathsFor resolves the layout from configuration, falling back to the
// executable directory when no root is configured.
//
// Directory structure:
//
//	<root>/
//	  ├── data/
//	  │   ├── cache/     (df_taxi_YYYY_MM.csv + manifest.json)
//	  │   ├── reports/   (cleaned CSV, xlsx workbook, run PDF)
//	  │   └── figures/   (rendered plots)
//	  └── logs/
func PathsFor(cfg PathsConfig) (*Paths, error) {
	if cfg.Root == "" {
		paths, err := GetPaths()
		if err != nil {
			return nil, err
		}
		return paths.withOverrides(cfg), nil
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", cfg.Root, err)
	}
	return NewPaths(root).withOverrides(cfg), nil
}

// NewPaths builds the standard layout under root
func NewPaths(root string) *Paths {
	dataDir := filepath.Join(root, DefaultDataDir)
	cacheDir := filepath.Join(dataDir, DefaultCacheDir)

	return &Paths{
		RootDir:      root,
		DataDir:      dataDir,
		CacheDir:     cacheDir,
		ReportsDir:   filepath.Join(dataDir, DefaultReportsDir),
		FiguresDir:   filepath.Join(dataDir, DefaultFiguresDir),
		LogsDir:      filepath.Join(root, DefaultLogsDir),
		ManifestFile: filepath.Join(cacheDir, ManifestFileName),
	}
}

func (p *Paths) withOverrides(cfg PathsConfig) *Paths {
	if cfg.DataDir != "" && cfg.DataDir != DefaultDataDir {
		dataDir := cfg.DataDir
		if !filepath.IsAbs(dataDir) {
			dataDir = filepath.Join(p.RootDir, dataDir)
		}
		p.DataDir = dataDir
		p.CacheDir = filepath.Join(dataDir, DefaultCacheDir)
		p.ReportsDir = filepath.Join(dataDir, DefaultReportsDir)
		p.FiguresDir = filepath.Join(dataDir, DefaultFiguresDir)
		p.ManifestFile = filepath.Join(p.CacheDir, ManifestFileName)
	}
	if cfg.LogsDir != "" && cfg.LogsDir != DefaultLogsDir {
		if filepath.IsAbs(cfg.LogsDir) {
			p.LogsDir = cfg.LogsDir
		} else {
			p.LogsDir = filepath.Join(p.RootDir, cfg.LogsDir)
		}
	}
	return p
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.CacheDir,
		p.ReportsDir,
		p.FiguresDir,
		p.LogsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// CacheFile returns the cache file of one (year, month) extract
func (p *Paths) CacheFile(year, month int) string {
	return filepath.Join(p.CacheDir, fmt.Sprintf(CacheFilePattern, year, month))
}

// CleanedFile returns the cleaned export path of one period
func (p *Paths) CleanedFile(year, month int) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(CleanedFilePattern, year, month))
}

// WorkbookFile returns the analysis workbook path of one period
func (p *Paths) WorkbookFile(year, month int) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(WorkbookPattern, year, month))
}

// RunReportFile returns the PDF run report path of one period
func (p *Paths) RunReportFile(year, month int) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(RunReportPattern, year, month))
}

// StagesFile returns the stage removal report path of one period
func (p *Paths) StagesFile(year, month int) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf(StagesFilePattern, year, month))
}

// RunHistoryFile returns the CSV every processor run is appended to
func (p *Paths) RunHistoryFile() string {
	return filepath.Join(p.ReportsDir, RunHistoryFileName)
}

// FigureFile returns the path of a named figure
func (p *Paths) FigureFile(name string) string {
	return filepath.Join(p.FiguresDir, name)
}

// LogFile returns the path of a log file
func (p *Paths) LogFile(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved layout
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("root", p.RootDir),
			slog.String("data", p.DataDir),
			slog.String("cache", p.CacheDir),
			slog.String("reports", p.ReportsDir),
			slog.String("figures", p.FiguresDir),
			slog.String("logs", p.LogsDir),
		))
}
