package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"taxipulse/pkg/contracts/domain"
)

// cacheFileName matches config.CacheFilePattern
var cacheFileName = regexp.MustCompile(`^df_taxi_(\d{4})_(\d{2})\.csv$`)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// CachedPeriod is a cache file together with the period it holds
type CachedPeriod struct {
	domain.Period
	File FileInfo `json:"file"`
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindFilesByPattern finds regular files matching a glob pattern, sorted by name
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	matches, err := filepath.Glob(filepath.Join(fullPath, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FindCachedPeriods lists the cache files in dir, oldest period first.
// Names that do not follow the cache pattern are ignored.
func (d *Discovery) FindCachedPeriods(dir string) ([]CachedPeriod, error) {
	files, err := d.FindFilesByPattern(dir, "df_taxi_*.csv")
	if err != nil {
		return nil, err
	}

	var periods []CachedPeriod
	for _, f := range files {
		m := cacheFileName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			continue
		}
		periods = append(periods, CachedPeriod{Period: domain.Period{Year: year, Month: month}, File: f})
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Start().Before(periods[j].Start())
	})
	return periods, nil
}
