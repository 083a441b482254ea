package files

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"taxipulse/internal/config"
	"taxipulse/internal/exporter"
	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts"
	"taxipulse/pkg/contracts/domain"
)

// Cache verification errors
var (
	ErrNotCached        = errors.New("period not cached")
	ErrChecksumMismatch = errors.New("cache checksum mismatch")
)

// ManifestEntry describes one cache file
type ManifestEntry struct {
	File      string    `json:"file"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Rows      int       `json:"rows"`
	Fleets    []string  `json:"fleets"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Manifest indexes the cache directory
type Manifest struct {
	Version     string                   `json:"version"`
	Entries     map[string]ManifestEntry `json:"entries"`
	LastUpdated time.Time                `json:"last_updated"`
}

// CacheManager memoizes raw tables per period
type CacheManager struct {
	mu        sync.Mutex
	paths     *config.Paths
	manager   *Manager
	discovery *Discovery
	trips     *exporter.TripExporter
	logger    *slog.Logger
}

// NewCacheManager creates a cache manager over the configured cache directory
func NewCacheManager(paths *config.Paths, logger *slog.Logger) *CacheManager {
	return &CacheManager{
		paths:     paths,
		manager:   NewManager(paths),
		discovery: NewDiscovery(paths.RootDir),
		trips:     exporter.NewTripExporter(paths, logger),
		logger:    infrastructure.WithComponent(logger, "cache"),
	}
}

func manifestKey(p domain.Period) string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Get returns the cached table of period loaded for fleets. A missing or
// corrupted file is a miss, and so is a file written for another fleet set;
// only an unreadable verified file is an error.
func (c *CacheManager) Get(ctx context.Context, period domain.Period, fleets []domain.Fleet) (domain.RawTable, bool, error) {
	path := c.paths.CacheFile(period.Year, period.Month)
	if !c.manager.FileExists(path) {
		c.logger.DebugContext(ctx, "Cache miss", slog.String("file", filepath.Base(path)))
		return domain.RawTable{}, false, nil
	}

	if err := c.Verify(period); err != nil {
		c.logger.WarnContext(ctx, "Ignoring cache file",
			slog.String("file", filepath.Base(path)),
			slog.String("reason", err.Error()))
		return domain.RawTable{}, false, nil
	}

	entry, _, err := c.Entry(period)
	if err != nil {
		return domain.RawTable{}, false, err
	}
	if !sameFleets(entry.Fleets, fleets) {
		c.logger.InfoContext(ctx, "Cache miss, fleet set differs",
			slog.String("file", filepath.Base(path)),
			slog.Any("cached", entry.Fleets),
			slog.Any("requested", fleetNames(fleets)))
		return domain.RawTable{}, false, nil
	}

	table, err := c.trips.ReadCache(path)
	if err != nil {
		return domain.RawTable{}, false, fmt.Errorf("failed to read cache %s: %w", path, err)
	}

	c.logger.InfoContext(ctx, "Cache hit",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", table.Len()))
	return table, true, nil
}

// Put writes table as the cache file of period and records it in the manifest
func (c *CacheManager) Put(ctx context.Context, period domain.Period, table domain.RawTable, fleets []domain.Fleet) error {
	path := c.paths.CacheFile(period.Year, period.Month)

	rows, err := c.trips.WriteCache(path, table)
	if err != nil {
		return fmt.Errorf("failed to write cache %s: %w", path, err)
	}

	sum, size, err := checksum(path)
	if err != nil {
		return err
	}

	names := fleetNames(fleets)

	c.mu.Lock()
	defer c.mu.Unlock()

	manifest, err := c.loadManifest()
	if err != nil {
		return err
	}
	manifest.Entries[manifestKey(period)] = ManifestEntry{
		File:      filepath.Base(path),
		Year:      period.Year,
		Month:     period.Month,
		Rows:      rows,
		Fleets:    names,
		Checksum:  sum,
		Size:      size,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.saveManifest(manifest); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Cache written",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", rows),
		slog.String("checksum", sum))
	return nil
}

// Verify recomputes the checksum of period's cache file and compares it with
// the manifest
func (c *CacheManager) Verify(period domain.Period) error {
	c.mu.Lock()
	manifest, err := c.loadManifest()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	entry, ok := manifest.Entries[manifestKey(period)]
	if !ok {
		return ErrNotCached
	}

	sum, _, err := checksum(c.paths.CacheFile(period.Year, period.Month))
	if err != nil {
		return err
	}
	if sum != entry.Checksum {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, entry.File)
	}
	return nil
}

// Entry returns the manifest entry of period
func (c *CacheManager) Entry(period domain.Period) (ManifestEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	manifest, err := c.loadManifest()
	if err != nil {
		return ManifestEntry{}, false, err
	}
	entry, ok := manifest.Entries[manifestKey(period)]
	return entry, ok, nil
}

// Periods lists the cache files present on disk
func (c *CacheManager) Periods() ([]CachedPeriod, error) {
	return c.discovery.FindCachedPeriods(c.paths.CacheDir)
}

// Invalidate removes period's cache file and manifest entry
func (c *CacheManager) Invalidate(period domain.Period) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.manager.DeleteFile(c.paths.CacheFile(period.Year, period.Month)); err != nil {
		return err
	}
	manifest, err := c.loadManifest()
	if err != nil {
		return err
	}
	delete(manifest.Entries, manifestKey(period))
	return c.saveManifest(manifest)
}

func (c *CacheManager) loadManifest() (*Manifest, error) {
	data, err := c.manager.ReadFile(c.paths.ManifestFile)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{Version: contracts.DataFormatVersion, Entries: map[string]ManifestEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if manifest.Entries == nil {
		manifest.Entries = map[string]ManifestEntry{}
	}
	return &manifest, nil
}

func (c *CacheManager) saveManifest(manifest *Manifest) error {
	manifest.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := c.manager.WriteFile(c.paths.ManifestFile, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// fleetNames returns the sorted, de-duplicated names of fleets
func fleetNames(fleets []domain.Fleet) []string {
	names := make([]string, 0, len(fleets))
	for _, f := range fleets {
		names = append(names, string(f))
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// sameFleets reports whether a manifest fleet list names the same set as fleets
func sameFleets(cached []string, fleets []domain.Fleet) bool {
	want := slices.Clone(cached)
	slices.Sort(want)
	return slices.Equal(slices.Compact(want), fleetNames(fleets))
}

// checksum returns the hex BLAKE2b-256 digest and size of the file at path
func checksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
