package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// ZoneLoader fetches the zone lookup table
type ZoneLoader struct {
	fetcher Fetcher
	url     string
	logger  *slog.Logger
}

// NewZoneLoader creates a zone loader for url
func NewZoneLoader(fetcher Fetcher, url string, logger *slog.Logger) *ZoneLoader {
	return &ZoneLoader{
		fetcher: fetcher,
		url:     url,
		logger:  infrastructure.WithComponent(logger, "zone_loader"),
	}
}

// Load fetches and parses the lookup. The service_zone column is dropped.
func (z *ZoneLoader) Load(ctx context.Context) ([]domain.Zone, error) {
	body, err := z.fetcher.Fetch(ctx, z.url)
	if err != nil {
		z.logger.ErrorContext(ctx, "Could not access zone lookup",
			slog.String("url", z.url),
			slog.String("error", err.Error()))
		return nil, err
	}
	defer body.Close()

	zones, err := ParseZones(body)
	if err != nil {
		return nil, fmt.Errorf("parse zone lookup: %w", err)
	}

	z.logger.InfoContext(ctx, "Zone lookup loaded", slog.Int("zones", len(zones)))
	return zones, nil
}

// ParseZones reads LocationID, Borough and Zone columns. Rows with a
// non-numeric LocationID are skipped.
func ParseZones(r io.Reader) ([]domain.Zone, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := headerIndex(header)
	for _, col := range []string{"locationid", "borough", "zone"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %s", col)
		}
	}

	var zones []domain.Zone
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		id, err := strconv.Atoi(strings.TrimSpace(field(record, idx, "locationid")))
		if err != nil {
			continue
		}
		zones = append(zones, domain.Zone{
			LocationID: id,
			Borough:    field(record, idx, "borough"),
			Name:       field(record, idx, "zone"),
		})
	}
	return zones, nil
}

func field(record []string, idx map[string]int, key string) string {
	if pos, ok := idx[key]; ok && pos < len(record) {
		return record[pos]
	}
	return ""
}
