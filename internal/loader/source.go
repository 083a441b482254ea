package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"taxipulse/pkg/contracts/domain"
)

// Schema maps one fleet's extract header onto the common schema. Every entry
// lists the accepted header names, matched case-insensitively.
type Schema struct {
	Fleet       domain.Fleet
	Pickup      []string
	Dropoff     []string
	PickupZone  []string
	DropoffZone []string
	// WithOptional marks fleets whose extracts carry the optional columns
	WithOptional bool
}

var schemas = map[domain.Fleet]Schema{
	domain.FleetYellow: {
		Fleet:        domain.FleetYellow,
		Pickup:       []string{"tpep_pickup_datetime"},
		Dropoff:      []string{"tpep_dropoff_datetime"},
		PickupZone:   []string{domain.ColumnPickupZone},
		DropoffZone:  []string{domain.ColumnDropoffZone},
		WithOptional: true,
	},
	domain.FleetGreen: {
		Fleet:        domain.FleetGreen,
		Pickup:       []string{"lpep_pickup_datetime"},
		Dropoff:      []string{"lpep_dropoff_datetime"},
		PickupZone:   []string{domain.ColumnPickupZone},
		DropoffZone:  []string{domain.ColumnDropoffZone},
		WithOptional: true,
	},
	domain.FleetFHV: {
		Fleet:       domain.FleetFHV,
		Pickup:      []string{"pickup_datetime", "Pickup_date"},
		Dropoff:     []string{"dropoff_datetime", "dropOff_datetime"},
		PickupZone:  []string{domain.ColumnPickupZone},
		DropoffZone: []string{domain.ColumnDropoffZone},
	},
	domain.FleetFHVHV: {
		Fleet:       domain.FleetFHVHV,
		Pickup:      []string{"pickup_datetime"},
		Dropoff:     []string{"dropoff_datetime"},
		PickupZone:  []string{domain.ColumnPickupZone},
		DropoffZone: []string{domain.ColumnDropoffZone},
	},
}

// SchemaFor returns the column mapping of fleet
func SchemaFor(fleet domain.Fleet) (Schema, error) {
	s, ok := schemas[fleet]
	if !ok {
		return Schema{}, fmt.Errorf("unknown fleet %q", fleet)
	}
	return s, nil
}

// ExtractURL fills the {fleet}, {year} and {month} placeholders of template.
// The month is zero-padded.
func ExtractURL(template string, fleet domain.Fleet, year, month int) string {
	return strings.NewReplacer(
		"{fleet}", string(fleet),
		"{year}", strconv.Itoa(year),
		"{month}", fmt.Sprintf("%02d", month),
	).Replace(template)
}

// ParseStats counts what ParseExtract did with the records it read
type ParseStats struct {
	Records        int
	Malformed      int
	MissingColumns []string
}

// ParseExtract reads one CSV extract and maps it onto the common schema.
// Schema columns missing from the header yield absent cells; malformed CSV
// records are skipped and counted.
func ParseExtract(r io.Reader, schema Schema) ([]domain.RawTrip, ParseStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var stats ParseStats

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	idx := headerIndex(header)
	pickup := resolve(idx, schema.Pickup, &stats)
	dropoff := resolve(idx, schema.Dropoff, &stats)
	pickupZone := resolve(idx, schema.PickupZone, &stats)
	dropoffZone := resolve(idx, schema.DropoffZone, &stats)

	optional := [4]int{-1, -1, -1, -1}
	if schema.WithOptional {
		for i, col := range domain.OptionalColumns {
			optional[i] = resolve(idx, []string{col}, &stats)
		}
	}

	var rows []domain.RawTrip
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Malformed++
				continue
			}
			return rows, stats, fmt.Errorf("read record: %w", err)
		}
		stats.Records++

		rows = append(rows, domain.RawTrip{
			PickupDatetime:  cell(record, pickup),
			DropoffDatetime: cell(record, dropoff),
			PickupZone:      cell(record, pickupZone),
			DropoffZone:     cell(record, dropoffZone),
			PassengerCount:  cell(record, optional[0]),
			TripDistance:    cell(record, optional[1]),
			TipAmount:       cell(record, optional[2]),
			TotalAmount:     cell(record, optional[3]),
			Fleet:           schema.Fleet,
		})
	}

	return rows, stats, nil
}

// headerIndex maps lower-cased header names to their position
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, field := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(field, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

// resolve returns the position of the first accepted name found, or -1
func resolve(idx map[string]int, names []string, stats *ParseStats) int {
	for _, name := range names {
		if pos, ok := idx[strings.ToLower(name)]; ok {
			return pos
		}
	}
	if len(names) > 0 {
		stats.MissingColumns = append(stats.MissingColumns, names[0])
	}
	return -1
}

// cell returns the text at pos. A column the header lacks is absent; a short
// record yields a blank present cell.
func cell(record []string, pos int) domain.Field {
	if pos < 0 {
		return domain.Absent()
	}
	if pos >= len(record) {
		return domain.Text("")
	}
	return domain.Text(record[pos])
}
