package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// missingTokens are the cell spellings read as a missing value
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// zone ids beyond this are treated as unparsable
const maxZoneID = math.MaxInt32

// Sanitizer removes rows that cannot be used for analysis
type Sanitizer struct {
	logger *slog.Logger
}

// NewSanitizer creates a sanitizer. A nil logger uses the global logger.
func NewSanitizer(logger *slog.Logger) *Sanitizer {
	return &Sanitizer{logger: infrastructure.WithComponent(logger, "sanitizer")}
}

// Sanitize applies, in order:
//
//	1. drop the bookkeeping index column
//	2. drop rows with a zero pickup or dropoff zone
//	3. coerce zone ids to numbers, unparsable values become missing
//	4. treat infinite values as missing
//	5. drop rows holding a missing value in any present column
//	6. cast zone ids to int by truncation
//
// Absent optional cells are not missing; absent required cells are.
func (s *Sanitizer) Sanitize(ctx context.Context, table domain.RawTable) ([]domain.Trip, domain.StageReport) {
	if columns, dropped := DropIndexColumn(table.Columns); dropped {
		s.logger.DebugContext(ctx, "Dropped bookkeeping index column", slog.Int("columns", len(columns)))
	}

	report := domain.StageReport{Stage: StageSanitize, RowsIn: len(table.Rows)}
	trips := make([]domain.Trip, 0, len(table.Rows))

	for _, row := range table.Rows {
		pickupZone, pickupOK := parseNumber(row.PickupZone)
		dropoffZone, dropoffOK := parseNumber(row.DropoffZone)

		if (pickupOK && pickupZone == domain.ZoneUnknown) || (dropoffOK && dropoffZone == domain.ZoneUnknown) {
			continue
		}
		if !pickupOK || !dropoffOK {
			continue
		}
		if math.Abs(pickupZone) > maxZoneID || math.Abs(dropoffZone) > maxZoneID {
			continue
		}

		trip, ok := sanitizeRow(row)
		if !ok {
			continue
		}
		trip.PickupZone = int(math.Trunc(pickupZone))
		trip.DropoffZone = int(math.Trunc(dropoffZone))
		trips = append(trips, trip)
	}

	report.RowsOut = len(trips)
	logRemoval(ctx, s.logger, report, "due to missing information (NaN).")

	return trips, report
}

// sanitizeRow checks every non-zone cell and converts the optional ones
func sanitizeRow(row domain.RawTrip) (domain.Trip, bool) {
	if isMissing(row.PickupDatetime) || isMissing(row.DropoffDatetime) {
		return domain.Trip{}, false
	}
	if !row.Fleet.Valid() {
		return domain.Trip{}, false
	}

	trip := domain.Trip{
		PickupDatetime:  strings.TrimSpace(row.PickupDatetime.Text),
		DropoffDatetime: strings.TrimSpace(row.DropoffDatetime.Text),
		Fleet:           row.Fleet,
	}

	optional := []struct {
		field domain.Field
		dst   **float64
	}{
		{row.PassengerCount, &trip.PassengerCount},
		{row.TripDistance, &trip.TripDistance},
		{row.TipAmount, &trip.TipAmount},
		{row.TotalAmount, &trip.TotalAmount},
	}
	for _, o := range optional {
		if o.field.Absent {
			continue
		}
		v, ok := parseNumber(o.field)
		if !ok {
			return domain.Trip{}, false
		}
		*o.dst = &v
	}

	return trip, true
}

// isMissing reports whether a textual cell holds no usable value
func isMissing(f domain.Field) bool {
	if f.Absent {
		return true
	}
	_, ok := missingTokens[strings.TrimSpace(f.Text)]
	return ok
}

// parseNumber coerces a cell to a finite float. Missing, unparsable and
// infinite values all report false.
func parseNumber(f domain.Field) (float64, bool) {
	if isMissing(f) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(f.Text), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// DropIndexColumn removes the bookkeeping index column written by earlier
// cache exports, if present
func DropIndexColumn(columns []string) ([]string, bool) {
	out := make([]string, 0, len(columns))
	dropped := false
	for _, col := range columns {
		if col == domain.ColumnIndex || strings.TrimSpace(col) == "" {
			dropped = true
			continue
		}
		out = append(out, col)
	}
	return out, dropped
}

// ToRawTable renders trips back into the loader's table form. Sanitizing the
// result yields the same trips.
func ToRawTable(trips []domain.Trip) domain.RawTable {
	rows := make([]domain.RawTrip, len(trips))
	for i, t := range trips {
		rows[i] = domain.RawTrip{
			PickupDatetime:  domain.Text(t.PickupDatetime),
			DropoffDatetime: domain.Text(t.DropoffDatetime),
			PickupZone:      domain.Text(strconv.Itoa(t.PickupZone)),
			DropoffZone:     domain.Text(strconv.Itoa(t.DropoffZone)),
			PassengerCount:  formatOptional(t.PassengerCount),
			TripDistance:    formatOptional(t.TripDistance),
			TipAmount:       formatOptional(t.TipAmount),
			TotalAmount:     formatOptional(t.TotalAmount),
			Fleet:           t.Fleet,
		}
	}

	columns := make([]string, len(domain.CommonSchema))
	copy(columns, domain.CommonSchema)
	return domain.RawTable{Columns: columns, Rows: rows}
}

func formatOptional(v *float64) domain.Field {
	if v == nil {
		return domain.Absent()
	}
	return domain.Text(strconv.FormatFloat(*v, 'f', -1, 64))
}
