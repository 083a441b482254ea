package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"taxipulse/internal/config"
	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// Temporal feature columns appended to the cleaned export
var featureColumns = []string{
	"trip_duration_minutes",
	"pickup_month",
	"pickup_day_of_month",
	"pickup_weekday",
	"pickup_hour",
	"pickup_minute",
}

// TripExporter writes and reads trip tables
type TripExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewTripExporter creates a trip exporter rooted at paths. A nil logger uses
// the global logger.
func NewTripExporter(paths *config.Paths, logger *slog.Logger) *TripExporter {
	return &TripExporter{
		csvWriter: NewCSVWriter(paths, logger),
		logger:    infrastructure.WithComponent(logger, "trip_exporter"),
	}
}

// CacheHeaders returns the cache file header: the index column followed by
// the declared schema
func CacheHeaders() []string {
	return append([]string{domain.ColumnIndex}, domain.CommonSchema...)
}

// WriteCache streams table to filePath and returns the rows written
func (e *TripExporter) WriteCache(filePath string, table domain.RawTable) (int, error) {
	stream, err := e.csvWriter.CreateStreamWriter(filePath, CacheHeaders(), false)
	if err != nil {
		return 0, err
	}

	record := make([]string, 0, len(domain.CommonSchema)+1)
	for i, row := range table.Rows {
		record = record[:0]
		record = append(record,
			strconv.Itoa(i),
			formatCell(row.PickupDatetime),
			formatCell(row.DropoffDatetime),
			formatCell(row.PickupZone),
			formatCell(row.DropoffZone),
			formatCell(row.PassengerCount),
			formatCell(row.TripDistance),
			formatCell(row.TipAmount),
			formatCell(row.TotalAmount),
			string(row.Fleet),
		)
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return 0, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := stream.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", filePath, err)
	}
	return stream.Rows(), nil
}

// ReadCache reads a cache file back into a table. The column list keeps the
// index column; the sanitizer drops it.
func (e *TripExporter) ReadCache(filePath string) (domain.RawTable, error) {
	file, err := os.Open(e.csvWriter.resolvePath(filePath))
	if err != nil {
		return domain.RawTable{}, err
	}
	defer file.Close()

	return ReadTable(file)
}

// ReadTable parses a cache formatted CSV stream
func ReadTable(r io.Reader) (domain.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	get := func(record []string, col string) domain.Field {
		pos, ok := idx[col]
		if !ok {
			return domain.Absent()
		}
		if pos >= len(record) {
			return domain.Text("")
		}
		return parseCell(record[pos])
	}

	table := domain.RawTable{Columns: append([]string(nil), header...)}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		table.Rows = append(table.Rows, domain.RawTrip{
			PickupDatetime:  get(record, domain.ColumnPickupDatetime),
			DropoffDatetime: get(record, domain.ColumnDropoffDatetime),
			PickupZone:      get(record, domain.ColumnPickupZone),
			DropoffZone:     get(record, domain.ColumnDropoffZone),
			PassengerCount:  get(record, domain.ColumnPassengerCount),
			TripDistance:    get(record, domain.ColumnTripDistance),
			TipAmount:       get(record, domain.ColumnTipAmount),
			TotalAmount:     get(record, domain.ColumnTotalAmount),
			Fleet:           domain.Fleet(get(record, domain.ColumnFleet).Text),
		})
	}

	return table, nil
}

// CleanedHeaders returns the header row of the cleaned export
func CleanedHeaders() []string {
	return append(append([]string(nil), domain.CommonSchema...), featureColumns...)
}

// WriteCleaned writes enriched trips with their temporal features
func (e *TripExporter) WriteCleaned(filePath string, trips []domain.Trip) (int, error) {
	headers := CleanedHeaders()
	stream, err := e.csvWriter.CreateStreamWriter(filePath, headers, true)
	if err != nil {
		return 0, err
	}

	for i, t := range trips {
		record := []string{
			t.PickupDatetime,
			t.DropoffDatetime,
			strconv.Itoa(t.PickupZone),
			strconv.Itoa(t.DropoffZone),
			formatOptional(t.PassengerCount),
			formatOptional(t.TripDistance),
			formatOptional(t.TipAmount),
			formatOptional(t.TotalAmount),
			string(t.Fleet),
		}
		if f := t.Temporal; f != nil {
			record = append(record,
				formatMinutes(f.TripDurationMinutes),
				strconv.Itoa(f.PickupMonth),
				strconv.Itoa(f.PickupDayOfMonth),
				strconv.Itoa(f.PickupWeekday),
				strconv.Itoa(f.PickupHour),
				strconv.Itoa(f.PickupMinute),
			)
		} else {
			record = append(record, make([]string, len(featureColumns))...)
		}

		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return 0, fmt.Errorf("failed to write trip %d: %w", i, err)
		}
	}

	if err := stream.Close(); err != nil {
		return 0, err
	}

	e.logger.Info("Cleaned trips exported",
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Rows()))
	return stream.Rows(), nil
}
