package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"taxipulse/internal/analysis"
	"taxipulse/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetStages      = "Stages"
	SheetZoneStats   = "ZoneStats"
	SheetTravelTimes = "TravelTimes"
	SheetRidesPerDay = "RidesPerDay"
)

// WorkbookSheets lists the sheets of the analysis workbook in order
var WorkbookSheets = []string{SheetStages, SheetZoneStats, SheetTravelTimes, SheetRidesPerDay}

// WorkbookData is the content of one period's analysis workbook
type WorkbookData struct {
	Period      domain.Period
	Stages      []domain.StageReport
	ZoneStats   []domain.ZoneStat
	TravelTimes []domain.RouteAverage
	Rides       []analysis.DailyRides
	// Zones resolves names for the zone sheets; may be nil
	Zones map[int]domain.Zone
}

// WriteWorkbook writes data as an xlsx workbook at path
func (e *TripExporter) WriteWorkbook(path string, data WorkbookData) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		fill func(*excelize.File, string, WorkbookData) error
	}{
		{SheetStages, writeStagesSheet},
		{SheetZoneStats, writeZoneStatsSheet},
		{SheetTravelTimes, writeTravelTimesSheet},
		{SheetRidesPerDay, writeRidesSheet},
	}

	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}
		if err := s.fill(f, s.name, data); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", s.name, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	target := e.csvWriter.resolvePath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(target); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", target, err)
	}

	e.logger.Info("Workbook written",
		slog.String("path", target),
		slog.Int("zones", len(data.ZoneStats)),
		slog.Int("days", len(data.Rides)))
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeStagesSheet(f *excelize.File, sheet string, data WorkbookData) error {
	rows := [][]any{{"stage", "rows_in", "rows_out", "removed", "percent_removed"}}
	for _, s := range data.Stages {
		rows = append(rows, []any{s.Stage, s.RowsIn, s.RowsOut, s.Removed(), math.Round(s.PercentRemoved()*1e4) / 1e4})
	}
	return writeRows(f, sheet, rows)
}

func zoneLabel(zones map[int]domain.Zone, id int) (string, string) {
	z, ok := zones[id]
	if !ok {
		return "", ""
	}
	return z.Borough, z.Name
}

func writeZoneStatsSheet(f *excelize.File, sheet string, data WorkbookData) error {
	rows := [][]any{{"zone", "borough", "name", "pickups", "dropoffs"}}
	for _, s := range data.ZoneStats {
		borough, name := zoneLabel(data.Zones, s.Zone)
		rows = append(rows, []any{s.Zone, borough, name, s.Pickups, s.Dropoffs})
	}
	return writeRows(f, sheet, rows)
}

func writeTravelTimesSheet(f *excelize.File, sheet string, data WorkbookData) error {
	rows := [][]any{{"pickup_zone", "dropoff_zone", "dropoff_name", "trips", "mean_minutes"}}
	for _, r := range data.TravelTimes {
		_, name := zoneLabel(data.Zones, r.DropoffZone)
		rows = append(rows, []any{r.PickupZone, r.DropoffZone, name, r.Trips, r.MeanMinutes})
	}
	return writeRows(f, sheet, rows)
}

func writeRidesSheet(f *excelize.File, sheet string, data WorkbookData) error {
	header := []any{"date", "total"}
	for _, fleet := range domain.AllFleets {
		header = append(header, fleet.DisplayName())
	}
	for _, fleet := range domain.AllFleets {
		header = append(header, fleet.DisplayName()+" share")
	}

	rows := [][]any{header}
	for _, d := range data.Rides {
		row := []any{d.Date, d.Total}
		for _, fleet := range domain.AllFleets {
			row = append(row, d.Counts[fleet])
		}
		for _, fleet := range domain.AllFleets {
			share := d.Share(fleet)
			if math.IsNaN(share) {
				row = append(row, "")
				continue
			}
			row = append(row, share)
		}
		rows = append(rows, row)
	}
	return writeRows(f, sheet, rows)
}
