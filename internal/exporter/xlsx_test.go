package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"taxipulse/internal/analysis"
	"taxipulse/pkg/contracts/domain"
)

func TestTripExporter_WriteWorkbook(t *testing.T) {
	_, paths := setupTestEnv(t)
	exp := NewTripExporter(paths, nil)

	data := WorkbookData{
		Period: domain.Period{Year: 2019, Month: 1},
		Stages: []domain.StageReport{
			{Stage: "sanitize", RowsIn: 4, RowsOut: 3},
			{Stage: "route_filter", RowsIn: 3, RowsOut: 3},
		},
		ZoneStats: []domain.ZoneStat{
			{Zone: 132, Pickups: 5, Dropoffs: 1},
			{Zone: 133, Pickups: 0, Dropoffs: 0},
		},
		TravelTimes: []domain.RouteAverage{
			{PickupZone: 132, DropoffZone: 138, Trips: 2, MeanMinutes: 25.5},
		},
		Rides: []analysis.DailyRides{
			{Date: "2019-01-01", Total: 4, Counts: map[domain.Fleet]int{domain.FleetYellow: 3, domain.FleetFHV: 1}},
			{Date: "2019-01-02", Counts: map[domain.Fleet]int{}},
		},
		Zones: map[int]domain.Zone{
			132: {LocationID: 132, Borough: "Queens", Name: "JFK Airport"},
			138: {LocationID: 138, Borough: "Queens", Name: "LaGuardia Airport"},
		},
	}

	path := paths.WorkbookFile(2019, 1)
	require.NoError(t, exp.WriteWorkbook(path, data))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStages, SheetZoneStats, SheetTravelTimes, SheetRidesPerDay}, f.GetSheetList())

	stages, err := f.GetRows(SheetStages)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, []string{"sanitize", "4", "3", "1", "25"}, stages[1])

	zones, err := f.GetRows(SheetZoneStats)
	require.NoError(t, err)
	assert.Equal(t, []string{"132", "Queens", "JFK Airport", "5", "1"}, zones[1])

	travel, err := f.GetRows(SheetTravelTimes)
	require.NoError(t, err)
	assert.Equal(t, "LaGuardia Airport", travel[1][2])

	share, err := f.GetCellValue(SheetRidesPerDay, "G2")
	require.NoError(t, err)
	assert.Equal(t, "0.75", share)

	rides, err := f.GetRows(SheetRidesPerDay)
	require.NoError(t, err)
	assert.Len(t, rides, 3)
	assert.Equal(t, "2019-01-02", rides[2][0])
}
