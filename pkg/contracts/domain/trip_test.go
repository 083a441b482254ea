package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFleetValid(t *testing.T) {
	tests := []struct {
		name  string
		fleet Fleet
		want  bool
	}{
		{name: "yellow", fleet: FleetYellow, want: true},
		{name: "green", fleet: FleetGreen, want: true},
		{name: "fhv", fleet: FleetFHV, want: true},
		{name: "fhvhv", fleet: FleetFHVHV, want: true},
		{name: "unknown", fleet: Fleet("blue"), want: false},
		{name: "empty", fleet: Fleet(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fleet.Valid())
		})
	}
}

func TestParseFleets(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []Fleet
		wantErr bool
	}{
		{name: "empty means all", in: nil, want: AllFleets},
		{name: "case and blanks", in: []string{" Yellow", "", "fhv "}, want: []Fleet{FleetYellow, FleetFHV}},
		{name: "unknown", in: []string{"yellow", "limo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFleets(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommonSchemaIsFixed(t *testing.T) {
	assert.Equal(t, []string{
		"pickup_datetime", "dropoff_datetime", "PULocationID", "DOLocationID",
		"passenger_count", "trip_distance", "tip_amount", "total_amount", "fleet",
	}, CommonSchema)

	for _, col := range OptionalColumns {
		assert.Contains(t, CommonSchema, col)
	}
}

func TestFieldAbsentDiffersFromBlank(t *testing.T) {
	assert.True(t, Absent().Absent)
	assert.False(t, Text("").Absent)
	assert.NotEqual(t, Absent(), Text(""))
}

func TestStageReportPercentRemoved(t *testing.T) {
	tests := []struct {
		name    string
		report  StageReport
		want    float64
		removed int
	}{
		{name: "quarter removed", report: StageReport{RowsIn: 4, RowsOut: 3}, want: 25, removed: 1},
		{name: "nothing removed", report: StageReport{RowsIn: 10, RowsOut: 10}, want: 0, removed: 0},
		{name: "everything removed", report: StageReport{RowsIn: 2, RowsOut: 0}, want: 100, removed: 2},
		{name: "empty input", report: StageReport{}, want: 0, removed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.report.PercentRemoved(), 1e-9)
			assert.Equal(t, tt.removed, tt.report.Removed())
		})
	}
}

func TestPeriodDays(t *testing.T) {
	assert.Equal(t, 31, Period{Year: 2019, Month: 1}.Days())
	assert.Equal(t, 28, Period{Year: 2019, Month: 2}.Days())
	assert.Equal(t, 29, Period{Year: 2020, Month: 2}.Days())
	assert.Equal(t, 30, Period{Year: 2021, Month: 6}.Days())
}
