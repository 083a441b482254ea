package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/internal/shared/testutil"
	"taxipulse/pkg/contracts/domain"
)

func TestSanitizer_Sanitize(t *testing.T) {
	tests := []struct {
		name     string
		row      domain.RawTrip
		wantKept bool
	}{
		{
			name:     "clean yellow row",
			row:      testutil.RawYellowTrip(),
			wantKept: true,
		},
		{
			name:     "fhv row without optional columns",
			row:      testutil.RawFHVTrip(),
			wantKept: true,
		},
		{
			name:     "pickup zone zero",
			row:      testutil.RawYellowTrip(testutil.WithZones("0", "138")),
			wantKept: false,
		},
		{
			name:     "dropoff zone zero as float",
			row:      testutil.RawYellowTrip(testutil.WithZones("132", "0.0")),
			wantKept: false,
		},
		{
			name:     "unparsable zone",
			row:      testutil.RawYellowTrip(testutil.WithZones("abc", "138")),
			wantKept: false,
		},
		{
			name:     "infinite zone",
			row:      testutil.RawYellowTrip(testutil.WithZones("inf", "138")),
			wantKept: false,
		},
		{
			name:     "NaN zone",
			row:      testutil.RawYellowTrip(testutil.WithZones("132", "NaN")),
			wantKept: false,
		},
		{
			name:     "zone at int32 bound",
			row:      testutil.RawYellowTrip(testutil.WithZones("132", "2147483647")),
			wantKept: true,
		},
		{
			name:     "zone beyond int32",
			row:      testutil.RawYellowTrip(testutil.WithZones("132", "99999999999")),
			wantKept: false,
		},
		{
			name:     "blank pickup timestamp",
			row:      testutil.RawYellowTrip(testutil.WithField(domain.ColumnPickupDatetime, domain.Text(""))),
			wantKept: false,
		},
		{
			name:     "absent dropoff timestamp",
			row:      testutil.RawFHVTrip(testutil.WithField(domain.ColumnDropoffDatetime, domain.Absent())),
			wantKept: false,
		},
		{
			name:     "null token in optional column",
			row:      testutil.RawYellowTrip(testutil.WithField(domain.ColumnTipAmount, domain.Text("NULL"))),
			wantKept: false,
		},
		{
			name:     "infinite optional value",
			row:      testutil.RawYellowTrip(testutil.WithField(domain.ColumnTotalAmount, domain.Text("-Inf"))),
			wantKept: false,
		},
		{
			name:     "unparsable optional value",
			row:      testutil.RawYellowTrip(testutil.WithField(domain.ColumnTripDistance, domain.Text("far"))),
			wantKept: false,
		},
		{
			name:     "unknown fleet",
			row:      testutil.RawYellowTrip(func(r *domain.RawTrip) { r.Fleet = "limo" }),
			wantKept: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			trips, report := NewSanitizer(logger).Sanitize(context.Background(), testutil.Table(tt.row))

			assert.Equal(t, 1, report.RowsIn)
			if tt.wantKept {
				assert.Len(t, trips, 1)
				assert.Equal(t, 1, report.RowsOut)
			} else {
				assert.Empty(t, trips)
				assert.Equal(t, 0, report.RowsOut)
			}
		})
	}
}

func TestSanitizer_ConvertsValues(t *testing.T) {
	row := testutil.RawYellowTrip(testutil.WithZones(" 132.9 ", "-7.5"))
	trips, _ := NewSanitizer(nil).Sanitize(context.Background(), testutil.Table(row))
	require.Len(t, trips, 1)

	trip := trips[0]
	assert.Equal(t, 132, trip.PickupZone)
	assert.Equal(t, -7, trip.DropoffZone, "truncates toward zero")
	require.NotNil(t, trip.TripDistance)
	assert.InDelta(t, 11.2, *trip.TripDistance, 1e-9)
	assert.Equal(t, domain.FleetYellow, trip.Fleet)
	assert.Nil(t, trip.Temporal)

	fhv, _ := NewSanitizer(nil).Sanitize(context.Background(), testutil.Table(testutil.RawFHVTrip()))
	require.Len(t, fhv, 1)
	assert.Nil(t, fhv[0].PassengerCount)
	assert.Nil(t, fhv[0].TotalAmount)
}

func TestSanitizer_Idempotent(t *testing.T) {
	table := testutil.Table(
		testutil.RawYellowTrip(),
		testutil.RawYellowTrip(testutil.WithZones("0", "1")),
		testutil.RawFHVTrip(),
		testutil.RawYellowTrip(testutil.WithField(domain.ColumnTipAmount, domain.Text("0.10000000000000001"))),
		testutil.RawFHVTrip(testutil.WithZones("12.0", "nan")),
	)

	s := NewSanitizer(nil)
	first, _ := s.Sanitize(context.Background(), table)
	second, report := s.Sanitize(context.Background(), ToRawTable(first))

	assert.Equal(t, first, second)
	assert.Zero(t, report.Removed())
}

func TestSanitizer_LogsRemovalShare(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	table := testutil.Table(
		testutil.RawYellowTrip(),
		testutil.RawYellowTrip(),
		testutil.RawYellowTrip(),
		testutil.RawYellowTrip(testutil.WithZones("0", "138")),
	)

	_, report := NewSanitizer(logger).Sanitize(context.Background(), table)
	assert.Equal(t, 3, report.RowsOut)

	testutil.AssertLogContains(t, handler, slog.LevelInfo,
		"About 25.0000% of the entire data could not be used due to missing information (NaN).")
	assert.True(t, handler.ContainsAttr("percent_removed", 25.0))
	assert.True(t, handler.ContainsAttr("component", "sanitizer"))
}

func TestSanitizer_EmptyInput(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	trips, report := NewSanitizer(logger).Sanitize(context.Background(), domain.RawTable{})

	assert.Empty(t, trips)
	assert.Zero(t, report.PercentRemoved())
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "About 0.0000%")
}

func TestDropIndexColumn(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		want        []string
		wantDropped bool
	}{
		{
			name:        "pandas index",
			columns:     append([]string{domain.ColumnIndex}, domain.CommonSchema...),
			want:        domain.CommonSchema,
			wantDropped: true,
		},
		{
			name:        "blank header",
			columns:     []string{"", domain.ColumnFleet},
			want:        []string{domain.ColumnFleet},
			wantDropped: true,
		},
		{
			name:        "no index",
			columns:     domain.CommonSchema,
			want:        domain.CommonSchema,
			wantDropped: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := DropIndexColumn(tt.columns)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDropped, dropped)
		})
	}
}

func TestToRawTable_AbsentStaysAbsent(t *testing.T) {
	table := ToRawTable([]domain.Trip{{
		PickupDatetime:  "2019-01-15 08:00:00",
		DropoffDatetime: "2019-01-15 08:05:00",
		PickupZone:      132,
		DropoffZone:     138,
		Fleet:           domain.FleetFHVHV,
	}})

	require.Len(t, table.Rows, 1)
	assert.Equal(t, domain.CommonSchema, table.Columns)
	assert.True(t, table.Rows[0].PassengerCount.Absent)
	assert.Equal(t, "132", table.Rows[0].PickupZone.Text)
}
