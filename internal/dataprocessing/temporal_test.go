package dataprocessing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/internal/shared/testutil"
	"taxipulse/pkg/contracts/domain"
)

func trip(pickup, dropoff string) domain.Trip {
	return domain.Trip{
		PickupDatetime:  pickup,
		DropoffDatetime: dropoff,
		PickupZone:      132,
		DropoffZone:     138,
		Fleet:           domain.FleetYellow,
	}
}

func TestTemporalEnricher_Features(t *testing.T) {
	e := NewTemporalEnricher(nil, "")

	f, err := e.Features("2019-01-15 08:00:00", "2019-01-15 08:05:00")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, f.TripDuration)
	assert.InDelta(t, 5.0, f.TripDurationMinutes, 1e-9)
	assert.Equal(t, 1, f.PickupMonth)
	assert.Equal(t, 15, f.PickupDayOfMonth)
	assert.Equal(t, 1, f.PickupWeekday, "2019-01-15 is a Tuesday")
	assert.Equal(t, 8, f.PickupHour)
	assert.Equal(t, 0, f.PickupMinute)
	assert.Equal(t, time.UTC, f.PickupTime.Location())
}

func TestTemporalEnricher_Enrich(t *testing.T) {
	tests := []struct {
		name     string
		pickup   string
		dropoff  string
		wantKept bool
	}{
		{name: "positive duration", pickup: "2019-01-15 08:00:00", dropoff: "2019-01-15 08:05:00", wantKept: true},
		{name: "crosses midnight", pickup: "2019-01-31 23:58:00", dropoff: "2019-02-01 00:03:30", wantKept: true},
		{name: "zero duration", pickup: "2019-01-15 08:00:00", dropoff: "2019-01-15 08:00:00", wantKept: false},
		{name: "dropoff before pickup", pickup: "2019-01-15 08:05:00", dropoff: "2019-01-15 08:00:00", wantKept: false},
		{name: "unparsable pickup", pickup: "15/01/2019 08:00", dropoff: "2019-01-15 08:05:00", wantKept: false},
		{name: "unparsable dropoff", pickup: "2019-01-15 08:00:00", dropoff: "soon", wantKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enriched, report := NewTemporalEnricher(nil, "").Enrich(context.Background(), []domain.Trip{trip(tt.pickup, tt.dropoff)})

			assert.Equal(t, 1, report.RowsIn)
			assert.Equal(t, tt.wantKept, len(enriched) == 1)
			if tt.wantKept {
				assert.True(t, enriched[0].Enriched())
				assert.Greater(t, enriched[0].Temporal.TripDurationMinutes, 0.0)
			}
		})
	}
}

func TestTemporalEnricher_FeatureRanges(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	trips := make([]domain.Trip, 0, 24*31)
	for i := 0; i < 24*31; i++ {
		pu := start.Add(time.Duration(i)*time.Hour + time.Duration(i%60)*time.Minute)
		do := pu.Add(time.Duration(1+i%90) * time.Minute)
		trips = append(trips, trip(pu.Format(DefaultTimestampLayout), do.Format(DefaultTimestampLayout)))
	}

	enriched, report := NewTemporalEnricher(nil, "").Enrich(context.Background(), trips)
	require.Len(t, enriched, len(trips))
	assert.Zero(t, report.Removed())

	weekdays := map[int]bool{}
	for _, tr := range enriched {
		f := tr.Temporal
		assert.GreaterOrEqual(t, f.PickupWeekday, 0)
		assert.LessOrEqual(t, f.PickupWeekday, 6)
		assert.GreaterOrEqual(t, f.PickupHour, 0)
		assert.LessOrEqual(t, f.PickupHour, 23)
		assert.GreaterOrEqual(t, f.PickupMinute, 0)
		assert.LessOrEqual(t, f.PickupMinute, 59)
		assert.GreaterOrEqual(t, f.PickupDayOfMonth, 1)
		assert.LessOrEqual(t, f.PickupDayOfMonth, 31)
		assert.GreaterOrEqual(t, f.PickupMonth, 1)
		assert.LessOrEqual(t, f.PickupMonth, 12)
		weekdays[f.PickupWeekday] = true
	}
	assert.Len(t, weekdays, 7)
}

func TestTemporalEnricher_Idempotent(t *testing.T) {
	e := NewTemporalEnricher(nil, "")
	first, _ := e.Enrich(context.Background(), []domain.Trip{
		trip("2019-01-15 08:00:00", "2019-01-15 08:05:00"),
		trip("2019-01-20 23:10:00", "2019-01-21 00:01:00"),
	})
	second, report := e.Enrich(context.Background(), first)

	assert.Equal(t, first, second)
	assert.Zero(t, report.Removed())
}

func TestMondayWeekday(t *testing.T) {
	tests := []struct {
		in   time.Weekday
		want int
	}{
		{time.Monday, 0},
		{time.Tuesday, 1},
		{time.Saturday, 5},
		{time.Sunday, 6},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, MondayWeekday(tt.in))
		})
	}
}

func TestTemporalEnricher_LogsUnparsable(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	NewTemporalEnricher(logger, "").Enrich(context.Background(), []domain.Trip{trip("bad", "worse")})

	assert.True(t, handler.ContainsMessage("Dropped trips with unparsable timestamps"))
	assert.True(t, handler.ContainsAttr("percent_removed", 100.0))
}
