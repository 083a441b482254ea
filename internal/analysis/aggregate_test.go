package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/internal/shared/testutil"
	"taxipulse/pkg/contracts/domain"
)

// ride builds an enriched trip starting at pickup and lasting minutes
func ride(pu, do int, fleet domain.Fleet, pickup string, minutes float64) domain.Trip {
	start, err := time.Parse("2006-01-02 15:04:05", pickup)
	if err != nil {
		panic(err)
	}
	d := time.Duration(minutes * float64(time.Minute))
	return testutil.EnrichedTrip(pu, do, fleet, domain.TemporalFeatures{
		PickupTime:          start,
		DropoffTime:         start.Add(d),
		TripDuration:        d,
		TripDurationMinutes: minutes,
		PickupMonth:         int(start.Month()),
		PickupDayOfMonth:    start.Day(),
		PickupWeekday:       (int(start.Weekday()) + 6) % 7,
		PickupHour:          start.Hour(),
		PickupMinute:        start.Minute(),
	})
}

func TestZoneStats(t *testing.T) {
	trips := []domain.Trip{
		ride(3, 5, domain.FleetYellow, "2019-01-02 10:00:00", 5),
		ride(3, 7, domain.FleetGreen, "2019-01-02 11:00:00", 5),
		ride(7, 3, domain.FleetFHV, "2019-01-02 12:00:00", 5),
	}

	stats := ZoneStats(trips)
	require.Len(t, stats, 5)

	want := map[int][2]int{3: {2, 1}, 4: {0, 0}, 5: {0, 1}, 6: {0, 0}, 7: {1, 1}}
	for _, s := range stats {
		assert.Equal(t, want[s.Zone], [2]int{s.Pickups, s.Dropoffs}, "zone %d", s.Zone)
	}

	assert.Nil(t, ZoneStats(nil))
}

func TestAverageTravelTimeFrom(t *testing.T) {
	trips := []domain.Trip{
		ride(132, 138, domain.FleetYellow, "2019-01-02 10:00:00", 20),
		ride(132, 138, domain.FleetYellow, "2019-01-02 11:00:00", 30),
		ride(132, 50, domain.FleetGreen, "2019-01-02 12:00:00", 45),
		ride(138, 132, domain.FleetGreen, "2019-01-02 12:00:00", 99),
	}

	got := AverageTravelTimeFrom(trips, domain.ZoneJFKAirport)
	require.Len(t, got, 2)
	assert.Equal(t, domain.RouteAverage{PickupZone: 132, DropoffZone: 50, Trips: 1, MeanMinutes: 45}, got[0])
	assert.Equal(t, domain.RouteAverage{PickupZone: 132, DropoffZone: 138, Trips: 2, MeanMinutes: 25}, got[1])
}

func TestRidesOverTime(t *testing.T) {
	trips := []domain.Trip{
		ride(1, 2, domain.FleetYellow, "2019-02-01 10:00:00", 5),
		ride(1, 2, domain.FleetYellow, "2019-02-01 11:00:00", 5),
		ride(1, 2, domain.FleetFHV, "2019-02-01 12:00:00", 5),
		ride(1, 2, domain.FleetGreen, "2019-02-28 23:00:00", 5),
		ride(1, 2, domain.FleetGreen, "2019-03-01 00:10:00", 5),
	}

	days := RidesOverTime(trips, domain.Period{Year: 2019, Month: 2})
	require.Len(t, days, 28)

	first := days[0]
	assert.Equal(t, "2019-02-01", first.Date)
	assert.Equal(t, 3, first.Total)
	assert.InDelta(t, 2.0/3, first.Share(domain.FleetYellow), 1e-12)
	assert.InDelta(t, 1.0/3, first.Share(domain.FleetFHV), 1e-12)
	assert.Zero(t, first.Share(domain.FleetGreen))

	assert.Equal(t, 1, days[27].Counts[domain.FleetGreen])
	assert.True(t, math.IsNaN(days[10].Share(domain.FleetYellow)))
}

func TestHourlyProfileByWeekday(t *testing.T) {
	// 2019-01-14 is a Monday, 2019-01-20 a Sunday
	trips := []domain.Trip{
		ride(132, 138, domain.FleetYellow, "2019-01-14 08:10:00", 20),
		ride(132, 138, domain.FleetYellow, "2019-01-14 08:50:00", 30),
		ride(132, 138, domain.FleetYellow, "2019-01-20 23:05:00", 15),
	}

	p := HourlyProfileByWeekday(trips)
	require.Len(t, p.Labels, 24)
	assert.Equal(t, "08:00-08:59", p.Labels[8])
	assert.Equal(t, "23:00-23:59", p.Labels[23])

	assert.Equal(t, 25.0, p.Means[0][8])
	assert.Equal(t, 2, p.Counts[0][8])
	assert.Equal(t, 15.0, p.Means[6][23])
	assert.True(t, math.IsNaN(p.Means[3][12]))
}
