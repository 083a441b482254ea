package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"taxipulse/pkg/contracts/domain"
)

// ZoneStats counts pickups and dropoffs per zone. The result covers every id
// from the smallest to the largest zone seen; unseen ids hold zeros.
func ZoneStats(trips []domain.Trip) []domain.ZoneStat {
	if len(trips) == 0 {
		return nil
	}

	lo, hi := math.MaxInt, math.MinInt
	pickups := make(map[int]int)
	dropoffs := make(map[int]int)
	for _, t := range trips {
		pickups[t.PickupZone]++
		dropoffs[t.DropoffZone]++
		lo = min(lo, t.PickupZone, t.DropoffZone)
		hi = max(hi, t.PickupZone, t.DropoffZone)
	}

	stats := make([]domain.ZoneStat, 0, hi-lo+1)
	for zone := lo; zone <= hi; zone++ {
		stats = append(stats, domain.ZoneStat{
			Zone:     zone,
			Pickups:  pickups[zone],
			Dropoffs: dropoffs[zone],
		})
	}
	return stats
}

// AverageTravelTimeFrom returns the mean trip duration in minutes from
// pickupZone to every dropoff zone reached, ordered by dropoff zone.
// Trips without temporal features are ignored.
func AverageTravelTimeFrom(trips []domain.Trip, pickupZone int) []domain.RouteAverage {
	durations := make(map[int][]float64)
	for _, t := range trips {
		if t.PickupZone != pickupZone || !t.Enriched() {
			continue
		}
		durations[t.DropoffZone] = append(durations[t.DropoffZone], t.Temporal.TripDurationMinutes)
	}

	out := make([]domain.RouteAverage, 0, len(durations))
	for zone, d := range durations {
		out = append(out, domain.RouteAverage{
			PickupZone:  pickupZone,
			DropoffZone: zone,
			Trips:       len(d),
			MeanMinutes: stat.Mean(d, nil),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DropoffZone < out[j].DropoffZone })
	return out
}

// DailyRides holds the ride counts of one calendar day
type DailyRides struct {
	Date   string               `json:"date"`
	Total  int                  `json:"total"`
	Counts map[domain.Fleet]int `json:"counts"`
}

// Share returns the market share of fleet on that day. A day without rides
// has no share and reports NaN.
func (d DailyRides) Share(fleet domain.Fleet) float64 {
	if d.Total == 0 {
		return math.NaN()
	}
	return float64(d.Counts[fleet]) / float64(d.Total)
}

// RidesOverTime counts the rides of every day of the period per fleet. Days
// are matched on the date prefix of the pickup string.
func RidesOverTime(trips []domain.Trip, period domain.Period) []DailyRides {
	days := make([]DailyRides, period.Days())
	index := make(map[string]int, len(days))
	for i := range days {
		date := fmt.Sprintf("%04d-%02d-%02d", period.Year, period.Month, i+1)
		days[i] = DailyRides{Date: date, Counts: make(map[domain.Fleet]int)}
		index[date] = i
	}

	for _, t := range trips {
		if len(t.PickupDatetime) < 10 {
			continue
		}
		i, ok := index[t.PickupDatetime[:10]]
		if !ok {
			continue
		}
		days[i].Counts[t.Fleet]++
		days[i].Total++
	}
	return days
}

// HourBinLabel returns the label of the hour bin containing hour, such as
// "08:00-08:59"
func HourBinLabel(hour int) string {
	return fmt.Sprintf("%02d:00-%02d:59", hour, hour)
}

// WeekdayProfile is the mean travel time per weekday and hour of day.
// Rows are weekdays starting on Monday; empty cells hold NaN.
type WeekdayProfile struct {
	Labels []string
	Means  [7][24]float64
	Counts [7][24]int
}

// Weekdays names the profile rows
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// HourlyProfileByWeekday averages trip durations per pickup weekday and hour
// bin
func HourlyProfileByWeekday(trips []domain.Trip) WeekdayProfile {
	var p WeekdayProfile
	p.Labels = make([]string, 24)
	for h := range p.Labels {
		p.Labels[h] = HourBinLabel(h)
	}

	var sums [7][24]float64
	for _, t := range trips {
		if !t.Enriched() {
			continue
		}
		wd, h := t.Temporal.PickupWeekday, t.Temporal.PickupHour
		sums[wd][h] += t.Temporal.TripDurationMinutes
		p.Counts[wd][h]++
	}

	for wd := range sums {
		for h := range sums[wd] {
			if p.Counts[wd][h] == 0 {
				p.Means[wd][h] = math.NaN()
				continue
			}
			p.Means[wd][h] = sums[wd][h] / float64(p.Counts[wd][h])
		}
	}
	return p
}
