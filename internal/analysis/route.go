package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"taxipulse/pkg/contracts/domain"
)

// RouteSubset keeps the enriched trips from pickup to dropoff whose duration
// lies strictly between lower and upper minutes
func RouteSubset(trips []domain.Trip, pickup, dropoff int, lower, upper float64) []domain.Trip {
	out := make([]domain.Trip, 0)
	for _, t := range trips {
		if t.PickupZone != pickup || t.DropoffZone != dropoff || !t.Enriched() {
			continue
		}
		m := t.Temporal.TripDurationMinutes
		if m > lower && m < upper {
			out = append(out, t)
		}
	}
	return out
}

// IQRBounds returns [Q1-1.5·IQR, Q3+1.5·IQR] of values
func IQRBounds(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// RemoveOutliersIQR drops trips whose duration lies outside the IQR bounds of
// all durations
func RemoveOutliersIQR(trips []domain.Trip) []domain.Trip {
	durations := make([]float64, 0, len(trips))
	for _, t := range trips {
		if t.Enriched() {
			durations = append(durations, t.Temporal.TripDurationMinutes)
		}
	}
	lo, hi := IQRBounds(durations)

	out := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		if !t.Enriched() {
			continue
		}
		if m := t.Temporal.TripDurationMinutes; m >= lo && m <= hi {
			out = append(out, t)
		}
	}
	return out
}
