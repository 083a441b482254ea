package testutil

import (
	"taxipulse/pkg/contracts/domain"
)

// RawTripOption customises a fixture row
type RawTripOption func(*domain.RawTrip)

// RawYellowTrip returns a clean yellow cab row on the JFK to LaGuardia route
func RawYellowTrip(opts ...RawTripOption) domain.RawTrip {
	trip := domain.RawTrip{
		PickupDatetime:  domain.Text("2019-01-15 08:00:00"),
		DropoffDatetime: domain.Text("2019-01-15 08:05:00"),
		PickupZone:      domain.Text("132"),
		DropoffZone:     domain.Text("138"),
		PassengerCount:  domain.Text("1"),
		TripDistance:    domain.Text("11.2"),
		TipAmount:       domain.Text("5.5"),
		TotalAmount:     domain.Text("42.3"),
		Fleet:           domain.FleetYellow,
	}
	for _, opt := range opts {
		opt(&trip)
	}
	return trip
}

// RawFHVTrip returns a for-hire row without optional columns
func RawFHVTrip(opts ...RawTripOption) domain.RawTrip {
	trip := domain.RawTrip{
		PickupDatetime:  domain.Text("2019-01-20 17:30:00"),
		DropoffDatetime: domain.Text("2019-01-20 17:52:00"),
		PickupZone:      domain.Text("79"),
		DropoffZone:     domain.Text("230"),
		PassengerCount:  domain.Absent(),
		TripDistance:    domain.Absent(),
		TipAmount:       domain.Absent(),
		TotalAmount:     domain.Absent(),
		Fleet:           domain.FleetFHV,
	}
	for _, opt := range opts {
		opt(&trip)
	}
	return trip
}

// WithTimes sets the pickup and dropoff timestamps
func WithTimes(pickup, dropoff string) RawTripOption {
	return func(r *domain.RawTrip) {
		r.PickupDatetime = domain.Text(pickup)
		r.DropoffDatetime = domain.Text(dropoff)
	}
}

// WithZones sets the pickup and dropoff zone cells
func WithZones(pickup, dropoff string) RawTripOption {
	return func(r *domain.RawTrip) {
		r.PickupZone = domain.Text(pickup)
		r.DropoffZone = domain.Text(dropoff)
	}
}

// WithField overrides one optional cell by column name
func WithField(column string, field domain.Field) RawTripOption {
	return func(r *domain.RawTrip) {
		switch column {
		case domain.ColumnPassengerCount:
			r.PassengerCount = field
		case domain.ColumnTripDistance:
			r.TripDistance = field
		case domain.ColumnTipAmount:
			r.TipAmount = field
		case domain.ColumnTotalAmount:
			r.TotalAmount = field
		case domain.ColumnPickupDatetime:
			r.PickupDatetime = field
		case domain.ColumnDropoffDatetime:
			r.DropoffDatetime = field
		case domain.ColumnPickupZone:
			r.PickupZone = field
		case domain.ColumnDropoffZone:
			r.DropoffZone = field
		}
	}
}

// Table wraps rows in a unified table with the declared schema
func Table(rows ...domain.RawTrip) domain.RawTable {
	columns := make([]string, len(domain.CommonSchema))
	copy(columns, domain.CommonSchema)
	return domain.RawTable{Columns: columns, Rows: rows}
}

// EnrichedTrip returns a sanitized trip with temporal features set by hand
func EnrichedTrip(pickup, dropoff int, fleet domain.Fleet, features domain.TemporalFeatures) domain.Trip {
	f := features
	return domain.Trip{
		PickupDatetime:  f.PickupTime.Format("2006-01-02 15:04:05"),
		DropoffDatetime: f.DropoffTime.Format("2006-01-02 15:04:05"),
		PickupZone:      pickup,
		DropoffZone:     dropoff,
		Fleet:           fleet,
		Temporal:        &f,
	}
}
