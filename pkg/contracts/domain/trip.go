package domain

import (
	"fmt"
	"strings"
	"time"
)

// Fleet is the provider category of a trip record
type Fleet string

const (
	FleetYellow Fleet = "yellow"
	FleetGreen  Fleet = "green"
	FleetFHV    Fleet = "fhv"
	FleetFHVHV  Fleet = "fhvhv"
)

// AllFleets lists every fleet the archive publishes, in load order
var AllFleets = []Fleet{FleetYellow, FleetGreen, FleetFHV, FleetFHVHV}

// Valid reports whether f is one of the known fleets
func (f Fleet) Valid() bool {
	switch f {
	case FleetYellow, FleetGreen, FleetFHV, FleetFHVHV:
		return true
	}
	return false
}

// DisplayName returns the label used in figures and reports
func (f Fleet) DisplayName() string {
	switch f {
	case FleetYellow:
		return "Yellow Taxi"
	case FleetGreen:
		return "Green Taxi"
	case FleetFHV:
		return "For-Hire Vehicle"
	case FleetFHVHV:
		return "High Volume For-Hire Vehicle"
	}
	return string(f)
}

// ParseFleets converts fleet names, ignoring case and blanks. An empty list
// yields AllFleets.
func ParseFleets(names []string) ([]Fleet, error) {
	fleets := make([]Fleet, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		f := Fleet(name)
		if !f.Valid() {
			return nil, fmt.Errorf("unknown fleet %q", name)
		}
		fleets = append(fleets, f)
	}
	if len(fleets) == 0 {
		return append([]Fleet(nil), AllFleets...), nil
	}
	return fleets, nil
}

// Common schema column names
const (
	ColumnIndex           = "Unnamed: 0"
	ColumnPickupDatetime  = "pickup_datetime"
	ColumnDropoffDatetime = "dropoff_datetime"
	ColumnPickupZone      = "PULocationID"
	ColumnDropoffZone     = "DOLocationID"
	ColumnPassengerCount  = "passenger_count"
	ColumnTripDistance    = "trip_distance"
	ColumnTipAmount       = "tip_amount"
	ColumnTotalAmount     = "total_amount"
	ColumnFleet           = "fleet"
)

// CommonSchema is the declared column order of every unified trip table.
// Optional columns are always present and may hold absent cells.
var CommonSchema = []string{
	ColumnPickupDatetime,
	ColumnDropoffDatetime,
	ColumnPickupZone,
	ColumnDropoffZone,
	ColumnPassengerCount,
	ColumnTripDistance,
	ColumnTipAmount,
	ColumnTotalAmount,
	ColumnFleet,
}

// OptionalColumns are the columns only some fleets carry
var OptionalColumns = []string{
	ColumnPassengerCount,
	ColumnTripDistance,
	ColumnTipAmount,
	ColumnTotalAmount,
}

// Field is a raw textual cell. Absent marks a column the source extract
// does not carry, which is distinct from a present but blank cell.
type Field struct {
	Text   string
	Absent bool
}

// Text returns a present cell holding s
func Text(s string) Field {
	return Field{Text: s}
}

// Absent returns a cell for a column the source does not carry
func Absent() Field {
	return Field{Absent: true}
}

// RawTrip is one trip row as loaded, before any cleaning
type RawTrip struct {
	PickupDatetime  Field
	DropoffDatetime Field
	PickupZone      Field
	DropoffZone     Field
	PassengerCount  Field
	TripDistance    Field
	TipAmount       Field
	TotalAmount     Field
	Fleet           Fleet
}

// Optional returns the optional cells keyed by column name
func (r RawTrip) Optional() map[string]Field {
	return map[string]Field{
		ColumnPassengerCount: r.PassengerCount,
		ColumnTripDistance:   r.TripDistance,
		ColumnTipAmount:      r.TipAmount,
		ColumnTotalAmount:    r.TotalAmount,
	}
}

// RawTable is the loader's unified table
type RawTable struct {
	Columns []string
	Rows    []RawTrip
}

// Len returns the number of rows
func (t RawTable) Len() int {
	return len(t.Rows)
}

// Trip is a sanitized trip record with integer zone ids
type Trip struct {
	PickupDatetime  string            `json:"pickup_datetime"`
	DropoffDatetime string            `json:"dropoff_datetime"`
	PickupZone      int               `json:"PULocationID"`
	DropoffZone     int               `json:"DOLocationID"`
	Fleet           Fleet             `json:"fleet"`
	PassengerCount  *float64          `json:"passenger_count,omitempty"`
	TripDistance    *float64          `json:"trip_distance,omitempty"`
	TipAmount       *float64          `json:"tip_amount,omitempty"`
	TotalAmount     *float64          `json:"total_amount,omitempty"`
	Temporal        *TemporalFeatures `json:"temporal,omitempty"`
}

// Enriched reports whether temporal features have been derived
func (t Trip) Enriched() bool {
	return t.Temporal != nil
}

// TemporalFeatures are derived from the parsed pickup and dropoff timestamps
type TemporalFeatures struct {
	PickupTime          time.Time     `json:"pickup_time"`
	DropoffTime         time.Time     `json:"dropoff_time"`
	TripDuration        time.Duration `json:"trip_duration"`
	TripDurationMinutes float64       `json:"trip_duration_minutes"`
	PickupMonth         int           `json:"pickup_month"`
	PickupDayOfMonth    int           `json:"pickup_day_of_month"`
	PickupWeekday       int           `json:"pickup_weekday"` // 0=Monday
	PickupHour          int           `json:"pickup_hour"`
	PickupMinute        int           `json:"pickup_minute"`
}
