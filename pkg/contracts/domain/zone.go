package domain

import "time"

// Reserved zone identifiers
const (
	// ZoneUnknown marks a trip whose location was not recorded
	ZoneUnknown = 0
	// ZoneUnknownOutside and ZoneOutsideNYC denote locations outside the service area
	ZoneUnknownOutside = 264
	ZoneOutsideNYC     = 265
)

// Well-known zones used by the default analyses
const (
	ZoneJFKAirport       = 132
	ZoneLaGuardiaAirport = 138
)

// Zone is one entry of the zone lookup table
type Zone struct {
	LocationID int    `json:"location_id" db:"location_id"`
	Borough    string `json:"borough" db:"borough"`
	Name       string `json:"zone" db:"zone"`
}

// ZoneStat holds pickups and dropoffs counted for one zone
type ZoneStat struct {
	Zone     int `json:"zone" db:"zone"`
	Pickups  int `json:"pickups" db:"pickups"`
	Dropoffs int `json:"dropoffs" db:"dropoffs"`
}

// RouteAverage is the mean travel time from one pickup zone to one dropoff zone
type RouteAverage struct {
	PickupZone  int     `json:"pickup_zone" db:"pickup_zone"`
	DropoffZone int     `json:"dropoff_zone" db:"dropoff_zone"`
	Trips       int     `json:"trips" db:"trips"`
	MeanMinutes float64 `json:"mean_minutes" db:"mean_minutes"`
}

// Period identifies one (year, month) extract
type Period struct {
	Year  int `json:"year" validate:"required,min=2009,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// Start returns midnight UTC on the first day of the period
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the period
func (p Period) Days() int {
	return p.Start().AddDate(0, 1, -1).Day()
}
