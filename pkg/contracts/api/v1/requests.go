// Package api contains the request and response contracts of the taxipulse query API.
// Version v1 represents the current stable API version.
package api

import (
	"taxipulse/pkg/contracts/domain"
)

// PeriodRequest addresses the statistics of one (year, month) extract
type PeriodRequest struct {
	Year  int `json:"year" param:"year" validate:"required,min=2009,max=2100"`
	Month int `json:"month" param:"month" validate:"required,min=1,max=12"`
}

// Period converts the request into its domain period
func (r PeriodRequest) Period() domain.Period {
	return domain.Period{Year: r.Year, Month: r.Month}
}

// TravelTimeRequest selects average travel times from one pickup zone
type TravelTimeRequest struct {
	PeriodRequest
	Pickup int `json:"pickup" query:"pickup" validate:"required,min=1,max=263"`
}

// ZoneRequest addresses a single zone
type ZoneRequest struct {
	ID int `json:"id" param:"id" validate:"required,min=1,max=265"`
}

// RunsRequest pages the run history
type RunsRequest struct {
	Limit int `json:"limit" query:"limit" validate:"min=1,max=500"`
}

// DefaultRunsLimit is used when no limit is given
const DefaultRunsLimit = 20

// ListResponse wraps a list payload with its count
type ListResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

// NewListResponse builds a ListResponse, normalising nil to an empty list
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Count: len(items), Items: items}
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Storage string `json:"storage"`
}
