package dataprocessing

import (
	"context"
	"log/slog"

	"taxipulse/internal/infrastructure"
	"taxipulse/pkg/contracts/domain"
)

// DefaultReservedZones are the lookup ids for unknown and out-of-city locations
var DefaultReservedZones = []int{domain.ZoneUnknownOutside, domain.ZoneOutsideNYC}

// RouteFilter drops trips that start or end in a reserved zone
type RouteFilter struct {
	logger   *slog.Logger
	reserved map[int]struct{}
}

// NewRouteFilter creates a route filter. A nil reserved list uses
// DefaultReservedZones.
func NewRouteFilter(logger *slog.Logger, reserved []int) *RouteFilter {
	if reserved == nil {
		reserved = DefaultReservedZones
	}
	set := make(map[int]struct{}, len(reserved))
	for _, z := range reserved {
		set[z] = struct{}{}
	}
	return &RouteFilter{
		logger:   infrastructure.WithComponent(logger, "route_filter"),
		reserved: set,
	}
}

// Reserved reports whether zone is excluded by the filter
func (f *RouteFilter) Reserved(zone int) bool {
	_, ok := f.reserved[zone]
	return ok
}

// Filter keeps trips whose pickup and dropoff zones are both inside the city
func (f *RouteFilter) Filter(ctx context.Context, trips []domain.Trip) ([]domain.Trip, domain.StageReport) {
	report := domain.StageReport{Stage: StageRouteFilter, RowsIn: len(trips)}

	kept := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		if f.Reserved(t.PickupZone) || f.Reserved(t.DropoffZone) {
			continue
		}
		kept = append(kept, t)
	}

	report.RowsOut = len(kept)
	logRemoval(ctx, f.logger, report, `because "PULocationID" or "DOLocationID" are outside the city.`)

	return kept, report
}
