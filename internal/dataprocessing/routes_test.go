package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"taxipulse/internal/shared/testutil"
	"taxipulse/pkg/contracts/domain"
)

func TestRouteFilter_Filter(t *testing.T) {
	tests := []struct {
		name     string
		reserved []int
		pickup   int
		dropoff  int
		wantKept bool
	}{
		{name: "inside the city", pickup: 132, dropoff: 138, wantKept: true},
		{name: "pickup unknown outside", pickup: 264, dropoff: 138, wantKept: false},
		{name: "dropoff outside NYC", pickup: 132, dropoff: 265, wantKept: false},
		{name: "both reserved", pickup: 265, dropoff: 264, wantKept: false},
		{name: "custom reserved list", reserved: []int{1}, pickup: 1, dropoff: 138, wantKept: false},
		{name: "custom list frees defaults", reserved: []int{1}, pickup: 264, dropoff: 138, wantKept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trips := []domain.Trip{{PickupZone: tt.pickup, DropoffZone: tt.dropoff, Fleet: domain.FleetGreen}}
			kept, report := NewRouteFilter(nil, tt.reserved).Filter(context.Background(), trips)

			assert.Equal(t, tt.wantKept, len(kept) == 1)
			assert.Equal(t, StageRouteFilter, report.Stage)
		})
	}
}

func TestRouteFilter_DoesNotMutateInput(t *testing.T) {
	trips := []domain.Trip{
		{PickupZone: 264, DropoffZone: 1},
		{PickupZone: 2, DropoffZone: 3},
	}
	original := append([]domain.Trip(nil), trips...)

	kept, report := NewRouteFilter(nil, nil).Filter(context.Background(), trips)

	assert.Equal(t, original, trips)
	assert.Len(t, kept, 1)
	assert.InDelta(t, 50.0, report.PercentRemoved(), 1e-9)
}

func TestRouteFilter_LogsReason(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	NewRouteFilter(logger, nil).Filter(context.Background(), []domain.Trip{{PickupZone: 10, DropoffZone: 20}})

	testutil.AssertLogContains(t, handler, slog.LevelInfo,
		`About 0.0000% of the entire data could not be used because "PULocationID" or "DOLocationID" are outside the city.`)
}
