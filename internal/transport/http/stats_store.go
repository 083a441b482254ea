package http

import (
	"context"

	"taxipulse/pkg/contracts/domain"
)

// StatsStore is the read side of store.Store used by the handlers
type StatsStore interface {
	ListZones(ctx context.Context) ([]domain.Zone, error)
	GetZone(ctx context.Context, id int) (domain.Zone, error)
	PickupsByZone(ctx context.Context, period domain.Period) ([]domain.ZoneStat, error)
	TravelTimesFrom(ctx context.Context, period domain.Period, pickup int) ([]domain.RouteAverage, error)
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}
