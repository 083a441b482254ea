// Package dataprocessing implements the trip cleaning and feature pipeline.
// Each stage takes a table value and returns a new one; no stage mutates its
// input.
//
// # Stages
//
// The stages are applied strictly in this order:
//
//	1. Sanitizer: drops rows with undefined, unparsable or infinite zone ids
//	   and rows with any missing value, then casts zone ids to int
//	2. RouteFilter: drops trips touching the reserved out-of-city zones
//	3. TemporalEnricher: parses timestamps, derives duration and calendar
//	   features, drops trips with non-positive duration
//	4. PeriodFilter: keeps the target year (pickup OR dropoff) and the target
//	   month (pickup AND dropoff)
//
// # Usage
//
//	sanitizer := dataprocessing.NewSanitizer(logger)
//	trips, report := sanitizer.Sanitize(ctx, table)
//	trips, _ = dataprocessing.NewRouteFilter(logger, nil).Filter(ctx, trips)
//	trips, _ = dataprocessing.NewTemporalEnricher(logger, "").Enrich(ctx, trips)
//
// # Observability
//
// Every stage returns a domain.StageReport and logs the share of rows it
// removed at Info level. Removal is never an error.
package dataprocessing
