// Package http implements the read-only query API over the stats store.
//
// Handlers stay thin: they parse and validate path and query parameters,
// call the store, and render JSON. Failures are rendered as
// errors.APIError through the shared ErrorHandler.
//
// Routes, mounted under /api/v1 by the app package:
//
//	GET /zones
//	GET /zones/{id}
//	GET /periods/{year}/{month}/pickups
//	GET /periods/{year}/{month}/travel-times?pickup=132
//	GET /runs?limit=20
//
// Period responses are cached in memory for Server.CacheTTL.
package http
