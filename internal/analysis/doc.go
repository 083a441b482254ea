// Package analysis computes the downstream statistics of a cleaned period:
// per-zone counts, travel times, daily rides per fleet, the route subset used
// for modelling, Gaussianizing transforms, correlations and least-squares
// regression.
//
// Every function takes enriched trips and returns new values; inputs are
// never modified.
package analysis
