// Package loader fetches raw trip extracts and the zone lookup table from the
// public archive and normalises every fleet's columns into the common schema.
//
// One extract is fetched per (fleet, year, month) triple. A triple that cannot
// be fetched is logged, counted and skipped; it never fails the load.
package loader
