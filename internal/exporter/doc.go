// Package exporter writes trip tables and analysis results to disk.
//
// CSVWriter is the core CSV writing layer with header, streaming and UTF-8
// BOM support. Relative paths resolve under the reports directory unless
// they start with "cache/" or "figures/".
//
// TripExporter writes and reads the per-period cache files and writes the
// cleaned export. Absent cells are stored as config.NullToken.
//
// WriteWorkbook writes the analysis results as an xlsx workbook.
//
// Example usage:
//
//	trips := exporter.NewTripExporter(paths, logger)
//	n, err := trips.WriteCache(paths.CacheFile(2019, 1), table)
//
//	table, err := trips.ReadCache(paths.CacheFile(2019, 1))
package exporter
