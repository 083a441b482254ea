// Package files manages the on-disk trip cache.
//
// Discovery finds cache files in the data layout.
//
// Manager wraps basic file operations with path resolution relative to the
// configured directories.
//
// CacheManager memoizes loaded tables per (fleet set, year, month) in
// df_taxi_YYYY_MM.csv files, one file per month. A manifest.json next to them
// records the BLAKE2b-256 checksum, row count and fleets of every file. A
// file whose checksum no longer matches, or that was written for another
// fleet set, is treated as a cache miss and is replaced by the next Put.
//
// Example usage:
//
//	cache := files.NewCacheManager(paths, logger)
//	table, hit, err := cache.Get(ctx, domain.Period{Year: 2019, Month: 1}, fleets)
//	if !hit {
//	    table, _ = ldr.Load(ctx, fleets, []int{2019}, []int{1})
//	    err = cache.Put(ctx, period, table, fleets)
//	}
package files
