package config

import "time"

// Application constants
const (
	AppName = "taxipulse"

	// EnvPrefix namespaces every environment variable, e.g. TAXI_STORAGE_DSN
	EnvPrefix = "TAXI"

	// Source archive
	DefaultTripURLTemplate = "https://nyc-tlc.s3.amazonaws.com/trip+data/{fleet}_tripdata_{year}-{month}.csv"
	DefaultZoneLookupURL   = "https://s3.amazonaws.com/nyc-tlc/misc/taxi+_zone_lookup.csv"
	DefaultFetchTimeout    = 10 * time.Minute

	// TimestampLayout is the format of pickup and dropoff timestamps in every extract
	TimestampLayout = "2006-01-02 15:04:05"

	// Directory layout (relative to the root)
	DefaultDataDir    = "data"
	DefaultCacheDir   = "cache"
	DefaultReportsDir = "reports"
	DefaultFiguresDir = "figures"
	DefaultLogsDir    = "logs"
	DefaultLogFile    = "taxipulse.log"

	// File naming
	CacheFilePattern   = "df_taxi_%04d_%02d.csv"
	CleanedFilePattern = "cleaned_%04d_%02d.csv"
	WorkbookPattern    = "analysis_%04d_%02d.xlsx"
	RunReportPattern   = "run_%04d_%02d.pdf"
	StagesFilePattern  = "stages_%04d_%02d.csv"
	RunHistoryFileName = "runs.csv"
	ManifestFileName   = "manifest.json"

	// NullToken marks an absent cell in cache files
	NullToken = `\N`
)
