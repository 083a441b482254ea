package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Events   EventsConfig   `yaml:"events" envconfig:"EVENTS"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	OTel     OTelConfig     `yaml:"otel" envconfig:"OTEL"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// SourceConfig describes where raw trip extracts and the zone lookup are fetched from
type SourceConfig struct {
	TripURLTemplate string        `yaml:"trip_url_template" envconfig:"TRIP_URL_TEMPLATE" default:"https://nyc-tlc.s3.amazonaws.com/trip+data/{fleet}_tripdata_{year}-{month}.csv" validate:"required,contains={fleet}"`
	ZoneLookupURL   string        `yaml:"zone_lookup_url" envconfig:"ZONE_LOOKUP_URL" default:"https://s3.amazonaws.com/nyc-tlc/misc/taxi+_zone_lookup.csv" validate:"required,url"`
	Fleets          []string      `yaml:"fleets" envconfig:"FLEETS" default:"yellow,green,fhv,fhvhv" validate:"required,min=1,dive,oneof=yellow green fhv fhvhv"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10m" validate:"gt=0"`
	RequestsPerSec  float64       `yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC" default:"2" validate:"gt=0"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"taxipulse-loader"`
}

// PipelineConfig holds the cleaning and analysis parameters
type PipelineConfig struct {
	TimestampLayout string  `yaml:"timestamp_layout" envconfig:"TIMESTAMP_LAYOUT" default:"2006-01-02 15:04:05" validate:"required"`
	ReservedZones   []int   `yaml:"reserved_zones" envconfig:"RESERVED_ZONES" default:"264,265"`
	RoutePickup     int     `yaml:"route_pickup" envconfig:"ROUTE_PICKUP" default:"132" validate:"min=1"`
	RouteDropoff    int     `yaml:"route_dropoff" envconfig:"ROUTE_DROPOFF" default:"138" validate:"min=1"`
	RouteMinMinutes float64 `yaml:"route_min_minutes" envconfig:"ROUTE_MIN_MINUTES" default:"8" validate:"gte=0"`
	RouteMaxMinutes float64 `yaml:"route_max_minutes" envconfig:"ROUTE_MAX_MINUTES" default:"60" validate:"gtfield=RouteMinMinutes"`
	BoxCoxLambda    float64 `yaml:"box_cox_lambda" envconfig:"BOX_COX_LAMBDA" default:"-0.42"`
	TestFraction    float64 `yaml:"test_fraction" envconfig:"TEST_FRACTION" default:"0.2" validate:"gt=0,lt=1"`
	PolynomialDeg   int     `yaml:"polynomial_degree" envconfig:"POLYNOMIAL_DEGREE" default:"2" validate:"min=1,max=5"`
	Seed            uint64  `yaml:"seed" envconfig:"SEED" default:"42"`
}

// StorageConfig selects the database the processor persists aggregates into
type StorageConfig struct {
	DSN          string        `yaml:"dsn" envconfig:"DSN" default:"sqlite://data/taxipulse.db"`
	MaxOpenConns int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"10" validate:"min=1"`
	ConnMaxLife  time.Duration `yaml:"conn_max_life" envconfig:"CONN_MAX_LIFE" default:"30m"`
}

// EventsConfig configures run event publishing. An empty URL disables it.
type EventsConfig struct {
	NATSURL    string `yaml:"nats_url" envconfig:"NATS_URL"`
	ClientName string `yaml:"client_name" envconfig:"CLIENT_NAME" default:"taxipulse"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	CacheSize       int             `yaml:"cache_size" envconfig:"CACHE_SIZE" default:"256" validate:"min=1"`
	CacheTTL        time.Duration   `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"5m"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"stdout" validate:"oneof=stdout console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/taxipulse.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// OTelConfig contains OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"taxipulse"`
	ServiceVersion string `yaml:"service_version" envconfig:"SERVICE_VERSION" default:"0.3.0"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TracesEnabled  bool   `yaml:"traces_enabled" envconfig:"TRACES_ENABLED" default:"false"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=none stdout"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
	MetricsAddr    string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
}

// PathsConfig overrides the directory layout
type PathsConfig struct {
	Root    string `yaml:"root" envconfig:"ROOT"`
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Load loads configuration from a .env file, environment variables and an optional config file
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs lets values from the config file replace defaults that were
// not explicitly set in the environment
func mergeConfigs(fileConfig, envConfig Config) Config {
	set := func(key string) bool {
		_, ok := os.LookupEnv(EnvPrefix + "_" + key)
		return ok
	}

	if fileConfig.Source.TripURLTemplate != "" && !set("SOURCE_TRIP_URL_TEMPLATE") {
		envConfig.Source.TripURLTemplate = fileConfig.Source.TripURLTemplate
	}
	if fileConfig.Source.ZoneLookupURL != "" && !set("SOURCE_ZONE_LOOKUP_URL") {
		envConfig.Source.ZoneLookupURL = fileConfig.Source.ZoneLookupURL
	}
	if len(fileConfig.Source.Fleets) > 0 && !set("SOURCE_FLEETS") {
		envConfig.Source.Fleets = fileConfig.Source.Fleets
	}
	if fileConfig.Source.Timeout > 0 && !set("SOURCE_TIMEOUT") {
		envConfig.Source.Timeout = fileConfig.Source.Timeout
	}
	if fileConfig.Source.RequestsPerSec > 0 && !set("SOURCE_REQUESTS_PER_SEC") {
		envConfig.Source.RequestsPerSec = fileConfig.Source.RequestsPerSec
	}
	if len(fileConfig.Pipeline.ReservedZones) > 0 && !set("PIPELINE_RESERVED_ZONES") {
		envConfig.Pipeline.ReservedZones = fileConfig.Pipeline.ReservedZones
	}
	if fileConfig.Pipeline.RoutePickup > 0 && !set("PIPELINE_ROUTE_PICKUP") {
		envConfig.Pipeline.RoutePickup = fileConfig.Pipeline.RoutePickup
	}
	if fileConfig.Pipeline.RouteDropoff > 0 && !set("PIPELINE_ROUTE_DROPOFF") {
		envConfig.Pipeline.RouteDropoff = fileConfig.Pipeline.RouteDropoff
	}
	if fileConfig.Storage.DSN != "" && !set("STORAGE_DSN") {
		envConfig.Storage.DSN = fileConfig.Storage.DSN
	}
	if fileConfig.Events.NATSURL != "" && !set("EVENTS_NATS_URL") {
		envConfig.Events.NATSURL = fileConfig.Events.NATSURL
	}
	if fileConfig.Server.Port != 0 && !set("SERVER_PORT") {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Logging.Level != "" && !set("LOGGING_LEVEL") {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Output != "" && !set("LOGGING_OUTPUT") {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Paths.Root != "" && !set("PATHS_ROOT") {
		envConfig.Paths.Root = fileConfig.Paths.Root
	}

	return envConfig
}

// Validate checks struct constraints and cross-field rules
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	if !strings.Contains(c.Source.TripURLTemplate, "{year}") || !strings.Contains(c.Source.TripURLTemplate, "{month}") {
		return fmt.Errorf("trip url template must contain {year} and {month}: %q", c.Source.TripURLTemplate)
	}

	for _, zone := range c.Pipeline.ReservedZones {
		if zone <= 0 {
			return fmt.Errorf("invalid reserved zone: %d", zone)
		}
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(DefaultLogsDir, DefaultLogFile)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			TripURLTemplate: DefaultTripURLTemplate,
			ZoneLookupURL:   DefaultZoneLookupURL,
			Fleets:          []string{"yellow", "green", "fhv", "fhvhv"},
			Timeout:         DefaultFetchTimeout,
			RequestsPerSec:  2,
			UserAgent:       "taxipulse-loader",
		},
		Pipeline: PipelineConfig{
			TimestampLayout: TimestampLayout,
			ReservedZones:   []int{264, 265},
			RoutePickup:     132,
			RouteDropoff:    138,
			RouteMinMinutes: 8,
			RouteMaxMinutes: 60,
			BoxCoxLambda:    -0.42,
			TestFraction:    0.2,
			PolynomialDeg:   2,
			Seed:            42,
		},
		Storage: StorageConfig{
			DSN:          "sqlite://data/taxipulse.db",
			MaxOpenConns: 10,
			ConnMaxLife:  30 * time.Minute,
		},
		Events: EventsConfig{
			ClientName: "taxipulse",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CacheSize:       256,
			CacheTTL:        5 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: filepath.Join(DefaultLogsDir, DefaultLogFile),
		},
		OTel: OTelConfig{
			ServiceName:    AppName,
			ServiceVersion: "0.3.0",
			Environment:    "development",
			TraceExporter:  "none",
			MetricsEnabled: true,
		},
		Paths: PathsConfig{
			DataDir: DefaultDataDir,
			LogsDir: DefaultLogsDir,
		},
	}
}
