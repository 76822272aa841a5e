package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Jobs are the station runs to execute, in order.
	Jobs []Job

	MaxConcurrentDownloads int
	FetchTimeout           time.Duration
	OutputFormats          []string
	ParquetCompression     string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// LedgerPath is the SQLite run ledger file. Empty disables the ledger.
	LedgerPath string

	// ScheduleCron runs the jobs on a cron schedule. Empty runs them once and exits.
	ScheduleCron    string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first if present; variables
// already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	maxConcurrent, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAX_CONCURRENT_DOWNLOADS", "20"))
	if err != nil || maxConcurrent < 1 || maxConcurrent > 200 {
		return nil, errors.New("MAX_CONCURRENT_DOWNLOADS must be an integer between 1 and 200")
	}

	formats, err := parseOutputFormats(sharedcfg.EnvOrDefault("OUTPUT_FORMATS", "csv"))
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MaxConcurrentDownloads: maxConcurrent,
		FetchTimeout:           fetchTimeout,
		OutputFormats:          formats,
		ParquetCompression:     sharedcfg.EnvOrDefault("PARQUET_COMPRESSION", "SNAPPY"),
		KafkaEnabled:           kafkaEnabled,
		KafkaBrokers:           sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:             sharedcfg.EnvOrDefault("KAFKA_TOPIC", "climate-station-observations"),
		LedgerPath:             os.Getenv("LEDGER_PATH"),
		ScheduleCron:           strings.TrimSpace(os.Getenv("SCHEDULE_CRON")),
		HTTPAddr:               sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:               sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:        shutdownTimeout,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	base, err := baseJob()
	if err != nil {
		return nil, err
	}

	if path := os.Getenv("JOBS_FILE"); path != "" {
		cfg.Jobs, err = LoadJobs(path, base)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	job, err := envJob(base)
	if err != nil {
		return nil, err
	}
	cfg.Jobs = []Job{job}
	return cfg, nil
}

// WritesFormat reports whether artifacts should be written in the given format.
func (c *Config) WritesFormat(format string) bool {
	for _, f := range c.OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

func parseOutputFormats(s string) ([]string, error) {
	var formats []string
	seen := map[string]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		if f != "csv" && f != "parquet" {
			return nil, fmt.Errorf("OUTPUT_FORMATS: unsupported format %q", f)
		}
		seen[f] = true
		formats = append(formats, f)
	}
	if !seen["csv"] {
		return nil, errors.New("OUTPUT_FORMATS must include csv")
	}
	return formats, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}
