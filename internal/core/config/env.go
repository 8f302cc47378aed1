package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: MODCHECK_[SECTION]_[KEY] (e.g., MODCHECK_OBSERVABILITY_PORT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Snapshot, "MODCHECK_SNAPSHOT")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "MODCHECK_ANALYSIS_WORKERS")
	setEnvList(&cfg.Analysis.PropagatingConfigurations, "MODCHECK_ANALYSIS_PROPAGATING_CONFIGURATIONS")
	setEnvList(&cfg.Analysis.TestingSourceSetPrefixes, "MODCHECK_ANALYSIS_TESTING_SOURCE_SET_PREFIXES")
	setEnvBool(&cfg.Analysis.ContinueOnError, "MODCHECK_ANALYSIS_CONTINUE_ON_ERROR")

	// Resolver
	setEnvList(&cfg.Resolver.ExtraStdlib, "MODCHECK_RESOLVER_EXTRA_STDLIB")
	setEnvBool(&cfg.Resolver.LogUnresolved, "MODCHECK_RESOLVER_LOG_UNRESOLVED")

	// Facts
	setEnvFloat64(&cfg.Facts.RatePerSecond, "MODCHECK_FACTS_RATE_PER_SECOND")
	setEnvInt(&cfg.Facts.Burst, "MODCHECK_FACTS_BURST")

	// Findings
	setEnvList(&cfg.Findings.Ignore, "MODCHECK_FINDINGS_IGNORE")

	// Database
	setEnvBool(&cfg.DB.Enabled, "MODCHECK_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "MODCHECK_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "MODCHECK_DB_BUSY_TIMEOUT")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "MODCHECK_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "MODCHECK_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "MODCHECK_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "MODCHECK_OBSERVABILITY_ENABLE_TRACING")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "MODCHECK_WATCH_DEBOUNCE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
