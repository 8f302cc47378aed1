package config

import (
	"time"
)

const DefaultFile = "modcheck.toml"

type Config struct {
	Version       int           `toml:"version"`
	Snapshot      string        `toml:"snapshot"`
	Analysis      Analysis      `toml:"analysis"`
	Resolver      Resolver      `toml:"resolver"`
	Facts         Facts         `toml:"facts"`
	Findings      Findings      `toml:"findings"`
	DB            Database      `toml:"db"`
	Observability Observability `toml:"observability"`
	Watch         Watch         `toml:"watch"`
}

type Analysis struct {
	Workers                   int      `toml:"workers"`
	PropagatingConfigurations []string `toml:"propagating_configurations"`
	TestingSourceSetPrefixes  []string `toml:"testing_source_set_prefixes"`
	ContinueOnError           bool     `toml:"continue_on_error"`
}

type Resolver struct {
	ExtraStdlib   []string `toml:"extra_stdlib"`
	LogUnresolved bool     `toml:"log_unresolved"`
}

// Facts throttles the source facts provider. A zero rate disables throttling.
type Facts struct {
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

type Findings struct {
	Unused    *bool    `toml:"unused"`
	Inherited *bool    `toml:"inherited"`
	OverShot  *bool    `toml:"overshot"`
	Redundant *bool    `toml:"redundant"`
	Ignore    []string `toml:"ignore"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Driver      string        `toml:"driver"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns a configuration with every default applied, for runs
// without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func enabled(flag *bool) bool {
	return flag == nil || *flag
}

func (f Findings) UnusedEnabled() bool    { return enabled(f.Unused) }
func (f Findings) InheritedEnabled() bool { return enabled(f.Inherited) }
func (f Findings) OverShotEnabled() bool  { return enabled(f.OverShot) }
func (f Findings) RedundantEnabled() bool { return enabled(f.Redundant) }
