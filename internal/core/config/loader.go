package config

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	domainerrors "modcheck/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load reads, defaults, overrides from the environment and validates a
// config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeNotFound, "read config")
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes a TOML document into a validated Config.
func Parse(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, domainerrors.Newf(domainerrors.CodeValidationError, "unknown config keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalizeAnalysis(&cfg)
	normalizeFindings(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, domainerrors.Wrap(errors.Join(errs...), domainerrors.CodeValidationError, "invalid config")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Snapshot) == "" {
		cfg.Snapshot = "modcheck-snapshot.toml"
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = runtime.GOMAXPROCS(0)
	}
	if len(cfg.Analysis.PropagatingConfigurations) == 0 {
		cfg.Analysis.PropagatingConfigurations = []string{"api"}
	}
	if len(cfg.Analysis.TestingSourceSetPrefixes) == 0 {
		cfg.Analysis.TestingSourceSetPrefixes = []string{"test", "androidTest"}
	}

	if cfg.Facts.RatePerSecond > 0 && cfg.Facts.Burst <= 0 {
		cfg.Facts.Burst = 1
	}

	if strings.TrimSpace(cfg.DB.Driver) == "" {
		cfg.DB.Driver = "sqlite"
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "modcheck-history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func normalizeAnalysis(cfg *Config) {
	cfg.Analysis.PropagatingConfigurations = normalizeList(cfg.Analysis.PropagatingConfigurations)
	cfg.Analysis.TestingSourceSetPrefixes = normalizeList(cfg.Analysis.TestingSourceSetPrefixes)
	cfg.Resolver.ExtraStdlib = normalizeList(cfg.Resolver.ExtraStdlib)
}

func normalizeFindings(cfg *Config) {
	cfg.Findings.Ignore = normalizeList(cfg.Findings.Ignore)
}

// normalizeList trims entries and drops blanks and duplicates, keeping order.
func normalizeList(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
