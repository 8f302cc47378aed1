package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Validate returns every problem found, not just the first.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateAnalysis,
		validateFacts,
		validateFindings,
		validateDatabase,
		validateObservability,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be >= 1, got %d", cfg.Analysis.Workers)
	}
	for i, base := range cfg.Analysis.PropagatingConfigurations {
		if strings.ContainsAny(base, " \t:.") {
			return fmt.Errorf("analysis.propagating_configurations[%d] %q is not a configuration base", i, base)
		}
	}
	return nil
}

func validateFacts(cfg *Config) error {
	if cfg.Facts.RatePerSecond < 0 {
		return fmt.Errorf("facts.rate_per_second must be >= 0, got %v", cfg.Facts.RatePerSecond)
	}
	if cfg.Facts.Burst < 0 {
		return fmt.Errorf("facts.burst must be >= 0, got %d", cfg.Facts.Burst)
	}
	return nil
}

func validateFindings(cfg *Config) error {
	f := cfg.Findings
	if !f.UnusedEnabled() && !f.InheritedEnabled() && !f.OverShotEnabled() && !f.RedundantEnabled() {
		return fmt.Errorf("findings: at least one finding must be enabled")
	}
	for i, pattern := range f.Ignore {
		if _, err := glob.Compile(pattern, ':'); err != nil {
			return fmt.Errorf("findings.ignore[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if driver != "sqlite" {
		return fmt.Errorf("db.driver must be sqlite, got %q", cfg.DB.Driver)
	}
	if cfg.DB.Enabled && strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	o := cfg.Observability
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("observability.port must be between 1 and 65535, got %d", o.Port)
	}
	if o.EnableTracing && strings.TrimSpace(o.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint must not be empty when enable_tracing=true")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", cfg.Watch.Debounce)
	}
	return nil
}
