package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	domainerrors "modcheck/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	content := `
snapshot = "build/snapshot.toml"

[analysis]
workers = 3
propagating_configurations = ["api", " exported ", "api"]

[resolver]
extra_stdlib = ["Parcelable"]
log_unresolved = true

[facts]
rate_per_second = 50

[findings]
redundant = false
ignore = [":legacy:**"]

[db]
enabled = true
path = "history.db"

[observability]
enabled = true
port = 9100

[watch]
debounce = "1s"
`
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "build/snapshot.toml", cfg.Snapshot)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, []string{"api", "exported"}, cfg.Analysis.PropagatingConfigurations)
	assert.Equal(t, []string{"test", "androidTest"}, cfg.Analysis.TestingSourceSetPrefixes)
	assert.Equal(t, []string{"Parcelable"}, cfg.Resolver.ExtraStdlib)
	assert.True(t, cfg.Resolver.LogUnresolved)
	assert.Equal(t, 50.0, cfg.Facts.RatePerSecond)
	assert.Equal(t, 1, cfg.Facts.Burst)
	assert.True(t, cfg.Findings.UnusedEnabled())
	assert.False(t, cfg.Findings.RedundantEnabled())
	assert.Equal(t, []string{":legacy:**"}, cfg.Findings.Ignore)
	assert.True(t, cfg.DB.Enabled)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 9100, cfg.Observability.Port)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "modcheck-snapshot.toml", cfg.Snapshot)
	assert.GreaterOrEqual(t, cfg.Analysis.Workers, 1)
	assert.Equal(t, []string{"api"}, cfg.Analysis.PropagatingConfigurations)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 5*time.Second, cfg.DB.BusyTimeout)
	assert.False(t, cfg.DB.Enabled)
	assert.Empty(t, Validate(cfg))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[analysis]\nthreads = 2\n", "unknown config keys: analysis.threads"},
		{"bad version", "version = 7\n", "unsupported config version 7"},
		{"bad glob", "[findings]\nignore = [\"[oops\"]\n", "findings.ignore[0]"},
		{"all findings off", "[findings]\nunused = false\ninherited = false\novershot = false\nredundant = false\n", "at least one finding"},
		{"bad base", "[analysis]\npropagating_configurations = [\"a.b\"]\n", "not a configuration base"},
		{"negative rate", "[facts]\nrate_per_second = -1.0\n", "facts.rate_per_second"},
		{"bad driver", "[db]\ndriver = \"postgres\"\n", "db.driver must be sqlite"},
		{"bad port", "[observability]\nport = 70000\n", "observability.port"},
		{"tracing without endpoint", "[observability]\nenable_tracing = true\n", "otlp_endpoint"},
		{"bad toml", "[analysis\n", "decode config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content)
			require.Error(t, err)
			assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	_, err := Parse("[db]\ndriver = \"mysql\"\n[observability]\nport = -2\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.driver")
	assert.Contains(t, err.Error(), "observability.port")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MODCHECK_ANALYSIS_WORKERS", "7")
	t.Setenv("MODCHECK_FINDINGS_IGNORE", ":a:*, :b:*")
	t.Setenv("MODCHECK_DB_ENABLED", "TRUE")
	t.Setenv("MODCHECK_WATCH_DEBOUNCE", "2s")
	t.Setenv("MODCHECK_OBSERVABILITY_PORT", "not-a-number")

	cfg, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Analysis.Workers)
	assert.Equal(t, []string{":a:*", ":b:*"}, cfg.Findings.Ignore)
	assert.True(t, cfg.DB.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 9464, cfg.Observability.Port)
}
