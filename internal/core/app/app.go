// Package app wires configuration, snapshot loading, analysis and history
// into single runs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"modcheck/internal/core/config"
	"modcheck/internal/core/errors"
	"modcheck/internal/core/ports"
	"modcheck/internal/data/history"
	"modcheck/internal/data/snapshot"
	"modcheck/internal/engine/analysis"
	"modcheck/internal/engine/facts"
	"modcheck/internal/engine/findings"
	"modcheck/internal/engine/graph"
	"modcheck/internal/engine/resolver"
	"modcheck/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type App struct {
	Config *config.Config

	stdlib  *resolver.Stdlib
	history *history.Store

	mu      sync.RWMutex
	last    *ports.AnalyzeResult
	lastErr error
}

// New opens the history store when enabled. The caller owns Close.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	a := &App{
		Config: cfg,
		stdlib: resolver.NewStdlib(cfg.Resolver.ExtraStdlib...),
	}
	if cfg.DB.Enabled {
		store, err := history.Open(cfg.DB.Path, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "open history")
		}
		a.history = store
	}
	return a, nil
}

func (a *App) Close(ctx context.Context) error {
	if a == nil || a.history == nil {
		return nil
	}
	return a.history.Close()
}

// Analyze runs every enabled finding over the snapshot at path. Each call
// builds a fresh analysis context.
func (a *App) Analyze(ctx context.Context, path string) (ports.AnalyzeResult, error) {
	result, err := a.analyze(ctx, path)
	a.mu.Lock()
	if err == nil {
		a.last = &result
	}
	a.lastErr = err
	a.mu.Unlock()
	return result, err
}

func (a *App) analyze(ctx context.Context, path string) (ports.AnalyzeResult, error) {
	start := time.Now()
	ctx, span := observability.Tracer.Start(ctx, "app.Analyze", trace.WithAttributes(attribute.String("snapshot", path)))
	defer span.End()

	snap, err := snapshot.Load(path)
	if err != nil {
		span.RecordError(err)
		return ports.AnalyzeResult{}, err
	}
	g, err := graph.Build(snap.Graph, graph.Options{
		PropagatingBases: a.Config.Analysis.PropagatingConfigurations,
		TestingPrefixes:  a.Config.Analysis.TestingSourceSetPrefixes,
	})
	if err != nil {
		span.RecordError(err)
		return ports.AnalyzeResult{}, errors.AddContext(err, errors.CtxPath, path)
	}

	resources := make([]ports.ResourceIndexProvider, 0, len(snap.Resources))
	for _, r := range snap.Resources {
		resources = append(resources, r)
	}
	provider := facts.NewThrottled(snap.Facts, a.Config.Facts.RatePerSecond, a.Config.Facts.Burst)
	actx := analysis.New(g, provider, resources, analysis.Options{
		Stdlib:        a.stdlib,
		LogUnresolved: a.Config.Resolver.LogUnresolved,
	})

	engine, err := findings.NewEngine(actx, a.engineOptions())
	if err != nil {
		return ports.AnalyzeResult{}, err
	}
	found, err := engine.Run(ctx)
	if err != nil {
		span.RecordError(err)
		return ports.AnalyzeResult{}, err
	}

	run := history.NewRun(start)
	run.Duration = time.Since(start)
	run.Fingerprint = snap.Fingerprint
	run.Projects = g.Len()
	run.Findings = records(found)

	result := ports.AnalyzeResult{
		RunID:       run.ID,
		Fingerprint: snap.Fingerprint,
		Projects:    g.Len(),
		Findings:    findings.AsPorts(found),
		Duration:    run.Duration,
	}
	if a.history != nil {
		diff, err := a.record(ctx, run)
		if err != nil {
			// History is best effort; the findings are still valid.
			slog.Warn("failed to record run history", "run", run.ID, "error", err)
		} else {
			result.Diff = diff
		}
	}

	observability.AnalysisDuration.WithLabelValues("run").Observe(time.Since(start).Seconds())
	slog.Info("analysis complete",
		"projects", result.Projects,
		"findings", len(result.Findings),
		"fingerprint", result.Fingerprint,
		"duration", result.Duration)
	return result, nil
}

func (a *App) engineOptions() findings.Options {
	f := a.Config.Findings
	var kinds []findings.Kind
	for _, k := range []struct {
		kind    findings.Kind
		enabled bool
	}{
		{findings.KindUnused, f.UnusedEnabled()},
		{findings.KindInherited, f.InheritedEnabled()},
		{findings.KindOverShot, f.OverShotEnabled()},
		{findings.KindRedundant, f.RedundantEnabled()},
	} {
		if k.enabled {
			kinds = append(kinds, k.kind)
		}
	}
	return findings.Options{
		Kinds:           kinds,
		Ignore:          f.Ignore,
		Workers:         a.Config.Analysis.Workers,
		ContinueOnError: a.Config.Analysis.ContinueOnError,
	}
}

// record stores run and compares it with the previous one. The first run
// has no diff.
func (a *App) record(ctx context.Context, run history.Run) (*history.Diff, error) {
	previous, ok, err := a.history.LatestRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("load previous run: %w", err)
	}
	if err := a.history.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	if !ok {
		return nil, nil
	}
	diff := history.Compare(previous, run)
	return &diff, nil
}

func records(in []findings.Finding) []history.Record {
	out := make([]history.Record, len(in))
	for i, f := range in {
		out[i] = history.Record{
			Project:       f.ProjectPath(),
			Kind:          f.Kind(),
			Configuration: f.ConfigurationName(),
			Dependency:    f.DependencyIdentifier(),
			Message:       f.Message(),
		}
	}
	return out
}

// LastResult returns the most recent successful run, if any.
func (a *App) LastResult() (ports.AnalyzeResult, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return ports.AnalyzeResult{}, false
	}
	return *a.last, true
}
