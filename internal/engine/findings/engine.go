package findings

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "modcheck/internal/core/errors"
	"modcheck/internal/engine/analysis"
	"modcheck/internal/engine/graph"
	"modcheck/internal/shared/observability"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Options select which findings run and how.
type Options struct {
	Kinds []Kind
	// Ignore holds glob patterns matched against dependency identifiers.
	// ':' separates path segments, so "**" is needed to cross them.
	Ignore  []string
	Workers int
	// ContinueOnError logs and skips a project whose analysis fails instead
	// of aborting the run.
	ContinueOnError bool
}

type computeFunc func(ctx context.Context, actx *analysis.Context, p *graph.Project) ([]Finding, error)

var computers = map[Kind]computeFunc{
	KindUnused:    Unused,
	KindInherited: Inherited,
	KindOverShot:  OverShot,
	KindRedundant: Redundant,
}

type Engine struct {
	actx    *analysis.Context
	kinds   []Kind
	ignore  []glob.Glob
	workers int
	lenient bool
}

// NewEngine validates opts. An empty Kinds list enables every finding.
func NewEngine(actx *analysis.Context, opts Options) (*Engine, error) {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = Kinds
	}
	for _, k := range kinds {
		if _, ok := computers[k]; !ok {
			return nil, domainerrors.Newf(domainerrors.CodeValidationError, "unknown finding kind %q", k)
		}
	}

	ignore := make([]glob.Glob, 0, len(opts.Ignore))
	for _, pattern := range opts.Ignore {
		g, err := glob.Compile(strings.TrimSpace(pattern), ':')
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid ignore pattern "+pattern)
		}
		ignore = append(ignore, g)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		actx:    actx,
		kinds:   append([]Kind(nil), kinds...),
		ignore:  ignore,
		workers: workers,
		lenient: opts.ContinueOnError,
	}, nil
}

// Run computes every enabled finding for every project. Each project and
// kind pair is an independent task.
func (e *Engine) Run(ctx context.Context) ([]Finding, error) {
	start := time.Now()
	ctx, span := observability.Tracer.Start(ctx, "findings.Run", trace.WithAttributes(
		attribute.Int("projects", e.actx.Graph().Len()),
		attribute.Int("workers", e.workers),
	))
	defer span.End()

	var (
		mu  sync.Mutex
		all []Finding
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, p := range e.actx.Graph().Projects() {
		for _, kind := range e.kinds {
			g.Go(func() error {
				found, err := e.compute(gctx, p, kind)
				if err != nil {
					if e.lenient && gctx.Err() == nil {
						slog.Error("skipping project", "project", p.Path().String(), "finding", string(kind), "error", err)
						return nil
					}
					return err
				}
				mu.Lock()
				all = append(all, found...)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := e.finish(all)
	observability.AnalysisDuration.WithLabelValues("findings").Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("findings", len(out)))
	return out, nil
}

// ForProject computes the enabled findings of a single project.
func (e *Engine) ForProject(ctx context.Context, path graph.ProjectPath) ([]Finding, error) {
	p, err := e.actx.Graph().Project(path)
	if err != nil {
		return nil, err
	}
	var all []Finding
	for _, kind := range e.kinds {
		found, err := e.compute(ctx, p, kind)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return e.finish(all), nil
}

func (e *Engine) compute(ctx context.Context, p *graph.Project, kind Kind) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := computers[kind](ctx, e.actx, p)
	if err != nil {
		err = domainerrors.AddContext(err, domainerrors.CtxProject, p.Path().String())
		return nil, domainerrors.AddContext(err, domainerrors.CtxOperation, string(kind))
	}
	return found, nil
}

func (e *Engine) finish(all []Finding) []Finding {
	out := make([]Finding, 0, len(all))
	for _, f := range all {
		if e.ignored(f) {
			continue
		}
		out = append(out, f)
		observability.FindingsTotal.WithLabelValues(f.Kind()).Inc()
	}
	Sort(out)
	return out
}

func (e *Engine) ignored(f Finding) bool {
	for _, g := range e.ignore {
		if g.Match(f.DependencyIdentifier()) {
			return true
		}
	}
	return false
}

// Sort orders findings by project, kind, configuration, dependency and
// message.
func Sort(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if pa, pb := graph.NewProjectPath(a.ProjectPath()).Key(), graph.NewProjectPath(b.ProjectPath()).Key(); pa != pb {
			return pa < pb
		}
		if ka, kb := Kind(a.Kind()).order(), Kind(b.Kind()).order(); ka != kb {
			return ka < kb
		}
		if a.ConfigurationName() != b.ConfigurationName() {
			return a.ConfigurationName() < b.ConfigurationName()
		}
		if a.DependencyIdentifier() != b.DependencyIdentifier() {
			return a.DependencyIdentifier() < b.DependencyIdentifier()
		}
		return a.Message() < b.Message()
	})
}
