package ports

import (
	"context"
	"time"

	"modcheck/internal/data/history"
	"modcheck/internal/engine/facts"
	"modcheck/internal/engine/names"
)

// SourceFactsProvider hands out the parsed facts of one project source set.
// Parsers live behind this port; calls may block on I/O.
type SourceFactsProvider interface {
	SourceFacts(ctx context.Context, project, sourceSet string) ([]facts.FileFacts, error)
}

// ResourceIndexProvider exposes generated symbols of one kind, such as
// resource identifiers or view bindings. The analysis calls it and never
// builds the index itself.
type ResourceIndexProvider interface {
	Origin() names.Origin
	// All returns the symbols the project itself generates for sourceSet.
	All(ctx context.Context, project, sourceSet string) ([]names.DeclaredName, error)
	// LocalOrNull returns the project's own generated class, or nil.
	LocalOrNull(ctx context.Context, project, sourceSet string) (*names.DeclaredName, error)
}

// Finding is the reporting surface of a dependency-health finding.
type Finding interface {
	Kind() string
	ProjectPath() string
	ConfigurationName() string
	DependencyIdentifier() string
	Message() string
	Fixable() bool
	// Provenance lists the dependencies that explain the finding, such as
	// the direct edges that already provide a redundant dependency.
	Provenance() []string
}

// FindingSink consumes findings, e.g. a reporter or an auto-fixer.
type FindingSink interface {
	Accept(ctx context.Context, findings []Finding) error
}

// HistoryStore persists analysis runs for new/fixed comparisons.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run) error
	LatestRun(ctx context.Context) (history.Run, bool, error)
}

// AnalyzeRequest describes one analysis run.
type AnalyzeRequest struct {
	SnapshotPath string
}

// AnalyzeResult summarizes a completed run.
type AnalyzeResult struct {
	RunID       string
	Fingerprint string
	Projects    int
	Findings    []Finding
	Diff        *history.Diff
	Duration    time.Duration
}

// AnalysisService is the driving port used by the CLI and watch mode.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
}
