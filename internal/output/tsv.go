// Package output renders findings for people and scripts.
package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"modcheck/internal/core/ports"
	"modcheck/internal/data/history"
)

// TSVSink writes one tab-separated row per finding.
type TSVSink struct {
	w      io.Writer
	header bool
}

var _ ports.FindingSink = (*TSVSink)(nil)

func NewTSVSink(w io.Writer, header bool) *TSVSink {
	return &TSVSink{w: w, header: header}
}

func (t *TSVSink) Accept(ctx context.Context, findings []ports.Finding) error {
	var buf strings.Builder
	if t.header {
		buf.WriteString("Project\tKind\tConfiguration\tDependency\tFixable\tProvenance\tMessage\n")
	}
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
			f.ProjectPath(),
			f.Kind(),
			f.ConfigurationName(),
			f.DependencyIdentifier(),
			f.Fixable(),
			strings.Join(f.Provenance(), ","),
			cell(f.Message()),
		))
	}
	_, err := io.WriteString(t.w, buf.String())
	return err
}

// FormatDiff summarizes a history diff, one line per changed finding.
func FormatDiff(d history.Diff) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Compared with run %s: %d new, %d fixed\n", d.PreviousID, len(d.New), len(d.Fixed)))
	for _, r := range d.New {
		b.WriteString(fmt.Sprintf("+ %s\t%s\t%s\t%s\n", r.Project, r.Kind, r.Configuration, r.Dependency))
	}
	for _, r := range d.Fixed {
		b.WriteString(fmt.Sprintf("- %s\t%s\t%s\t%s\n", r.Project, r.Kind, r.Configuration, r.Dependency))
	}
	return b.String()
}

// cell keeps a value on one TSV row.
func cell(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
