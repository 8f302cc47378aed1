package history

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const SchemaVersion = 1

// Run is one stored analysis run.
type Run struct {
	ID          string
	StartedAt   time.Time
	Duration    time.Duration
	Fingerprint string
	Projects    int
	Findings    []Record
}

// Record is a finding flattened for storage.
type Record struct {
	Project       string
	Kind          string
	Configuration string
	Dependency    string
	Message       string
}

// Key identifies a record across runs. The message is not part of it.
func (r Record) Key() string {
	return strings.Join([]string{r.Project, r.Kind, r.Configuration, r.Dependency}, "|")
}

// Diff compares a run with the one before it.
type Diff struct {
	PreviousID string
	New        []Record
	Fixed      []Record
}

func (d Diff) Empty() bool { return len(d.New) == 0 && len(d.Fixed) == 0 }

// NewRun starts a run record with a fresh identifier.
func NewRun(startedAt time.Time) Run {
	return Run{ID: uuid.New().String(), StartedAt: startedAt.UTC()}
}

// Compare reports what current adds to and removes from previous.
func Compare(previous, current Run) Diff {
	before := indexRecords(previous.Findings)
	after := indexRecords(current.Findings)

	d := Diff{PreviousID: previous.ID}
	for k, r := range after {
		if _, ok := before[k]; !ok {
			d.New = append(d.New, r)
		}
	}
	for k, r := range before {
		if _, ok := after[k]; !ok {
			d.Fixed = append(d.Fixed, r)
		}
	}
	sortRecords(d.New)
	sortRecords(d.Fixed)
	return d
}

func indexRecords(records []Record) map[string]Record {
	out := make(map[string]Record, len(records))
	for _, r := range records {
		out[r.Key()] = r
	}
	return out
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key() < records[j].Key()
	})
}
