package build

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Outcome is the final status of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"  // every document emitted cleanly
	OutcomeWarnings Outcome = "warnings" // some documents excluded or degraded
	OutcomeFailed   Outcome = "failed"   // build-wide fatal error
)

// Severity of a reported issue.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeverityFatal   = "fatal"
)

// Issue is one reported problem. Issues accumulate; the build never stops at
// the first per-document failure, so a summary names every affected source.
type Issue struct {
	Severity string
	Stage    StageName
	Source   string
	Message  string
}

// Report aggregates everything one build invocation did. Safe for concurrent
// use; render and compose workers append issues from their goroutines.
type Report struct {
	mu sync.Mutex

	BuildID  string
	Started  time.Time
	Finished time.Time

	StageDurations map[StageName]time.Duration
	Issues         []Issue

	Documents int // documents entering the pipeline
	Emitted   int
	Assets    int

	Outcome Outcome

	strict bool
}

// NewReport creates a report for one build invocation.
func NewReport(buildID string, strict bool) *Report {
	return &Report{
		BuildID:        buildID,
		Started:        time.Now(),
		StageDurations: map[StageName]time.Duration{},
		strict:         strict,
	}
}

// AddWarning records a warning. In strict mode warnings are promoted to
// fatal severity so the build exits non-zero.
func (r *Report) AddWarning(stage StageName, source, message string) {
	severity := SeverityWarning
	if r.strict {
		severity = SeverityFatal
	}
	r.add(Issue{Severity: severity, Stage: stage, Source: source, Message: message})
}

// AddError records a per-document error; the document is excluded but the
// build continues.
func (r *Report) AddError(stage StageName, source, message string) {
	r.add(Issue{Severity: SeverityError, Stage: stage, Source: source, Message: message})
}

// AddFatal records a build-wide fatal error.
func (r *Report) AddFatal(stage StageName, source, message string) {
	r.add(Issue{Severity: SeverityFatal, Stage: stage, Source: source, Message: message})
}

func (r *Report) add(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Issues = append(r.Issues, issue)
}

// RecordStageDuration notes how long a stage ran.
func (r *Report) RecordStageDuration(stage StageName, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StageDurations[stage] = d
}

// Count returns how many issues carry the given severity.
func (r *Report) Count(severity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// Finish stamps the end time and derives the outcome: fatal issues fail the
// build; per-document errors and warnings degrade it to OutcomeWarnings.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = time.Now()

	r.Outcome = OutcomeSuccess
	for _, issue := range r.Issues {
		switch issue.Severity {
		case SeverityFatal:
			r.Outcome = OutcomeFailed
			return
		case SeverityError, SeverityWarning:
			r.Outcome = OutcomeWarnings
		}
	}
}

// Failed reports whether the build ended with a fatal error.
func (r *Report) Failed() bool { return r.Outcome == OutcomeFailed }

// Summary renders a human-readable build summary listing every issue.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "build %s: %s in %s\n", r.BuildID, r.Outcome, r.Finished.Sub(r.Started).Round(time.Millisecond))
	fmt.Fprintf(&b, "  documents: %d, emitted: %d, assets: %d\n", r.Documents, r.Emitted, r.Assets)
	for _, issue := range r.Issues {
		src := issue.Source
		if src == "" {
			src = "(build)"
		}
		fmt.Fprintf(&b, "  [%s] %s %s: %s\n", issue.Severity, issue.Stage, src, issue.Message)
	}
	return b.String()
}
