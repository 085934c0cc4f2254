// Package metrics defines observability hooks for build and stage metrics.
// The NoopRecorder is the default; the Prometheus implementation is injected
// when metrics export is configured.
package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultError   ResultLabel = "error"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder receives build observations. Implementations must be safe for
// concurrent use; document results are recorded from worker goroutines.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncDocumentResult(result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warnings|failed
}

// NoopRecorder is the default Recorder; it does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncDocumentResult(ResultLabel)              {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
