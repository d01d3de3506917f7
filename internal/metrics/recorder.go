package metrics

import "time"

// ResultLabel enumerates per-document result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

// BuildOutcomeLabel is the final status of a generation run.
type BuildOutcomeLabel string

const (
	OutcomeSuccess BuildOutcomeLabel = "success"
	OutcomeWarning BuildOutcomeLabel = "warning"
	OutcomeFailed  BuildOutcomeLabel = "failed"
	OutcomeEmpty   BuildOutcomeLabel = "empty"
)

// Recorder defines observability hooks for a generation run. Implementations
// may forward to Prometheus or elsewhere.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	SetDocumentsDiscovered(n int)
	IncDocumentResult(result ResultLabel)
	IncAuxiliaryFailure(kind string)
	IncBuildOutcome(outcome BuildOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) SetDocumentsDiscovered(int)                 {}
func (NoopRecorder) IncDocumentResult(ResultLabel)              {}
func (NoopRecorder) IncAuxiliaryFailure(string)                 {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
