package site

import (
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/templates"
	"git.home.luguber.info/inful/pagesmith/internal/textio"
)

// Stage names used for timings.
const (
	StageDiscover = "discover"
	StageConvert  = "convert"
	StageIndex    = "index"
	StageStatic   = "static"
	StageImages   = "images"
)

// Report captures high-level facts about a generation run.
type Report struct {
	SchemaVersion  int
	BuildID        string
	InputDir       string
	OutputDir      string
	Start          time.Time
	End            time.Time
	Documents      int
	Succeeded      int
	Failed         int
	Issues         []ReportIssue
	StageDurations map[string]time.Duration
	SourceHash     string
	Templates      map[string]templates.Source
	Outcome        metrics.BuildOutcomeLabel
}

// ReportIssue is one recorded error. Counted is false for auxiliary failures.
type ReportIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Counted bool   `json:"counted"`
}

func newReport(buildID, inputDir string, start time.Time) *Report {
	return &Report{
		SchemaVersion:  1,
		BuildID:        buildID,
		InputDir:       inputDir,
		Start:          start,
		StageDurations: make(map[string]time.Duration),
		Templates:      make(map[string]templates.Source),
	}
}

func (r *Report) addIssue(path string, err error, counted bool) {
	r.Issues = append(r.Issues, ReportIssue{Path: path, Message: err.Error(), Counted: counted})
}

// finish stamps the end time and derives the outcome.
func (r *Report) finish(end time.Time) {
	r.End = end
	r.deriveOutcome()
}

func (r *Report) deriveOutcome() {
	switch {
	case r.Documents == 0:
		r.Outcome = metrics.OutcomeEmpty
	case r.Failed > 0:
		r.Outcome = metrics.OutcomeFailed
	case len(r.Issues) > 0:
		r.Outcome = metrics.OutcomeWarning
	default:
		r.Outcome = metrics.OutcomeSuccess
	}
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("build=%s documents=%d succeeded=%d failed=%d issues=%d duration=%s outcome=%s",
		r.BuildID, r.Documents, r.Succeeded, r.Failed, len(r.Issues), r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Persist writes the report as JSON to path atomically.
func (r *Report) Persist(path string) error {
	data, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := textio.WriteFileAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReportSerializable mirrors Report with JSON-friendly durations.
type ReportSerializable struct {
	SchemaVersion    int                         `json:"schema_version"`
	BuildID          string                      `json:"build_id"`
	InputDir         string                      `json:"input_dir"`
	OutputDir        string                      `json:"output_dir"`
	Start            time.Time                   `json:"start"`
	End              time.Time                   `json:"end"`
	DurationMS       int64                       `json:"duration_ms"`
	Outcome          string                      `json:"outcome"`
	Documents        int                         `json:"documents"`
	Succeeded        int                         `json:"succeeded"`
	Failed           int                         `json:"failed"`
	Issues           []ReportIssue               `json:"issues"`
	StageDurationsMS map[string]int64            `json:"stage_durations_ms"`
	SourceHash       string                      `json:"source_hash,omitempty"`
	Templates        map[string]templates.Source `json:"templates"`
}

func (r *Report) serializable() ReportSerializable {
	stages := make(map[string]int64, len(r.StageDurations))
	for k, v := range r.StageDurations {
		stages[k] = v.Milliseconds()
	}
	issues := r.Issues
	if issues == nil {
		issues = []ReportIssue{}
	}
	return ReportSerializable{
		SchemaVersion:    r.SchemaVersion,
		BuildID:          r.BuildID,
		InputDir:         r.InputDir,
		OutputDir:        r.OutputDir,
		Start:            r.Start,
		End:              r.End,
		DurationMS:       r.Duration().Milliseconds(),
		Outcome:          string(r.Outcome),
		Documents:        r.Documents,
		Succeeded:        r.Succeeded,
		Failed:           r.Failed,
		Issues:           issues,
		StageDurationsMS: stages,
		SourceHash:       r.SourceHash,
		Templates:        r.Templates,
	}
}
