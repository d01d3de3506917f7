package site

import "fmt"

// Labels used for errors that are not attributable to a single source document.
const (
	IndexErrorLabel        = "index.html"
	StaticAssetsErrorLabel = "static assets"
	ImageAssetsErrorLabel  = "image assets"
)

// PathError records a failure for a source path or one of the labels above.
type PathError struct {
	Path string
	Err  error
}

func (e PathError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e PathError) Unwrap() error { return e.Err }

// Result is the aggregate outcome of one generation run.
//
// SuccessCount and FailureCount cover content: documents and the auto-index.
// Auxiliary asset failures appear in Errors but are not counted.
type Result struct {
	SuccessCount int
	FailureCount int
	Errors       []PathError

	OutputDir string
	Report    *Report
}

// Empty reports whether no Markdown sources were found.
func (r *Result) Empty() bool {
	return r.SuccessCount == 0 && r.FailureCount == 0
}

func (r *Result) recordSuccess() { r.SuccessCount++ }

func (r *Result) recordFailure(path string, err error) {
	r.FailureCount++
	r.Errors = append(r.Errors, PathError{Path: path, Err: err})
}

func (r *Result) recordAuxiliary(label string, err error) {
	r.Errors = append(r.Errors, PathError{Path: label, Err: err})
}
