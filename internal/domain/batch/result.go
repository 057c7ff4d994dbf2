// Package batch describes the per-document outcome of a build run.
package batch

// Status is the processing outcome of a single document.
type Status string

// Document status values.
const (
	StatusWritten  Status = "written"
	StatusRendered Status = "rendered"
	StatusFailed   Status = "failed"
)

// Result is the outcome of rendering one document of a dump.
type Result struct {
	index  int
	id     string
	name   string
	status Status
	err    error
}

// NewWritten records a document whose output was persisted under name.
func NewWritten(index int, id, name string) Result {
	return Result{index: index, id: id, name: name, status: StatusWritten}
}

// NewRendered records a document rendered without being written (dry run).
func NewRendered(index int, id, name string) Result {
	return Result{index: index, id: id, name: name, status: StatusRendered}
}

// NewFailed records a document that could not be rendered or written.
func NewFailed(index int, id string, err error) Result {
	return Result{index: index, id: id, status: StatusFailed, err: err}
}

// Index returns the position of the document in its dump.
func (r Result) Index() int { return r.index }

// ID returns the document id, empty when the document has none.
func (r Result) ID() string { return r.id }

// Name returns the output filename.
func (r Result) Name() string { return r.name }

// Status returns the processing outcome.
func (r Result) Status() Status { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts results by status.
type Summary struct {
	Written  int
	Rendered int
	Failed   int
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.status {
		case StatusWritten:
			s.Written++
		case StatusRendered:
			s.Rendered++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
