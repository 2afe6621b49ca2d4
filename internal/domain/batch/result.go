package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusSkipped ItemStatus = "skipped"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewSkipped creates a result for an item that was intentionally not processed.
func NewSkipped(id string) Result { return Result{id: id, status: StatusSkipped} }

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// MaxFailures bounds the failure details kept in a Summary.
const MaxFailures = 100

// Failure is a reported per-item error.
type Failure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Summary accumulates batch outcomes. Errors never abort a run; they are counted here.
type Summary struct {
	Indexed  int       `json:"indexed"`
	Skipped  int       `json:"skipped"`
	Errors   int       `json:"errors"`
	Failures []Failure `json:"failures"`
}

// NewSummary returns an empty summary with a non-nil failure list.
func NewSummary() Summary { return Summary{Failures: []Failure{}} }

// Add records one item outcome.
func (s *Summary) Add(r Result) {
	switch r.status {
	case StatusOK:
		s.Indexed++
	case StatusSkipped:
		s.Skipped++
	case StatusError:
		s.Errors++
		if len(s.Failures) < MaxFailures && r.err != nil {
			s.Failures = append(s.Failures, Failure{ID: r.id, Error: r.err.Error()})
		}
	}
}

// Merge folds another summary into s.
func (s *Summary) Merge(o Summary) {
	s.Indexed += o.Indexed
	s.Skipped += o.Skipped
	s.Errors += o.Errors
	for _, f := range o.Failures {
		if len(s.Failures) >= MaxFailures {
			break
		}
		s.Failures = append(s.Failures, f)
	}
	if s.Failures == nil {
		s.Failures = []Failure{}
	}
}

// Processed returns the number of items seen.
func (s Summary) Processed() int { return s.Indexed + s.Skipped + s.Errors }
