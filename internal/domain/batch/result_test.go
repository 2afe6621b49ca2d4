package batch

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK("US-1")
	if r.ID() != "US-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("embed failed")
	r := NewError("US-2", err)
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestSummary_Add(t *testing.T) {
	s := NewSummary()
	s.Add(NewOK("a"))
	s.Add(NewOK("b"))
	s.Add(NewSkipped("c"))
	s.Add(NewError("d", errors.New("boom")))

	if s.Indexed != 2 || s.Skipped != 1 || s.Errors != 1 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Failures) != 1 || s.Failures[0].ID != "d" || s.Failures[0].Error != "boom" {
		t.Errorf("failures = %+v", s.Failures)
	}
	if s.Processed() != 4 {
		t.Errorf("Processed() = %d", s.Processed())
	}
}

func TestSummary_FailuresBounded(t *testing.T) {
	s := NewSummary()
	for i := 0; i < MaxFailures+5; i++ {
		s.Add(NewError(fmt.Sprintf("id-%d", i), errors.New("x")))
	}
	if s.Errors != MaxFailures+5 {
		t.Errorf("Errors = %d", s.Errors)
	}
	if len(s.Failures) != MaxFailures {
		t.Errorf("len(Failures) = %d, want %d", len(s.Failures), MaxFailures)
	}
}

func TestSummary_Merge(t *testing.T) {
	a := NewSummary()
	a.Add(NewOK("a"))
	b := NewSummary()
	b.Add(NewSkipped("b"))
	b.Add(NewError("c", errors.New("x")))

	a.Merge(b)
	if a.Indexed != 1 || a.Skipped != 1 || a.Errors != 1 || len(a.Failures) != 1 {
		t.Errorf("merged = %+v", a)
	}

	var zero Summary
	zero.Merge(Summary{})
	if zero.Failures == nil {
		t.Error("Merge should leave a non-nil failure list")
	}
}
