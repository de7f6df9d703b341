package pipeline

import (
	"errors"
	"fmt"
)

// FailureKind is the closed classification of step failures. The driver
// capability tags every error with one of these, so retry eligibility is a
// plain set membership check instead of type introspection.
type FailureKind string

const (
	// Transient-interaction kinds, eligible for step-level retry.
	KindTimeout         FailureKind = "timeout"
	KindStale           FailureKind = "stale"
	KindIntercepted     FailureKind = "intercepted"
	KindNotInteractable FailureKind = "not_interactable"
	KindAbsent          FailureKind = "absent"

	// KindConstruction marks malformed descriptors and unrecognized action
	// tags. Never retried; surfaced before anything executes.
	KindConstruction FailureKind = "construction"

	// KindUnknown covers everything the driver could not classify.
	KindUnknown FailureKind = "unknown"
)

// Failure is an error carrying its classified kind and the operation that
// produced it.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func NewFailure(kind FailureKind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Op, f.Err)
	}
	return f.Op
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf recovers the classified kind of an error. Errors that did not come
// from the driver capability are KindUnknown and therefore never retried.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// TransientKinds returns the failure kinds arising from timing and visibility
// races in the external UI surface.
func TransientKinds() []FailureKind {
	return []FailureKind{KindTimeout, KindStale, KindIntercepted, KindNotInteractable, KindAbsent}
}
