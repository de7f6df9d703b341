package pipeline

// State is the immutable execution context threaded through every step. Each
// transition returns a fresh value differing only in the fields explicitly
// updated; Driver is set once at session start and never altered mid-run.
type State struct {
	// Driver is the active browser capability handle.
	Driver Driver
	// Scope, when set, is the search root for subsequent locate operations.
	// Nil means search from document root.
	Scope Element
	// Last holds the last-produced value: an element reference, extracted
	// text, or a structured extraction record.
	Last any
	// Warnings accumulate across the run for postmortem diagnostics. They
	// are never cleared.
	Warnings []string
}

// NewState wraps a freshly opened driver handle.
func NewState(d Driver) State {
	return State{Driver: d}
}

// WithScope returns a copy with the search scope replaced.
func (s State) WithScope(e Element) State {
	s.Scope = e
	return s
}

// WithLast returns a copy with the last-produced value replaced.
func (s State) WithLast(v any) State {
	s.Last = v
	return s
}

// AppendWarning returns a copy with msg appended. The backing array is copied
// so sibling lineages never observe each other's warnings.
func (s State) AppendWarning(msg string) State {
	return s.appendWarnings([]string{msg})
}

func (s State) appendWarnings(msgs []string) State {
	if len(msgs) == 0 {
		return s
	}
	w := make([]string, len(s.Warnings), len(s.Warnings)+len(msgs))
	copy(w, s.Warnings)
	s.Warnings = append(w, msgs...)
	return s
}
