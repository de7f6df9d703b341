package pipeline

import "time"

// Result reports one executor invocation: a single action or a whole block.
// A failed block never raises; the caller inspects Succeeded, Error and
// Warnings and decides whether to continue, abort the session or branch.
type Result struct {
	Duration  time.Duration
	Succeeded bool
	Error     string
	Warnings  []string
	LastValue any
}

func successResult(start time.Time, s State) Result {
	return Result{
		Duration:  time.Since(start),
		Succeeded: true,
		Warnings:  s.Warnings,
		LastValue: s.Last,
	}
}

func failedResult(start time.Time, s State, err error) Result {
	return Result{
		Duration:  time.Since(start),
		Succeeded: false,
		Error:     err.Error(),
		Warnings:  s.Warnings,
		LastValue: s.Last,
	}
}
