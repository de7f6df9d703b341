package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BlockOptions bound the block-level retry loop.
type BlockOptions struct {
	// Attempts is the whole-block invocation bound; defaults to 3.
	Attempts int
	// Delay is the fixed sleep between block attempts. Deliberately
	// non-exponential: step retries are cheap, a full-block redo is not.
	Delay time.Duration
	// BeforeRetry, when set, runs after a failed attempt to put the UI back
	// into a known shape (dismiss a dialog, reload). Its failures are
	// recorded as warnings, never propagated.
	BeforeRetry func() error
	// Dispatcher overrides the default action dispatch table.
	Dispatcher *Dispatcher
}

// RunAction executes a single descriptor against the state and reports the
// outcome. On failure the returned state carries a diagnostic warning; the
// error itself lives in the result.
func RunAction(s State, a Action, log *zap.SugaredLogger, d *Dispatcher) (State, Result) {
	start := time.Now()
	if d == nil {
		d = NewDispatcher()
	}
	step, err := d.Compile(a)
	if err != nil {
		return s, failedResult(start, s, err)
	}
	next, err := step(s, log)
	if err != nil {
		log.Errorf("action failed: %s: %v", a.Description, err)
		next = s.AppendWarning("action failed: " + a.Description)
		return next, failedResult(start, next, err)
	}
	return next, successResult(start, next)
}

// RunBlock executes an ordered action list as one retry unit. Every attempt
// restarts from the state taken at block entry: mid-block UI state after a
// partial failure is assumed unreliable, so partial progress is discarded
// rather than resumed. On exhaustion the pre-block snapshot comes back with a
// failed result carrying the last error; RunBlock never panics or raises.
func RunBlock(s State, actions []Action, log *zap.SugaredLogger, opts BlockOptions) (State, Result) {
	start := time.Now()
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 3
	}
	d := opts.Dispatcher
	if d == nil {
		d = NewDispatcher()
	}

	// Compile everything up front: a malformed descriptor anywhere in the
	// list fails the block before any step runs.
	steps, err := d.CompileAll(actions)
	if err != nil {
		return s, failedResult(start, s, err)
	}

	base := s
	var hookWarnings []string
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		working := base.appendWarnings(hookWarnings)
		var stepErr error
		for i, step := range steps {
			working, stepErr = step(working, log)
			if stepErr != nil {
				log.Errorf("[block %d/%d] action %q failed: %v",
					attempt, attempts, actions[i].Description, stepErr)
				break
			}
		}
		if stepErr == nil {
			return working, successResult(start, working)
		}
		lastErr = stepErr
		if opts.BeforeRetry != nil {
			if herr := opts.BeforeRetry(); herr != nil {
				log.Warnf("block recovery hook failed: %v", herr)
				hookWarnings = append(hookWarnings,
					fmt.Sprintf("recovery hook failed: %v", herr))
			}
		}
		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}
	final := base.appendWarnings(hookWarnings)
	return final, failedResult(start, final, lastErr)
}
