package pipeline

import (
	"time"

	"go.uber.org/zap"
)

// Step is a single state-to-state transformation. Its effects are mediated
// entirely through the driver capability carried by the state.
type Step func(s State, log *zap.SugaredLogger) (State, error)

// Pipe threads the state through steps in order, stopping at the first error.
func Pipe(s State, log *zap.SugaredLogger, steps ...Step) (State, error) {
	var err error
	for _, step := range steps {
		s, err = step(s, log)
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

// Compose fuses steps into one.
func Compose(steps ...Step) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		return Pipe(s, log, steps...)
	}
}

// RetryPolicy re-invokes a step on classified-transient failure with
// exponential backoff, up to a bounded attempt count.
type RetryPolicy struct {
	// Attempts is the total invocation bound, at least 1.
	Attempts int
	// BaseDelay is the sleep before the second attempt; attempt i+1 waits
	// BaseDelay << (i-1). There is no sleep after the final attempt.
	BaseDelay time.Duration
	// Retryable lists the failure kinds eligible for retry. Any other kind
	// propagates immediately on first occurrence.
	Retryable []FailureKind
}

func (p RetryPolicy) retryable(err error) bool {
	kind := KindOf(err)
	for _, k := range p.Retryable {
		if k == kind {
			return true
		}
	}
	return false
}

// Wrap returns an equivalent step governed by the policy. Do not wrap an
// already wrapped step: attempts multiply geometrically.
func (p RetryPolicy) Wrap(desc string, step Step) Step {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return func(s State, log *zap.SugaredLogger) (State, error) {
		var lastErr error
		for i := 1; i <= attempts; i++ {
			next, err := step(s, log)
			if err == nil {
				return next, nil
			}
			if !p.retryable(err) {
				return s, err
			}
			lastErr = err
			log.Warnf("[retry %d/%d] %s: %v", i, attempts, desc, err)
			if i < attempts {
				time.Sleep(p.BaseDelay << uint(i-1))
			}
		}
		log.Warnf("retry limit reached for %s after %d attempts", desc, attempts)
		return s, lastErr
	}
}
