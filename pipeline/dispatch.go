package pipeline

import (
	"fmt"
	"time"
)

// Dispatcher maps action descriptors onto retry-wrapped steps. It is the
// single extension point for new step behaviors and stays exhaustive over the
// recognized kind set; unknown tags fail at compile time, never mid-run.
type Dispatcher struct {
	// Policies binds each kind to its step-level retry policy. Interactive
	// clicks and visibility checks use low attempt counts with short backoff;
	// multi-stage reveals (frames, the virtual keypad) wait longer.
	Policies map[ActionKind]RetryPolicy
	// Pacing is the delay between composite-input-device presses.
	Pacing time.Duration
}

// NewDispatcher returns a dispatcher with the default per-kind retry table.
func NewDispatcher() *Dispatcher {
	t := TransientKinds()
	return &Dispatcher{
		Policies: map[ActionKind]RetryPolicy{
			ActionWaitVisible:       {Attempts: 3, BaseDelay: 2 * time.Second, Retryable: t},
			ActionWaitInvisible:     {Attempts: 3, BaseDelay: 5 * time.Second, Retryable: t},
			ActionClick:             {Attempts: 3, BaseDelay: 2 * time.Second, Retryable: t},
			ActionSendKeys:          {Attempts: 3, BaseDelay: 5 * time.Second, Retryable: t},
			ActionSelectOption:      {Attempts: 3, BaseDelay: 5 * time.Second, Retryable: t},
			ActionSwitchFrame:       {Attempts: 5, BaseDelay: 8 * time.Second, Retryable: t},
			ActionFocus:             {Attempts: 3, BaseDelay: 2 * time.Second, Retryable: t},
			ActionCompositePress:    {Attempts: 5, BaseDelay: 3 * time.Second, Retryable: t},
			ActionCompositeAccept:   {Attempts: 3, BaseDelay: 2 * time.Second, Retryable: t},
			ActionExtractStructured: {Attempts: 3, BaseDelay: 2 * time.Second, Retryable: t},
			ActionExtractAttrOrText: {Attempts: 3, BaseDelay: 2 * time.Second, Retryable: t},
		},
		Pacing: 150 * time.Millisecond,
	}
}

// Compile converts one descriptor into a retry-wrapped step. Malformed
// descriptors and unrecognized tags fail here, before anything executes.
func (d *Dispatcher) Compile(a Action) (Step, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	var step Step
	switch a.Kind {
	case ActionWaitVisible:
		step = waitFor(a, CondVisible)
	case ActionWaitInvisible:
		step = waitFor(a, CondInvisible)
	case ActionClick:
		step = click(a)
	case ActionSendKeys:
		step = sendKeys(a)
	case ActionSelectOption:
		step = selectOption(a)
	case ActionSwitchFrame:
		step = switchFrame(a)
	case ActionFocus:
		step = focus(a)
	case ActionCompositePress:
		step = compositePress(a, d.Pacing)
	case ActionCompositeAccept:
		step = compositeAccept(a)
	case ActionExtractStructured:
		step = extractStructured(a)
	case ActionExtractAttrOrText:
		step = extractAttrOrText(a)
	default:
		// unreachable after Validate; kept so the switch stays exhaustive
		return nil, NewFailure(KindConstruction,
			fmt.Sprintf("unrecognized action kind %q (%s)", a.Kind, a.Description), nil)
	}
	return d.policy(a.Kind).Wrap(a.Description, step), nil
}

// CompileAll converts a whole action list, failing on the first bad
// descriptor so a block never partially executes a malformed plan.
func (d *Dispatcher) CompileAll(actions []Action) ([]Step, error) {
	steps := make([]Step, 0, len(actions))
	for i, a := range actions {
		step, err := d.Compile(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (d *Dispatcher) policy(k ActionKind) RetryPolicy {
	if p, ok := d.Policies[k]; ok {
		return p
	}
	return RetryPolicy{Attempts: 1}
}
