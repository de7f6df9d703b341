package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// ActionKind tags a declarative action descriptor. The set is closed: an
// unrecognized tag is a construction-time error, never a runtime one.
type ActionKind string

const (
	ActionWaitVisible       ActionKind = "wait_visible"
	ActionWaitInvisible     ActionKind = "wait_invisible"
	ActionClick             ActionKind = "click"
	ActionSendKeys          ActionKind = "send_keys"
	ActionSelectOption      ActionKind = "select_option"
	ActionSwitchFrame       ActionKind = "switch_frame"
	ActionFocus             ActionKind = "focus"
	ActionCompositePress    ActionKind = "composite_input_press"
	ActionCompositeAccept   ActionKind = "composite_input_accept"
	ActionExtractStructured ActionKind = "extract_structured"
	ActionExtractAttrOrText ActionKind = "extract_attribute_or_text"
)

var actionKinds = map[ActionKind]bool{
	ActionWaitVisible:       true,
	ActionWaitInvisible:     true,
	ActionClick:             true,
	ActionSendKeys:          true,
	ActionSelectOption:      true,
	ActionSwitchFrame:       true,
	ActionFocus:             true,
	ActionCompositePress:    true,
	ActionCompositeAccept:   true,
	ActionExtractStructured: true,
	ActionExtractAttrOrText: true,
}

// KnownActionKind reports whether k is a recognized tag.
func KnownActionKind(k ActionKind) bool { return actionKinds[k] }

// Action is an immutable declarative descriptor dispatched to a concrete step.
type Action struct {
	Kind        ActionKind
	Description string
	Locator     Locator
	Timeout     time.Duration
	// Target, when set, is an explicit search root bypassing the state scope.
	Target Element
	// Payload carries keys to send, the option value to select, the digits of
	// a composite input device, or the attribute name to extract.
	Payload string
}

// Validate fails fast on unrecognized kinds and malformed descriptors so bad
// actions never reach execution.
func (a Action) Validate() error {
	if !KnownActionKind(a.Kind) {
		return NewFailure(KindConstruction,
			fmt.Sprintf("unrecognized action kind %q (%s)", a.Kind, a.Description), nil)
	}
	if a.Locator.Path == "" {
		return a.constructionErr("requires a locator")
	}
	if !KnownStrategy(a.Locator.By) {
		return a.constructionErr(fmt.Sprintf("unknown locator strategy %q", a.Locator.By))
	}
	switch a.Kind {
	case ActionCompositePress:
		if a.Payload == "" {
			return a.constructionErr("requires a digits payload")
		}
		if !strings.Contains(a.Locator.Path, "%s") {
			return a.constructionErr("requires a button locator template with a %s placeholder")
		}
	case ActionSelectOption:
		if a.Payload == "" {
			return a.constructionErr("requires an option value payload")
		}
	}
	return nil
}

func (a Action) constructionErr(msg string) error {
	return NewFailure(KindConstruction,
		fmt.Sprintf("%s (%s) %s", a.Kind, a.Description, msg), nil)
}
