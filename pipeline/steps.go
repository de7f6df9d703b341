package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// effectiveRoot picks the search root for an action: explicit override, else
// the current scope, else document root.
func effectiveRoot(s State, a Action) Element {
	if a.Target != nil {
		return a.Target
	}
	return s.Scope
}

// resolveFirst waits for the target to be clickable and returns the first
// matching element under the effective root.
func resolveFirst(s State, a Action) (Element, error) {
	root := effectiveRoot(s, a)
	if _, err := s.Driver.WaitFor(root, a.Locator, a.Timeout, CondClickable); err != nil {
		return nil, err
	}
	els, err := s.Driver.FindAll(root, a.Locator)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, NewFailure(KindAbsent, "element not found: "+a.Description, nil)
	}
	return els[0], nil
}

func waitFor(a Action, cond Condition) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, err := s.Driver.WaitFor(effectiveRoot(s, a), a.Locator, a.Timeout, cond)
		if err != nil {
			return s, err
		}
		log.Infof("%s: %s", cond, a.Description)
		if cond == CondInvisible {
			// nothing resolved; the state is unchanged
			return s, nil
		}
		return s.WithLast(el), nil
	}
}

func click(a Action) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, err := resolveFirst(s, a)
		if err != nil {
			return s, err
		}
		if err := el.Click(); err != nil {
			return s, err
		}
		log.Infof("clicked: %s", a.Description)
		return s.WithLast(el), nil
	}
}

func sendKeys(a Action) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, err := resolveFirst(s, a)
		if err != nil {
			return s, err
		}
		if err := el.Clear(); err != nil {
			return s, err
		}
		if err := el.SendText(a.Payload); err != nil {
			return s, err
		}
		log.Infof("sent keys: %s", a.Description)
		return s.WithLast(el), nil
	}
}

func selectOption(a Action) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, err := resolveFirst(s, a)
		if err != nil {
			return s, err
		}
		if err := el.SelectByValue(a.Payload); err != nil {
			return s, err
		}
		log.Infof("selected %q: %s", a.Payload, a.Description)
		return s.WithLast(el), nil
	}
}

func focus(a Action) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, err := resolveFirst(s, a)
		if err != nil {
			return s, err
		}
		if err := el.Focus(); err != nil {
			return s, err
		}
		log.Infof("focused: %s", a.Description)
		return s.WithLast(el), nil
	}
}

func switchFrame(a Action) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		if err := s.Driver.SwitchFrame(a.Locator, a.Timeout); err != nil {
			return s, err
		}
		log.Infof("switched frame: %s", a.Description)
		// the driver changed its frame of reference; the state itself is unchanged
		return s, nil
	}
}

// compositePress types a sequence on a multi-step UI device (e.g. an on-screen
// keypad): one resolved click per payload rune, paced to let the device settle.
func compositePress(a Action, pacing time.Duration) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		for _, r := range a.Payload {
			btn := a
			btn.Locator.Path = fmt.Sprintf(a.Locator.Path, string(r))
			el, err := resolveFirst(s, btn)
			if err != nil {
				return s, err
			}
			if err := el.Click(); err != nil {
				return s, err
			}
			if pacing > 0 {
				time.Sleep(pacing)
			}
		}
		log.Infof("pressed %d keys: %s", len([]rune(a.Payload)), a.Description)
		return s, nil
	}
}

func compositeAccept(a Action) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, err := resolveFirst(s, a)
		if err != nil {
			return s, err
		}
		if err := el.Click(); err != nil {
			return s, err
		}
		log.Infof("accepted device: %s", a.Description)
		return s, nil
	}
}

// DateTimeValue is the structured record produced by extract_structured: the
// date/time pair read off an element's text.
type DateTimeValue struct {
	Date string
	Time string
	Raw  string
}

var (
	dateRe = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}`)
	timeRe = regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?(?:\s?(?:AM|PM|am|pm))?`)
)

func extractStructured(a Action) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, err := s.Driver.WaitFor(effectiveRoot(s, a), a.Locator, a.Timeout, CondVisible)
		if err != nil {
			return s, err
		}
		text, err := el.Text()
		if err != nil {
			return s, err
		}
		v := DateTimeValue{
			Date: dateRe.FindString(text),
			Time: timeRe.FindString(text),
			Raw:  strings.TrimSpace(text),
		}
		if v.Date == "" && v.Time == "" {
			// the card rendered without its values; treat as a timing race
			return s, NewFailure(KindAbsent, "no date or time in: "+a.Description, nil)
		}
		log.Infof("extracted %q / %q: %s", v.Date, v.Time, a.Description)
		return s.WithLast(v), nil
	}
}

// defaultExtractAttr is read when the descriptor payload names no attribute.
const defaultExtractAttr = "aria-label"

func extractAttrOrText(a Action) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, err := s.Driver.WaitFor(effectiveRoot(s, a), a.Locator, a.Timeout, CondVisible)
		if err != nil {
			return s, err
		}
		attr := a.Payload
		if attr == "" {
			attr = defaultExtractAttr
		}
		if v, err := el.Attribute(attr); err == nil && v != "" {
			log.Infof("extracted @%s: %s", attr, a.Description)
			return s.WithLast(v), nil
		}
		text, err := el.Text()
		if err != nil {
			return s, err
		}
		log.Infof("extracted text: %s", a.Description)
		return s.WithLast(strings.TrimSpace(text)), nil
	}
}

// Navigate loads a URL. Not part of the action schema; used when assembling
// pipelines by hand.
func Navigate(url string) Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		if err := s.Driver.Navigate(url); err != nil {
			return s, err
		}
		log.Infof("navigate -> %s", url)
		return s, nil
	}
}

// WaitURL blocks until the page URL equals url, retried under the default
// transient policy.
func WaitURL(url string, timeout time.Duration) Step {
	policy := RetryPolicy{Attempts: 3, BaseDelay: 2 * time.Second, Retryable: TransientKinds()}
	return policy.Wrap("url to be "+url, func(s State, log *zap.SugaredLogger) (State, error) {
		if err := s.Driver.WaitForURL(url, timeout); err != nil {
			return s, err
		}
		log.Infof("url is %s", url)
		return s, nil
	})
}

// SetScopeFromLast promotes the last resolved element to the search scope for
// nested lookups. Reads already-resolved state only, so it is never retried.
func SetScopeFromLast() Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		el, ok := s.Last.(Element)
		if !ok || el == nil {
			return s.AppendWarning("no last element to promote to scope"), nil
		}
		return s.WithScope(el), nil
	}
}

// ClearScope resets lookups to document root.
func ClearScope() Step {
	return func(s State, log *zap.SugaredLogger) (State, error) {
		return s.WithScope(nil), nil
	}
}
