package pipeline

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

// testDispatcher mirrors the default table with millisecond backoff so retry
// exhaustion stays fast under test.
func testDispatcher() *Dispatcher {
	d := NewDispatcher()
	for k, p := range d.Policies {
		p.BaseDelay = time.Millisecond
		d.Policies[k] = p
	}
	d.Pacing = 0
	return d
}

func transientErr(op string) error {
	return NewFailure(KindTimeout, op, errors.New("timeout 2000ms exceeded"))
}

type fakeElement struct {
	id       string
	clicks   int
	cleared  int
	typed    []string
	focused  int
	selected []string
	text     string
	attrs    map[string]string
	clickErr error
}

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	return nil
}

func (e *fakeElement) Clear() error {
	e.cleared++
	return nil
}

func (e *fakeElement) SendText(text string) error {
	e.typed = append(e.typed, text)
	return nil
}

func (e *fakeElement) Focus() error {
	e.focused++
	return nil
}

func (e *fakeElement) SelectByValue(value string) error {
	e.selected = append(e.selected, value)
	return nil
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, error) {
	if v, ok := e.attrs[name]; ok {
		return v, nil
	}
	return "", nil
}

// fakeDriver scripts per-locator wait outcomes. Each WaitFor on a path pops
// the next queued error (nil meaning success); an exhausted queue succeeds.
// failAlways short-circuits everything for that path.
type fakeDriver struct {
	waitErrs   map[string][]error
	failAlways map[string]error
	findEmpty  map[string]bool
	elements   map[string]*fakeElement
	waitCount  map[string]int
	frames     []string
	navigated  []string
	currentURL string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		waitErrs:   map[string][]error{},
		failAlways: map[string]error{},
		findEmpty:  map[string]bool{},
		elements:   map[string]*fakeElement{},
		waitCount:  map[string]int{},
	}
}

func (d *fakeDriver) failNext(path string, errs ...error) {
	d.waitErrs[path] = append(d.waitErrs[path], errs...)
}

func (d *fakeDriver) element(path string) *fakeElement {
	el, ok := d.elements[path]
	if !ok {
		el = &fakeElement{id: path, attrs: map[string]string{}}
		d.elements[path] = el
	}
	return el
}

func (d *fakeDriver) Navigate(url string) error {
	d.navigated = append(d.navigated, url)
	d.currentURL = url
	return nil
}

func (d *fakeDriver) URL() string { return d.currentURL }

func (d *fakeDriver) WaitForURL(url string, timeout time.Duration) error {
	if d.currentURL != url {
		return NewFailure(KindTimeout, "wait for url "+url, fmt.Errorf("still at %s", d.currentURL))
	}
	return nil
}

func (d *fakeDriver) WaitFor(root Element, loc Locator, timeout time.Duration, cond Condition) (Element, error) {
	d.waitCount[loc.Path]++
	if err := d.failAlways[loc.Path]; err != nil {
		return nil, err
	}
	if q := d.waitErrs[loc.Path]; len(q) > 0 {
		err := q[0]
		d.waitErrs[loc.Path] = q[1:]
		if err != nil {
			return nil, err
		}
	}
	if cond == CondInvisible {
		return nil, nil
	}
	return d.element(loc.Path), nil
}

func (d *fakeDriver) FindAll(root Element, loc Locator) ([]Element, error) {
	if d.findEmpty[loc.Path] {
		return nil, nil
	}
	return []Element{d.element(loc.Path)}, nil
}

func (d *fakeDriver) SwitchFrame(loc Locator, timeout time.Duration) error {
	d.frames = append(d.frames, loc.Path)
	return nil
}

func css(path string) Locator { return Locator{By: ByCSS, Path: path} }

func visibleAction(path string) Action {
	return Action{Kind: ActionWaitVisible, Description: "visible " + path, Locator: css(path), Timeout: time.Second}
}

func clickAction(path string) Action {
	return Action{Kind: ActionClick, Description: "click " + path, Locator: css(path), Timeout: time.Second}
}
