package pipeline

import "time"

// Strategy names a locator strategy understood by the driver capability.
type Strategy string

const (
	ByID    Strategy = "id"
	ByCSS   Strategy = "css"
	ByXPath Strategy = "xpath"
)

// KnownStrategy reports whether s is one of the recognized locator strategies.
func KnownStrategy(s Strategy) bool {
	switch s {
	case ByID, ByCSS, ByXPath:
		return true
	}
	return false
}

// Locator is a strategy plus path pair identifying elements on the page.
type Locator struct {
	By   Strategy
	Path string
}

func (l Locator) String() string { return string(l.By) + "=" + l.Path }

// Condition names the wait conditions an element can be held to.
type Condition string

const (
	CondPresent   Condition = "present"
	CondVisible   Condition = "visible"
	CondClickable Condition = "clickable"
	CondInvisible Condition = "invisible"
)

// Element is a resolved element reference. All interactions with the page go
// through it or through Driver; errors come back classified as Failures.
type Element interface {
	Click() error
	Clear() error
	SendText(text string) error
	Focus() error
	SelectByValue(value string) error
	Text() (string, error)
	Attribute(name string) (string, error)
}

// Driver is the browser capability the pipeline consumes. It is injected once
// at session start and owned by the caller for the lifetime of the run; the
// pipeline never opens or closes it.
type Driver interface {
	Navigate(url string) error
	URL() string
	WaitForURL(url string, timeout time.Duration) error

	// WaitFor blocks until an element matching loc under root reaches cond,
	// or timeout elapses. A nil root means document root. CondInvisible
	// resolves no element and returns (nil, nil) on success.
	WaitFor(root Element, loc Locator, timeout time.Duration, cond Condition) (Element, error)

	// FindAll resolves every element matching loc under root without waiting.
	FindAll(root Element, loc Locator) ([]Element, error)

	// SwitchFrame pivots the driver's search root into a frame.
	SwitchFrame(loc Locator, timeout time.Duration) error
}
