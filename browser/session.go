// Package browser backs the pipeline's driver capability with Playwright.
package browser

import (
	"fmt"
	"os"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/TeoEchavarria/sura-automatization-reschedule/pipeline"
)

// Config controls the browser session.
type Config struct {
	Headless bool
	// ExecutablePath overrides browser discovery. When empty the
	// PLAYWRIGHT_EXECUTABLE_PATH env var and common install paths are probed.
	ExecutablePath string
	// DownloadDir, when set, is created up front and used by the download
	// waiter to pick up completed files.
	DownloadDir string
}

// Session owns the Playwright runtime, one browser, one isolated context and
// one page for the lifetime of an automation run. It implements
// pipeline.Driver; the pipeline never opens or closes it.
type Session struct {
	runtime *pw.Playwright
	browser pw.Browser
	context pw.BrowserContext
	page    pw.Page
	// frame is non-nil after a frame switch; lookups pivot into it until the
	// next navigation.
	frame pw.FrameLocator
	log   *zap.SugaredLogger
}

var _ pipeline.Driver = (*Session)(nil)

// Open starts Playwright, launches Chromium and prepares an isolated context
// with downloads accepted.
func Open(cfg Config, log *zap.SugaredLogger) (*Session, error) {
	runtime, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start Playwright: %w", err)
	}

	execPath := cfg.ExecutablePath
	if execPath == "" {
		execPath = os.Getenv("PLAYWRIGHT_EXECUTABLE_PATH")
	}
	if execPath == "" {
		for _, p := range []string{"/usr/bin/chromium", "/usr/bin/google-chrome", "/bin/google-chrome", "/usr/bin/chromium-browser"} {
			if _, err := os.Stat(p); err == nil {
				execPath = p
				break
			}
		}
	}
	launchOpts := pw.BrowserTypeLaunchOptions{Headless: pw.Bool(cfg.Headless)}
	if execPath != "" {
		launchOpts.ExecutablePath = pw.String(execPath)
	}
	b, err := runtime.Chromium.Launch(launchOpts)
	if err != nil {
		_ = runtime.Stop()
		return nil, fmt.Errorf("browser launch: %w", err)
	}

	ctx, err := b.NewContext(pw.BrowserNewContextOptions{AcceptDownloads: pw.Bool(true)})
	if err != nil {
		_ = b.Close()
		_ = runtime.Stop()
		return nil, fmt.Errorf("browser context: %w", err)
	}
	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		_ = b.Close()
		_ = runtime.Stop()
		return nil, fmt.Errorf("page creation: %w", err)
	}

	if cfg.DownloadDir != "" {
		if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
			log.Warnf("could not create download folder %s: %v", cfg.DownloadDir, err)
		} else {
			log.Infof("download folder: %s", cfg.DownloadDir)
		}
	}

	log.Info("browser session started")
	return &Session{runtime: runtime, browser: b, context: ctx, page: page, log: log}, nil
}

// Close releases page, context, browser and runtime. Safe to call on every
// exit path.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.context != nil {
		_ = s.context.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.runtime != nil {
		_ = s.runtime.Stop()
	}
	s.log.Info("browser session closed")
}

// Page exposes the underlying page for callers outside the pipeline (e.g.
// screenshots while debugging a flow).
func (s *Session) Page() pw.Page { return s.page }

func (s *Session) Navigate(url string) error {
	if _, err := s.page.Goto(url, pw.PageGotoOptions{WaitUntil: pw.WaitUntilStateLoad}); err != nil {
		return classify("navigate "+url, err)
	}
	// navigation resets the frame of reference
	s.frame = nil
	return nil
}

func (s *Session) URL() string { return s.page.URL() }

func (s *Session) WaitForURL(url string, timeout time.Duration) error {
	err := s.page.WaitForURL(url, pw.PageWaitForURLOptions{Timeout: pw.Float(float64(timeout.Milliseconds()))})
	return classify("wait for url "+url, err)
}

// locate builds the base locator for loc under root. A nil root searches from
// the current frame of reference (the page, or the active frame).
func (s *Session) locate(root pipeline.Element, loc pipeline.Locator) (pw.Locator, error) {
	sel, err := selectorFor(loc)
	if err != nil {
		return nil, err
	}
	if root != nil {
		el, ok := root.(*element)
		if !ok {
			return nil, pipeline.NewFailure(pipeline.KindConstruction,
				"search root is not a browser element", nil)
		}
		return el.loc.Locator(sel), nil
	}
	if s.frame != nil {
		return s.frame.Locator(sel), nil
	}
	return s.page.Locator(sel), nil
}

func (s *Session) WaitFor(root pipeline.Element, loc pipeline.Locator, timeout time.Duration, cond pipeline.Condition) (pipeline.Element, error) {
	base, err := s.locate(root, loc)
	if err != nil {
		return nil, err
	}
	first := base.First()
	ms := pw.Float(float64(timeout.Milliseconds()))
	op := fmt.Sprintf("wait %s %s", cond, loc)

	switch cond {
	case pipeline.CondPresent:
		if err := first.WaitFor(pw.LocatorWaitForOptions{State: pw.WaitForSelectorStateAttached, Timeout: ms}); err != nil {
			return nil, classify(op, err)
		}
	case pipeline.CondVisible:
		if err := first.WaitFor(pw.LocatorWaitForOptions{State: pw.WaitForSelectorStateVisible, Timeout: ms}); err != nil {
			return nil, classify(op, err)
		}
	case pipeline.CondInvisible:
		if err := first.WaitFor(pw.LocatorWaitForOptions{State: pw.WaitForSelectorStateHidden, Timeout: ms}); err != nil {
			return nil, classify(op, err)
		}
		return nil, nil
	case pipeline.CondClickable:
		if err := first.WaitFor(pw.LocatorWaitForOptions{State: pw.WaitForSelectorStateVisible, Timeout: ms}); err != nil {
			return nil, classify(op, err)
		}
		enabled, err := first.IsEnabled()
		if err != nil {
			return nil, classify(op, err)
		}
		if !enabled {
			return nil, pipeline.NewFailure(pipeline.KindNotInteractable, op,
				fmt.Errorf("element is not enabled"))
		}
	default:
		return nil, pipeline.NewFailure(pipeline.KindConstruction,
			fmt.Sprintf("unknown wait condition %q", cond), nil)
	}
	return &element{loc: first}, nil
}

func (s *Session) FindAll(root pipeline.Element, loc pipeline.Locator) ([]pipeline.Element, error) {
	base, err := s.locate(root, loc)
	if err != nil {
		return nil, err
	}
	count, err := base.Count()
	if err != nil {
		return nil, classify("find "+loc.String(), err)
	}
	els := make([]pipeline.Element, 0, count)
	for i := 0; i < count; i++ {
		els = append(els, &element{loc: base.Nth(i)})
	}
	return els, nil
}

func (s *Session) SwitchFrame(loc pipeline.Locator, timeout time.Duration) error {
	sel, err := selectorFor(loc)
	if err != nil {
		return err
	}
	// wait for the iframe element itself, then pivot the search root into it
	anchor := s.page.Locator(sel).First()
	ms := pw.Float(float64(timeout.Milliseconds()))
	if err := anchor.WaitFor(pw.LocatorWaitForOptions{State: pw.WaitForSelectorStateAttached, Timeout: ms}); err != nil {
		return classify("switch frame "+loc.String(), err)
	}
	s.frame = s.page.FrameLocator(sel)
	return nil
}

// element adapts a Playwright locator to pipeline.Element.
type element struct {
	loc pw.Locator
}

var _ pipeline.Element = (*element)(nil)

func (e *element) Click() error { return classify("click", e.loc.Click()) }

func (e *element) Clear() error { return classify("clear", e.loc.Clear()) }

func (e *element) SendText(text string) error { return classify("send text", e.loc.Fill(text)) }

func (e *element) Focus() error { return classify("focus", e.loc.Focus()) }

func (e *element) SelectByValue(value string) error {
	_, err := e.loc.SelectOption(pw.SelectOptionValues{Values: &[]string{value}})
	return classify("select option "+value, err)
}

func (e *element) Text() (string, error) {
	text, err := e.loc.TextContent()
	if err != nil {
		return "", classify("read text", err)
	}
	return text, nil
}

func (e *element) Attribute(name string) (string, error) {
	v, err := e.loc.GetAttribute(name)
	if err != nil {
		return "", classify("read attribute "+name, err)
	}
	return v, nil
}
