package sura

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TeoEchavarria/sura-automatization-reschedule/browser"
	"github.com/TeoEchavarria/sura-automatization-reschedule/flow"
	"github.com/TeoEchavarria/sura-automatization-reschedule/pipeline"
)

// Outcome collects what a full portal run produced. The appointment date and
// the active tab label come from two separate blocks so both extractions
// survive; a single block would only surface the last one.
type Outcome struct {
	// AppointmentDate is the date of the first pending appointment.
	AppointmentDate *pipeline.DateTimeValue
	// ActiveTabLabel is the day currently selected in the reschedule view.
	ActiveTabLabel string
	Warnings       []string
	// Blocks holds the per-block results in execution order.
	Blocks []pipeline.Result
}

// Reschedule opens a browser, logs into the portal, reads the first pending
// appointment and the reschedule view's active day. The browser is always
// closed, also on failure.
func Reschedule(cfg Config, log *zap.SugaredLogger) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	session, err := browser.Open(browser.Config{
		Headless:    cfg.Headless,
		DownloadDir: cfg.DownloadDir,
	}, log)
	if err != nil {
		return nil, err
	}
	defer session.Close()
	return Run(session, cfg, log)
}

// Run drives the portal flows against an already open driver.
func Run(d pipeline.Driver, cfg Config, log *zap.SugaredLogger) (*Outcome, error) {
	params := cfg.params()
	login, err := buildFlow(LoginFlow, params)
	if err != nil {
		return nil, err
	}
	appointments, err := buildFlow(AppointmentsFlow, params)
	if err != nil {
		return nil, err
	}
	reschedule, err := buildFlow(RescheduleFlow, params)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{}
	state := pipeline.NewState(d)
	state, err = pipeline.Pipe(state, log,
		pipeline.Navigate(LoginURL),
		pipeline.WaitURL(LoginURL, 30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}

	state, err = runBlocks(state, login, log, outcome)
	if err != nil {
		return outcome, fmt.Errorf("login: %w", err)
	}
	log.Info("portal login succeeded")

	state, err = runBlocks(state, appointments, log, outcome)
	if err != nil {
		return outcome, fmt.Errorf("pending appointments: %w", err)
	}
	if dt, ok := state.Last.(pipeline.DateTimeValue); ok {
		outcome.AppointmentDate = &dt
		log.Infof("first pending appointment: %s %s", dt.Date, dt.Time)
	}

	state, err = runBlocks(state, reschedule, log, outcome)
	if err != nil {
		return outcome, fmt.Errorf("reschedule view: %w", err)
	}
	if label, ok := state.Last.(string); ok {
		outcome.ActiveTabLabel = label
		log.Infof("active reschedule tab: %s", label)
	}

	outcome.Warnings = state.Warnings
	return outcome, nil
}

func buildFlow(load func() (*flow.Definition, error), params map[string]string) ([]flow.Block, error) {
	def, err := load()
	if err != nil {
		return nil, err
	}
	return def.Build(params)
}

func runBlocks(s pipeline.State, blocks []flow.Block, log *zap.SugaredLogger, outcome *Outcome) (pipeline.State, error) {
	for _, b := range blocks {
		next, res := pipeline.RunBlock(s, b.Actions, log, b.Options)
		outcome.Blocks = append(outcome.Blocks, res)
		log.Infof("block %s -> ok=%t duration=%s warnings=%d",
			b.Name, res.Succeeded, res.Duration.Round(time.Millisecond), len(res.Warnings))
		if !res.Succeeded {
			return next, fmt.Errorf("block %s: %s", b.Name, res.Error)
		}
		s = next
	}
	return s, nil
}
