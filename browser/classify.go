package browser

import (
	"strings"

	"github.com/TeoEchavarria/sura-automatization-reschedule/pipeline"
)

// classify maps Playwright error text onto the closed failure taxonomy so the
// retry policy can test membership instead of inspecting error types. A nil
// error stays nil.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	var kind pipeline.FailureKind
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		kind = pipeline.KindTimeout
	case strings.Contains(msg, "stale"),
		strings.Contains(msg, "not attached"),
		strings.Contains(msg, "detached"),
		strings.Contains(msg, "target closed"):
		kind = pipeline.KindStale
	case strings.Contains(msg, "intercepts pointer events"):
		kind = pipeline.KindIntercepted
	case strings.Contains(msg, "not visible"),
		strings.Contains(msg, "not interactable"),
		strings.Contains(msg, "not enabled"),
		strings.Contains(msg, "disabled"):
		kind = pipeline.KindNotInteractable
	case strings.Contains(msg, "no element"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "no node found"):
		kind = pipeline.KindAbsent
	default:
		kind = pipeline.KindUnknown
	}
	return pipeline.NewFailure(kind, op, err)
}
