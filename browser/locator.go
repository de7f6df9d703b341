package browser

import (
	"fmt"

	"github.com/TeoEchavarria/sura-automatization-reschedule/pipeline"
)

// selectorFor maps a locator strategy onto a Playwright selector.
func selectorFor(l pipeline.Locator) (string, error) {
	switch l.By {
	case pipeline.ByID:
		// attribute form survives ids with CSS metacharacters (ctl00_..., $)
		return fmt.Sprintf(`[id=%q]`, l.Path), nil
	case pipeline.ByCSS:
		return l.Path, nil
	case pipeline.ByXPath:
		return "xpath=" + l.Path, nil
	default:
		return "", pipeline.NewFailure(pipeline.KindConstruction,
			fmt.Sprintf("unknown locator strategy %q", l.By), nil)
	}
}
