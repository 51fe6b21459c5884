package coaching

import "errors"

// Model-path failures. They never leave the package: every one of them routes
// to the fallback plan and is only logged and counted.
var (
	ErrModelUnavailable = errors.New("coaching model unavailable")
	ErrModelTimeout     = errors.New("coaching model timed out")
	ErrModelParse       = errors.New("coaching model reply did not match the plan schema")

	errNoModel = errors.New("no model configured")
)

// fallbackReason maps a model-path failure to a metrics label.
func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrModelTimeout):
		return "timeout"
	case errors.Is(err, ErrModelParse):
		return "parse"
	case errors.Is(err, errNoModel):
		return "disabled"
	default:
		return "transport"
	}
}
