package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/liftguard/internal/adapters/repository"
	"github.com/okian/liftguard/internal/domain/analytics"
	"github.com/okian/liftguard/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	case e.kind == nil:
		return fmt.Sprintf("%s: %v", e.op, e.err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
	}
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind wraps err as kind, raised by op.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// Wrap attaches op to err without changing its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// classify maps an error to its HTTP status, response code and client-facing
// message. Server-side causes are logged, not echoed.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return http.StatusBadRequest, "bad_request", ve.Error()
		}
		return http.StatusBadRequest, "bad_request", detail(err)
	case errors.Is(err, analytics.ErrInvalidWindow),
		errors.Is(err, analytics.ErrInvalidLimit),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request", detail(err)
	case errors.Is(err, repository.ErrPersistence):
		return http.StatusInternalServerError, "persistence_error", "assessment could not be saved"
	case errors.Is(err, analytics.ErrAggregation):
		return http.StatusInternalServerError, "aggregation_error", "dashboard data could not be read"
	default:
		return http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError)
	}
}

// detail strips operation tags so clients see the underlying cause.
func detail(err error) string {
	var oe *opError
	for errors.As(err, &oe) {
		if oe.err == nil {
			return oe.kind.Error()
		}
		err = oe.err
	}
	return err.Error()
}
