package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/liftguard/internal/adapters/repository"
	"github.com/okian/liftguard/internal/domain/analytics"
	"github.com/okian/liftguard/internal/domain/model"
)

func TestErrorKinds(t *testing.T) {
	Convey("Given operation-tagged errors", t, func() {
		cause := errors.New("boom")

		Convey("NewKind matches its kind and names the op", func() {
			err := NewKind("api.op", ErrBadRequest)
			So(errors.Is(err, ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request")
		})

		Convey("WrapKind matches both the kind and the cause", func() {
			err := WrapKind("api.op", ErrInternal, cause)
			So(errors.Is(err, ErrInternal), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: internal error: boom")
		})

		Convey("Wrap keeps the cause's kind", func() {
			So(Wrap("api.op", nil), ShouldBeNil)
			err := Wrap("api.op", &repository.PersistenceError{Op: "append", Err: cause})
			So(errors.Is(err, repository.ErrPersistence), ShouldBeTrue)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given errors from every layer", t, func() {
		cases := []struct {
			name   string
			err    error
			status int
			code   string
			msg    string
		}{
			{"validation", Wrap("op", &model.ValidationError{Field: "rpe", Reason: "is required"}), http.StatusBadRequest, "bad_request", "rpe is required"},
			{"bad request", WrapKind("op", ErrBadRequest, errors.New("invalid JSON body")), http.StatusBadRequest, "bad_request", "invalid JSON body"},
			{"window", Wrap("op", fmt.Errorf("%w: days must be between 1 and 365, got 0", analytics.ErrInvalidWindow)), http.StatusBadRequest, "bad_request", "invalid window: days must be between 1 and 365, got 0"},
			{"limit", fmt.Errorf("%w: too big", analytics.ErrInvalidLimit), http.StatusBadRequest, "bad_request", "invalid limit: too big"},
			{"persistence", Wrap("op", &repository.PersistenceError{Op: "append", Err: errors.New("disk")}), http.StatusInternalServerError, "persistence_error", "assessment could not be saved"},
			{"aggregation", fmt.Errorf("%w: io", analytics.ErrAggregation), http.StatusInternalServerError, "aggregation_error", "dashboard data could not be read"},
			{"other", errors.New("surprise"), http.StatusInternalServerError, "internal_error", "Internal Server Error"},
		}
		for _, tc := range cases {
			Convey("Then "+tc.name+" maps to its status and code", func() {
				status, code, msg := classify(tc.err)
				So(status, ShouldEqual, tc.status)
				So(code, ShouldEqual, tc.code)
				So(msg, ShouldEqual, tc.msg)
			})
		}
	})
}
