package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message interface{}

			httpErr   *echo.HTTPError
			vErr      *core.ValidationError
			formatErr *core.FormatError
		)

		switch {
		case errors.As(err, &httpErr):
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &vErr):
			if len(vErr.Fields) > 0 {
				fldErrs := make(map[string]string, len(vErr.Fields))
				for _, fErr := range vErr.Fields {
					if _, ok := fldErrs[fErr.Field]; !ok {
						fldErrs[fErr.Field] = fErr.Error
					}
				}
				message = fldErrs
			} else {
				message = vErr.Error()
			}
			code = http.StatusBadRequest
		case errors.Is(err, student.ErrNotFound), errors.Is(err, student.ErrProfileNotFound):
			code = http.StatusNotFound
			message = errors.Cause(err).Error()
		case errors.As(err, &formatErr):
			code = http.StatusUnprocessableEntity
			message = formatErr.Error()
		case errors.Is(err, storage.ErrProfilesUnavailable):
			code = http.StatusServiceUnavailable
			message = storage.ErrProfilesUnavailable.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), "method", ctx.Request().Method, "path", ctx.Path())
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
