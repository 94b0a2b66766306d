package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that maps the
// application error taxonomy onto HTTP statuses:
// validation -> 400, not-found -> 404, conflict -> 409, store-unavailable -> 503.
// signalShutdown is called in order to gracefully shutdown the Server whenever
// a core shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		resp := errorResponse{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				resp.Message = msg
			} else {
				resp.Message = http.StatusText(code)
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			resp.Message = "validation failed"
			resp.Errors = fldErrs
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
			resp.Errors = fieldErrMap(origErr.Fields)
		case *core.ConflictError:
			code = http.StatusConflict
			resp.Message = origErr.Error()
			resp.Errors = fieldErrMap(origErr.Fields)
		default:
			switch origErr {
			case student.ErrNotFound, attendance.ErrNotFound:
				code = http.StatusNotFound
				resp.Message = origErr.Error()
			case student.ErrRollNoExists, attendance.ErrAlreadyMarked:
				code = http.StatusConflict
				resp.Message = origErr.Error()
			case core.ErrStoreUnavailable:
				code = http.StatusServiceUnavailable
				resp.Message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				resp.Message = http.StatusText(code)
				if logger != nil {
					logger.Error(resp.Message, errors.Wrap(err, resp.Message))
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil && logger != nil {
				logger.Error("error handler failed to respond", err)
			}
		}
	}
}

func fieldErrMap(flds []core.FieldError) map[string]string {
	if len(flds) == 0 {
		return nil
	}
	fldErrs := make(map[string]string, len(flds))
	for _, fErr := range flds {
		fldErrs[fErr.Field] = fErr.Error
	}
	return fldErrs
}
