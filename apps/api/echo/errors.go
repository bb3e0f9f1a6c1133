package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/dewinurmalitasari/geoviz-server/core"
	"github.com/dewinurmalitasari/geoviz-server/core/material"
	"github.com/dewinurmalitasari/geoviz-server/core/practice"
	"github.com/dewinurmalitasari/geoviz-server/core/reaction"
	"github.com/dewinurmalitasari/geoviz-server/core/statistic"
	"github.com/dewinurmalitasari/geoviz-server/core/user"
)

var (
	errUnauthorized      = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden     = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errUserNotFound      = echo.NewHTTPError(http.StatusNotFound, "user not found")
	errMaterialNotFound  = echo.NewHTTPError(http.StatusNotFound, material.ErrNotFound.Error())
	errMaterialConflict  = echo.NewHTTPError(http.StatusConflict, material.ErrTitleExists.Error())
	errReactionNotFound  = echo.NewHTTPError(http.StatusNotFound, reaction.ErrNotFound.Error())
	errValidationMessage = "validation failed"
)

// domainHTTPError returns the HTTP rendition of the services' sentinel errors, or err itself.
// Malformed IDs are reported like unknown ones.
func domainHTTPError(err error) error {
	switch err {
	case statistic.ErrInvalidID, practice.ErrInvalidID, reaction.ErrInvalidID:
		return errUserNotFound
	case material.ErrNotFound, reaction.ErrInvalidMaterialID:
		return errMaterialNotFound
	case reaction.ErrNotFound:
		return errReactionNotFound
	case material.ErrTitleExists:
		return errMaterialConflict
	}
	return err
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Message interface{}       `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var resp errorResponse

		switch origErr := domainHTTPError(errors.Cause(err)).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				resp.Message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			resp.Message = origErr.Message
		case validator.ValidationErrors:
			resp.Fields = make(map[string]string, len(origErr))
			msgs := make([]string, 0, len(origErr))
			for _, vErr := range origErr {
				msg := vErr.Translate(translator)
				resp.Fields[vErr.Field()] = msg
				msgs = append(msgs, msg)
			}
			code = http.StatusBadRequest
			resp.Message = strings.Join(msgs, "; ")
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp.Fields = origErr.FieldMap()
			if msg := origErr.Error(); msg != "" {
				resp.Message = msg
			} else {
				resp.Message = errValidationMessage
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			resp.Message = msg

			var p user.Principal
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				p.ID = claims.Subject
				p.Role = claims.Role
			}
			logger.Error(msg, errors.Wrap(err, msg), p)
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			resp.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
