// Package handler adapts the services to echo.  Handlers return service
// errors as they are; NewHTTPErrorHandler turns them into responses.
package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/digivite/digivite/internal/service"
)

// statusFor maps a service error to its HTTP status and client message.
// Anything unrecognised is an internal error and the message is generic.
func statusFor(err error) (int, string) {
	var (
		verr *service.ValidationError
		cerr *service.CapacityError
		herr *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &cerr):
		return http.StatusBadRequest, cerr.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, capitalize(err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, conflictMessage(err, service.ErrConflict, "Conflict")
	case errors.Is(err, service.ErrDuplicate):
		return http.StatusConflict, conflictMessage(err, service.ErrDuplicate, "Already exists")
	case errors.As(err, &herr):
		return herr.Code, httpErrorMessage(herr)
	}
	return http.StatusInternalServerError, "Server error"
}

// NewHTTPErrorHandler renders every error as {"error": msg}.  Handlers
// return service errors unchanged and rely on this for the status code.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	log = log.With().Str("component", "http").Logger()
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := statusFor(err)
		if code >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			log.Warn().Err(err).Msg("write error response")
		}
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	if he.Code >= http.StatusInternalServerError {
		return "Server error"
	}
	if s, ok := he.Message.(string); ok {
		return s
	}
	return http.StatusText(he.Code)
}

// conflictMessage strips the sentinel suffix that %w wrapping leaves behind,
// so "table 3 already exists: conflict" reads "Table 3 already exists".
func conflictMessage(err, sentinel error, fallback string) string {
	if err == sentinel {
		return fallback
	}
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return fallback
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// errBadBody is returned when the request body is not valid JSON.
var errBadBody = &service.ValidationError{Field: "body", Msg: "invalid body"}

// bind decodes the body into dst and runs the struct validator.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return errBadBody
	}
	if err := c.Validate(dst); err != nil {
		return err
	}
	return nil
}
