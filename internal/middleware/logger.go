package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// RequestLogger writes one zerolog event per request.  4xx responses are
// logged at warn and 5xx at error.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    log = log.With().Str("component", "http").Logger()
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the response so the status is final
                c.Error(err)
            }
            res := c.Response()
            ev := log.Info()
            switch {
            case res.Status >= 500:
                ev = log.Error()
            case res.Status >= 400:
                ev = log.Warn()
            }
            if err != nil {
                ev = ev.Err(err)
            }
            ev.Str("method", c.Request().Method).
                Str("path", c.Request().URL.Path).
                Int("status", res.Status).
                Dur("latency", time.Since(start)).
                Str("ip", c.RealIP()).
                Str("admin_id", AdminID(c)).
                Msg("request")
            return nil
        }
    }
}
