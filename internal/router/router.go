// Package router builds the echo instance and registers every route.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/digivite/digivite/internal/handler"
	"github.com/digivite/digivite/internal/middleware"
)

// maxBody caps request bodies; every payload here is a small JSON object.
const maxBody = "64K"

// New returns an echo instance with the validator, the JSON error handler,
// request logging and panic recovery installed.
func New(log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log)
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(maxBody))
	return e
}

// RegisterRoutes registers routes that need no authentication and no
// service: the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers /auth.  Session resolves the cookie when present
// but never rejects.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.GET("/session", a.Session, middleware.OptionalAuth(jwtSecret))
}
