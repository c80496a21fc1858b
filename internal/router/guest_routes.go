package router

import (
	"github.com/labstack/echo/v4"

	"github.com/digivite/digivite/internal/handler"
)

// RegisterGuest registers the public invitation endpoints.  limiter guards
// them all; pass a pass-through middleware to disable it.
func RegisterGuest(e *echo.Echo, h *handler.GuestHandler, limiter echo.MiddlewareFunc) {
	e.POST("/rsvp", h.RSVP, limiter)

	g := e.Group("/guest", limiter)
	g.GET("/status", h.Status)
	g.POST("/decline", h.Decline)
	g.POST("/gift", h.Gift)
	g.POST("/verify", h.Verify)
}
