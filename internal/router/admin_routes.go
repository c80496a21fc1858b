package router

import (
	"github.com/labstack/echo/v4"

	"github.com/digivite/digivite/internal/handler"
	"github.com/digivite/digivite/internal/middleware"
	"github.com/digivite/digivite/internal/utils"
)

// RegisterAdmin registers /admin.  Every route needs an ADMIN token; cache
// applies to reads only and runs after authentication so cached responses
// are never shared between admins.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)

	g.POST("/assign-table", h.AssignTable)
	g.GET("/status", h.Status, cache)
	g.GET("/checked-in", h.CheckedIn, cache)

	g.GET("/events", h.ListEvents)
	g.POST("/events", h.CreateEvent)

	g.GET("/guest", h.ListGuests)
	g.POST("/guest", h.CreateGuest)
	g.PATCH("/guest", h.UpdateGuest)

	g.GET("/tables", h.ListTables)
	g.POST("/tables", h.CreateTable)
	g.DELETE("/tables/:id", h.DeleteTable)
}
