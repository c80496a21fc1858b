package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digivite/digivite/internal/middleware"
	"github.com/digivite/digivite/internal/service"
)

// AdminHandler serves the organiser dashboard.  Every route sits behind
// JWTAuth, but each method still checks the identity itself and answers
// 401 when it is missing.
type AdminHandler struct {
	Tables *service.TableService
	Query  *service.AdminQuery
	Guests *service.GuestService
	Events *service.EventService
}

// NewAdminHandler wires the admin endpoints.
func NewAdminHandler(tables *service.TableService, query *service.AdminQuery, guests *service.GuestService, events *service.EventService) *AdminHandler {
	if tables == nil || query == nil || guests == nil || events == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{Tables: tables, Query: query, Guests: guests, Events: events}
}

type assignReq struct {
	GuestID   string `json:"guestId" validate:"required"`
	TableID   string `json:"tableId" validate:"required"`
	CheckedIn *bool  `json:"checkedIn"`
}

type createEventReq struct {
	Slug  string  `json:"slug"`
	Title string  `json:"title" validate:"required"`
	Date  string  `json:"date" validate:"required"`
	Venue *string `json:"venue"`
}

type createGuestReq struct {
	FullName string `json:"fullName" validate:"required"`
	EventID  string `json:"eventId"`
}

type updateGuestReq struct {
	GuestID        string `json:"guestId" validate:"required"`
	NumberOfGuests *int   `json:"numberOfGuests" validate:"required,min=1"`
}

type createTableReq struct {
	EventID  string `json:"eventId" validate:"required"`
	Number   *int   `json:"number" validate:"omitempty,min=1"`
	Capacity *int   `json:"capacity" validate:"omitempty,min=1"`
}

func adminID(c echo.Context) (string, error) {
	id := middleware.AdminID(c)
	if id == "" {
		return "", service.ErrUnauthorized
	}
	return id, nil
}

// AssignTable handles POST /admin/assign-table.
func (h *AdminHandler) AssignTable(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	var req assignReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Tables.Assign(ctx, admin, service.AssignInput{
		GuestID:   req.GuestID,
		TableID:   req.TableID,
		CheckedIn: req.CheckedIn,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "guest": res.Guest, "table": res.Table})
}

// Status handles GET /admin/status?eventId=&limit=.
func (h *AdminHandler) Status(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	rep, err := h.Query.Status(ctx, admin, service.StatusQuery{
		EventID: c.QueryParam("eventId"),
		Limit:   queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

// CheckedIn handles GET /admin/checked-in?eventId=&q=&field=&page=&limit=.
func (h *AdminHandler) CheckedIn(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	page, err := h.Query.CheckedIn(ctx, admin, service.CheckedInQuery{
		EventID: c.QueryParam("eventId"),
		Q:       c.QueryParam("q"),
		Field:   c.QueryParam("field"),
		Page:    queryInt(c, "page"),
		Limit:   queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// ListEvents handles GET /admin/events.
func (h *AdminHandler) ListEvents(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	events, err := h.Events.ListEvents(ctx, admin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// CreateEvent handles POST /admin/events.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	var req createEventReq
	if err := bind(c, &req); err != nil {
		return err
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return service.Invalid("date", "date must be an ISO 8601 date")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ev, err := h.Events.CreateEvent(ctx, admin, service.CreateEventInput{
		Slug:  req.Slug,
		Title: req.Title,
		Date:  date,
		Venue: req.Venue,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"event": ev})
}

// ListGuests handles GET /admin/guest?eventId=.
func (h *AdminHandler) ListGuests(c echo.Context) error {
	if _, err := adminID(c); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	guests, err := h.Guests.ListGuests(ctx, c.QueryParam("eventId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"guests": guests})
}

// CreateGuest handles POST /admin/guest.  eventId may be an event id, slug
// or title; when absent the caller's latest event is used.
func (h *AdminHandler) CreateGuest(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	var req createGuestReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	g, err := h.Guests.CreateGuest(ctx, admin, service.CreateGuestInput{
		FullName: req.FullName,
		EventRef: req.EventID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"guest": g})
}

// UpdateGuest handles PATCH /admin/guest.
func (h *AdminHandler) UpdateGuest(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	var req updateGuestReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	g, err := h.Guests.UpdatePartySize(ctx, admin, req.GuestID, *req.NumberOfGuests)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "guest": g})
}

// ListTables handles GET /admin/tables?eventId=.
func (h *AdminHandler) ListTables(c echo.Context) error {
	if _, err := adminID(c); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	tables, err := h.Tables.ListTables(ctx, c.QueryParam("eventId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": tables})
}

// CreateTable handles POST /admin/tables.
func (h *AdminHandler) CreateTable(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	var req createTableReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Tables.CreateTable(ctx, admin, service.CreateTableInput{
		EventID:  req.EventID,
		Number:   req.Number,
		Capacity: req.Capacity,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"table": t})
}

// DeleteTable handles DELETE /admin/tables/:id.  A table that still seats
// guests is not deleted (409).
func (h *AdminHandler) DeleteTable(c echo.Context) error {
	admin, err := adminID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Tables.DeleteTable(ctx, admin, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// queryInt returns 0 for absent or malformed values; the services apply
// their own defaults and clamps.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	if err != nil {
		return 0
	}
	return n
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
