package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digivite/digivite/internal/service"
)

// requestTimeout bounds every store round trip started by a handler.
const requestTimeout = 5 * time.Second

// GuestHandler serves the public endpoints reached from invitation links
// and the door scanner.
type GuestHandler struct {
	Guests   *service.RSVPService
	Verifier *service.Verifier
}

// NewGuestHandler wires the guest endpoints.  Both services are required.
func NewGuestHandler(rsvp *service.RSVPService, verifier *service.Verifier) *GuestHandler {
	if rsvp == nil || verifier == nil {
		panic("nil service passed to NewGuestHandler")
	}
	return &GuestHandler{Guests: rsvp, Verifier: verifier}
}

type rsvpReq struct {
	Slug           string  `json:"slug" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          *string `json:"phone"`
	NumberOfGuests *int    `json:"numberOfGuests" validate:"omitempty,min=1"`
}

type slugReq struct {
	Slug string `json:"slug" validate:"required"`
}

type giftReq struct {
	Slug     string   `json:"slug" validate:"required"`
	Amount   *float64 `json:"amount" validate:"omitempty,min=0"`
	Note     *string  `json:"note"`
	Provider *string  `json:"provider"`
}

type verifyReq struct {
	Token string `json:"token" validate:"required"`
}

// RSVP handles POST /rsvp.  201 when this call issued the QR token, 200
// when the guest had already responded.
func (h *GuestHandler) RSVP(c echo.Context) error {
	var req rsvpReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Guests.RSVP(ctx, service.RSVPInput{
		Slug:           req.Slug,
		Email:          req.Email,
		Phone:          req.Phone,
		NumberOfGuests: req.NumberOfGuests,
	})
	if err != nil {
		return err
	}
	if res.Already {
		return c.JSON(http.StatusOK, res)
	}
	return c.JSON(http.StatusCreated, res)
}

// Status handles GET /guest/status?slug=.
func (h *GuestHandler) Status(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	g, err := h.Guests.GuestStatus(ctx, c.QueryParam("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"guest": g})
}

// Decline handles POST /guest/decline.
func (h *GuestHandler) Decline(c echo.Context) error {
	var req slugReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	g, err := h.Guests.Decline(ctx, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "guest": g})
}

// Gift handles POST /guest/gift.
func (h *GuestHandler) Gift(c echo.Context) error {
	var req giftReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	gift, err := h.Guests.RecordGift(ctx, service.GiftInput{
		Slug:     req.Slug,
		Amount:   req.Amount,
		Note:     req.Note,
		Provider: req.Provider,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "gift": gift})
}

// Verify handles POST /guest/verify, the door scanner lookup.  It accepts
// the QR token or a typed-in slug and never changes the guest.
func (h *GuestHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	g, err := h.Verifier.Verify(ctx, req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "guest": g})
}
