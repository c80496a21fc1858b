package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digivite/digivite/internal/middleware"
	"github.com/digivite/digivite/internal/service"
)

// AuthHandler covers admin signup, login and the cookie session.
type AuthHandler struct {
	Auth         *service.AuthService
	CookieSecure bool
}

// NewAuthHandler wires the auth endpoints.  cookieSecure marks the session
// cookie Secure; it is on in production.
func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	if auth == nil {
		panic("nil service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: auth, CookieSecure: cookieSecure}
}

type signupReq struct {
	Email    string  `json:"email" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Name     *string `json:"name"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Signup handles POST /auth/signup.  It creates the account but does not
// log the admin in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Auth.Signup(ctx, service.SignupInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"admin": s.Admin})
}

// Login handles POST /auth/login.  The token goes into the httpOnly
// adminToken cookie and is also returned for bearer clients.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	c.SetCookie(h.sessionCookie(s.Access.Token, s.Access.Exp))
	return c.JSON(http.StatusOK, echo.Map{
		"admin":  s.Admin,
		"access": tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
	})
}

// Logout handles POST /auth/logout by expiring the cookie.  Bearer tokens
// stay valid until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	ck := h.sessionCookie("", time.Unix(0, 0))
	ck.MaxAge = -1
	c.SetCookie(ck)
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Session handles GET /auth/session.  Anonymous callers and stale tokens
// get {"admin": null} rather than 401.
func (h *AuthHandler) Session(c echo.Context) error {
	id := middleware.AdminID(c)
	if id == "" {
		return c.JSON(http.StatusOK, echo.Map{"admin": nil})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Auth.Admin(ctx, id)
	if err != nil {
		if statusCode, _ := statusFor(err); statusCode == http.StatusUnauthorized {
			return c.JSON(http.StatusOK, echo.Map{"admin": nil})
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": a})
}

func (h *AuthHandler) sessionCookie(value string, exp time.Time) *http.Cookie {
	maxAge := int(time.Until(exp).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	return &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
