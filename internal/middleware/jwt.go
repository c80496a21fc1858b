package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/digivite/digivite/internal/utils"
)

// AdminCookie is the httpOnly cookie carrying the admin access token.
const AdminCookie = "adminToken"

// JWTAuth rejects requests without a valid admin token.  The token is read
// from "Authorization: Bearer ..." first and then from the adminToken
// cookie.  On success the admin id, email and role are stored in the
// context (see AdminID).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := tokenFromRequest(c)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
            }
            setIdentity(c, claims)
            return next(c)
        }
    }
}

// OptionalAuth sets the identity when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if raw := tokenFromRequest(c); raw != "" {
                if claims, err := utils.ParseAccessToken(secret, raw); err == nil {
                    setIdentity(c, claims)
                }
            }
            return next(c)
        }
    }
}

func tokenFromRequest(c echo.Context) string {
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if strings.HasPrefix(auth, "Bearer ") {
        if raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); raw != "" {
            return raw
        }
    }
    if ck, err := c.Cookie(AdminCookie); err == nil {
        return ck.Value
    }
    return ""
}

func setIdentity(c echo.Context, cl utils.AdminClaims) {
    c.Set(KeyAdminID, cl.AdminID)
    c.Set(KeyAdminEmail, cl.Email)
    c.Set(KeyRole, cl.Role)
}
