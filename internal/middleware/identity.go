package middleware

import (
    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth and OptionalAuth.
const (
    KeyAdminID    = "admin_id"
    KeyAdminEmail = "admin_email"
    KeyRole       = "role"
)

// AdminID returns the authenticated admin's id, or "" when the request is
// anonymous.
func AdminID(c echo.Context) string {
    if v, ok := c.Get(KeyAdminID).(string); ok {
        return v
    }
    return ""
}

// principal names the caller for rate-limit and cache keys.
func principal(c echo.Context) string {
    if id := AdminID(c); id != "" {
        return id
    }
    return "anon"
}
