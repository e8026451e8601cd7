package middleware

import (
    "strings"

    "github.com/labstack/echo/v4"
)

// attemptKey names the login bucket for a request: the client IP and the
// submitted email, lower-cased.  Keying by email as well keeps one user
// behind a shared NAT from locking out the others.
func attemptKey(c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
    return "ip:" + ip + ":email:" + email
}
