package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/session"
)

// Decision is the outcome of an access check.  When Allow is false the
// browser is sent to Redirect.
type Decision struct {
    Allow    bool
    Redirect string
}

// Authorize decides whether s may open a view restricted to required.
// No token sends the user to /login; a token with another role sends
// them to their own landing view.
func Authorize(s session.Session, required model.Role) Decision {
    if !s.Authenticated() {
        return Decision{Redirect: "/login"}
    }
    if s.Role != required {
        return Decision{Redirect: s.Role.Landing()}
    }
    return Decision{Allow: true}
}

// ExpiredMessage is flashed when a locally expired token forces logout.
const ExpiredMessage = "Your session has expired. Please log in again."

// RequireRole runs Authorize before the handler.  A token whose exp
// claim has passed is treated like a 401 from the API: the session is
// cleared first.  Page requests are redirected; JSON requests get 401
// or 403 with the redirect target in the body.
func RequireRole(role model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            h := Holder(c)
            var cur session.Session
            if h != nil {
                cur = h.Current()
                if cur.Expired(time.Now()) {
                    h.Logout()
                    AddFlash(c, false, ExpiredMessage)
                    cur = session.Session{}
                }
            }

            d := Authorize(cur, role)
            if d.Allow {
                return next(c)
            }
            if WantsJSON(c) {
                status := http.StatusForbidden
                if !cur.Authenticated() {
                    status = http.StatusUnauthorized
                }
                return c.JSON(status, echo.Map{"error": http.StatusText(status), "redirect": d.Redirect})
            }
            return c.Redirect(http.StatusSeeOther, d.Redirect)
        }
    }
}

// WantsJSON reports whether the client asked for JSON rather than a page.
func WantsJSON(c echo.Context) bool {
    r := c.Request()
    if strings.HasPrefix(r.URL.Path, "/api/") {
        return true
    }
    if r.Method == http.MethodDelete {
        return true
    }
    accept := r.Header.Get(echo.HeaderAccept)
    return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
