package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/dataset"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/filter"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/queue"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/view"
)

// Auditor receives an event for every user-visible action.
// *service.Auditor satisfies it.
type Auditor interface {
    Record(ev queue.AuditEvent)
}

// Datasets is the per-session entry cache.  *dataset.Cache satisfies it.
type Datasets interface {
    Begin() dataset.Ticket
    Commit(sid string, t dataset.Ticket, entries []model.Entry) bool
    Snapshot(sid string) *dataset.Snapshot
    Summary(sid string, spec filter.Spec) (filter.Summary, bool)
    Drop(sid string)
}

type noAudit struct{}

func (noAudit) Record(queue.AuditEvent) {}

// orNoAudit keeps handlers from nil-checking the auditor.
func orNoAudit(a Auditor) Auditor {
    if a == nil {
        return noAudit{}
    }
    return a
}

// record sends an audit event stamped with the caller's session.
func record(a Auditor, c echo.Context, action, subject, detail string) {
    cur := middleware.Current(c)
    a.Record(queue.AuditEvent{
        Action:    action,
        SessionID: middleware.SessionID(c),
        UserID:    cur.UserID,
        Role:      string(cur.Role),
        Subject:   subject,
        Detail:    detail,
        RemoteIP:  c.RealIP(),
        At:        time.Now().UTC().Format(time.RFC3339),
    })
}

// render wraps data in the shared page model and executes the template.
func render(c echo.Context, mon *monitor.Monitor, status int, name, title string, data any) error {
    return c.Render(status, name, view.Page{
        Title:     title,
        Session:   middleware.Current(c),
        Flashes:   middleware.Flashes(c),
        Reachable: reachable(mon),
        Data:      data,
    })
}

func reachable(mon *monitor.Monitor) bool {
    return mon == nil || mon.Reachable()
}

// statusFor maps a gateway error onto the status the dashboard answers
// with: the API's own 4xx, 503 when it is unreachable, 502 otherwise.
func statusFor(err error) int {
    var apiErr *gateway.APIError
    switch {
    case errors.Is(err, gateway.ErrNetwork):
        return http.StatusServiceUnavailable
    case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
        return apiErr.Status
    default:
        return http.StatusBadGateway
    }
}

// sessionLost handles a 401 from the API on a page request.  The gateway
// has already cleared the session; the user is sent back to log in.
func sessionLost(c echo.Context) error {
    middleware.AddFlash(c, false, gateway.Message(gateway.ErrUnauthorized, ""))
    return c.Redirect(http.StatusSeeOther, "/login")
}

// maskEmail keeps the first character and the domain of an address for
// log lines: "jane@x.io" becomes "j***@x.io".
func maskEmail(email string) string {
    at := strings.LastIndex(email, "@")
    if at < 1 {
        return "***"
    }
    return email[:1] + "***" + email[at:]
}

// sessionGoneJSON answers a JSON request whose session lost its data
// mid-request, which only a concurrent logout does.
func sessionGoneJSON(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{
        "error":    gateway.Message(gateway.ErrUnauthorized, ""),
        "redirect": "/login",
    })
}

// jsonError answers a JSON request with the user-facing message for err.
func jsonError(c echo.Context, err error, fallback string) error {
    body := echo.Map{"error": gateway.Message(err, fallback)}
    if errors.Is(err, gateway.ErrUnauthorized) {
        body["redirect"] = "/login"
    }
    return c.JSON(statusFor(err), body)
}
