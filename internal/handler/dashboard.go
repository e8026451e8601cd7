package handler

import (
    "errors"
    "net/http"
    "net/url"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/dataset"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/export"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/filter"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/queue"
)

// DashboardHandler serves the admin's filtered view of every entry.
type DashboardHandler struct {
    API      *gateway.Client
    Monitor  *monitor.Monitor
    Datasets Datasets
    MaxAge   time.Duration
    Audit    Auditor
}

func NewDashboardHandler(api *gateway.Client, mon *monitor.Monitor, ds Datasets, maxAge time.Duration, a Auditor) *DashboardHandler {
    return &DashboardHandler{API: api, Monitor: mon, Datasets: ds, MaxAge: maxAge, Audit: orNoAudit(a)}
}

// DashboardData is the view model of dashboard.html.
type DashboardData struct {
    Dimensions  []filter.Dimension
    Selected    map[string]string
    Summary     filter.Summary
    UserTypes   []model.UserType
    ExportURL   string
    RefreshURL  string
    Loaded      bool
    FetchedAt   time.Time
    Error       string
    FilterError string
}

// load makes sure the session has a snapshot, fetching one when none
// exists, when it is older than MaxAge, or when refresh is set.  A failed
// fetch keeps any previous snapshot and returns the error.
func (h *DashboardHandler) load(c echo.Context, refresh bool) (*dataset.Snapshot, error) {
    holder := middleware.Holder(c)
    sid := holder.ID()
    snap := h.Datasets.Snapshot(sid)
    stale := snap == nil || refresh || (h.MaxAge > 0 && time.Since(snap.FetchedAt) > h.MaxAge)
    if !stale {
        return snap, nil
    }

    ticket := h.Datasets.Begin()
    entries, err := h.API.AllEntries(c.Request().Context(), holder)
    if err != nil {
        if errors.Is(err, gateway.ErrUnauthorized) {
            h.Datasets.Drop(sid)
        }
        return h.Datasets.Snapshot(sid), err
    }
    if !h.Datasets.Commit(sid, ticket, entries) {
        c.Logger().Debugf("dashboard: discarded superseded fetch for %s", sid)
    }
    return h.Datasets.Snapshot(sid), nil
}

// View renders the dashboard for the filters in the query string.
// Unknown filter values are reported and ignored.
func (h *DashboardHandler) View(c echo.Context) error {
    spec, ferr := filter.ParseSpec(c.QueryParams())
    snap, err := h.load(c, c.QueryParam("refresh") != "")
    if errors.Is(err, gateway.ErrUnauthorized) {
        return sessionLost(c)
    }

    data := DashboardData{
        Dimensions: filter.Dimensions(),
        Selected:   spec.Selected(),
        UserTypes:  model.UserTypes,
        ExportURL:  withQuery("/dashboard/export.csv", spec.Values()),
        RefreshURL: withQuery("/dashboard", withRefresh(spec.Values())),
    }
    status := http.StatusOK
    if ferr != nil {
        data.FilterError = ferr.Error()
    }
    if err != nil {
        c.Logger().Warnf("dashboard: fetch entries failed: %v", err)
        data.Error = gateway.Message(err, "Failed to fetch entries")
        if snap == nil {
            status = statusFor(err)
        }
    }
    if snap != nil {
        data.Loaded = true
        data.FetchedAt = snap.FetchedAt
        data.Summary, _ = h.Datasets.Summary(middleware.SessionID(c), spec)
    } else {
        data.Summary = filter.Summarize(nil, spec)
    }
    return render(c, h.Monitor, status, "dashboard.html", "Dashboard", data)
}

// Export downloads the filtered entries as CSV.
func (h *DashboardHandler) Export(c echo.Context) error {
    spec, ferr := filter.ParseSpec(c.QueryParams())
    if ferr != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ferr.Error()})
    }
    snap, err := h.load(c, false)
    if errors.Is(err, gateway.ErrUnauthorized) {
        return sessionLost(c)
    }
    if snap == nil {
        middleware.AddFlash(c, false, gateway.Message(err, "Failed to fetch entries"))
        return c.Redirect(http.StatusSeeOther, withQuery("/dashboard", spec.Values()))
    }
    sum, _ := h.Datasets.Summary(middleware.SessionID(c), spec)

    record(h.Audit, c, queue.ActionExport, spec.Key(), "")
    res := c.Response()
    res.Header().Set(echo.HeaderContentType, export.ContentType+"; charset=utf-8")
    res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename+`"`)
    res.WriteHeader(http.StatusOK)
    return export.WriteCSV(res, sum.Visible)
}

// Entries answers with the filtered entries and their stats as JSON:
// {"data": [...], "count": n, "stats": {...}}.
func (h *DashboardHandler) Entries(c echo.Context) error {
    spec, ferr := filter.ParseSpec(c.QueryParams())
    if ferr != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ferr.Error()})
    }
    snap, err := h.load(c, c.QueryParam("refresh") != "")
    if err != nil && (snap == nil || errors.Is(err, gateway.ErrUnauthorized)) {
        return jsonError(c, err, "Failed to fetch entries")
    }
    if snap == nil {
        return sessionGoneJSON(c)
    }
    sum, ok := h.Datasets.Summary(middleware.SessionID(c), spec)
    if !ok {
        return sessionGoneJSON(c)
    }
    body := echo.Map{
        "data":      sum.Visible,
        "count":     len(sum.Visible),
        "stats":     sum.Stats,
        "fetchedAt": snap.FetchedAt,
    }
    if err != nil {
        body["warning"] = gateway.Message(err, "Failed to refresh entries")
    }
    return c.JSON(http.StatusOK, body)
}

func withQuery(path string, q url.Values) string {
    if enc := q.Encode(); enc != "" {
        return path + "?" + enc
    }
    return path
}

func withRefresh(q url.Values) url.Values {
    q.Set("refresh", "1")
    return q
}
