package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/metrics"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/queue"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/validation"
)

// EntryHandler serves the data-entry form.
type EntryHandler struct {
    API     *gateway.Client
    Monitor *monitor.Monitor
    Metrics *metrics.Metrics
    Audit   Auditor
}

func NewEntryHandler(api *gateway.Client, mon *monitor.Monitor, m *metrics.Metrics, a Auditor) *EntryHandler {
    return &EntryHandler{API: api, Monitor: mon, Metrics: m, Audit: orNoAudit(a)}
}

// EntryData is the view model of data_entry.html.
type EntryData struct {
    Form         validation.EntryForm
    Errors       map[string]string
    Error        string
    Institutions []string
    UserTypes    []model.UserType
    Substances   []model.Substance
}

func newEntryData(form validation.EntryForm) EntryData {
    return EntryData{
        Form:         form,
        Institutions: validation.Institutions,
        UserTypes:    model.UserTypes,
        Substances:   model.Substances,
    }
}

// Form shows an empty form with the default readings filled in.
func (h *EntryHandler) Form(c echo.Context) error {
    return h.renderForm(c, http.StatusOK, newEntryData(validation.DefaultEntryForm()))
}

// Submit validates the form and records the sample.  Invalid input never
// reaches the API.  On success the browser is redirected to a fresh form.
func (h *EntryHandler) Submit(c echo.Context) error {
    var form validation.EntryForm
    if err := c.Bind(&form); err != nil {
        data := newEntryData(validation.DefaultEntryForm())
        data.Error = "Invalid form submission"
        return h.renderForm(c, http.StatusBadRequest, data)
    }
    entry, v := validation.ValidateEntry(form)
    if v.HasErrors() {
        h.Metrics.ValidationFailed("entry")
        data := newEntryData(form)
        data.Errors = v.Fields()
        return h.renderForm(c, http.StatusUnprocessableEntity, data)
    }

    if err := h.API.CreateEntry(c.Request().Context(), middleware.Holder(c), entry); err != nil {
        if errors.Is(err, gateway.ErrUnauthorized) {
            return sessionLost(c)
        }
        c.Logger().Warnf("create entry failed: %v", err)
        data := newEntryData(form)
        data.Error = gateway.Message(err, "Failed to submit data")
        return h.renderForm(c, statusFor(err), data)
    }

    record(h.Audit, c, queue.ActionEntryCreated, entry.RollNumber, entry.InstitutionName)
    middleware.AddFlash(c, true, "Data submitted successfully")
    return c.Redirect(http.StatusSeeOther, "/data-entry")
}

func (h *EntryHandler) renderForm(c echo.Context, status int, data EntryData) error {
    return render(c, h.Monitor, status, "data_entry.html", "Data Entry", data)
}
