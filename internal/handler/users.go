package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/metrics"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/queue"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/validation"
)

// UserHandler serves the admin's management of data-entry accounts.
type UserHandler struct {
    API     *gateway.Client
    Monitor *monitor.Monitor
    Metrics *metrics.Metrics
    Audit   Auditor
}

func NewUserHandler(api *gateway.Client, mon *monitor.Monitor, m *metrics.Metrics, a Auditor) *UserHandler {
    return &UserHandler{API: api, Monitor: mon, Metrics: m, Audit: orNoAudit(a)}
}

// UsersData is the view model of users.html.
type UsersData struct {
    Users  []model.Account
    Form   validation.NewUserForm
    Errors map[string]string
    Error  string
}

// List shows every data-entry account and the create form.
func (h *UserHandler) List(c echo.Context) error {
    return h.renderList(c, http.StatusOK, UsersData{})
}

// renderList fetches the current accounts and renders the page around
// data.  A failed fetch is shown alongside any error already in data.
func (h *UserHandler) renderList(c echo.Context, status int, data UsersData) error {
    users, err := h.API.DataEntryUsers(c.Request().Context(), middleware.Holder(c))
    if err != nil {
        if errors.Is(err, gateway.ErrUnauthorized) {
            return sessionLost(c)
        }
        c.Logger().Warnf("users: list failed: %v", err)
        if data.Error == "" {
            data.Error = gateway.Message(err, "Failed to fetch users")
        }
        if status == http.StatusOK {
            status = statusFor(err)
        }
    }
    data.Users = users
    return render(c, h.Monitor, status, "users.html", "User Management", data)
}

// Create registers a new data-entry account.
func (h *UserHandler) Create(c echo.Context) error {
    var form validation.NewUserForm
    if err := c.Bind(&form); err != nil {
        return h.renderList(c, http.StatusBadRequest, UsersData{Error: "Invalid form submission"})
    }
    acct, v := validation.ValidateNewUser(form)
    form.Password = ""
    if v.HasErrors() {
        h.Metrics.ValidationFailed("user")
        return h.renderList(c, http.StatusUnprocessableEntity, UsersData{Form: form, Errors: v.Fields()})
    }

    if _, err := h.API.Register(c.Request().Context(), middleware.Holder(c), acct); err != nil {
        if errors.Is(err, gateway.ErrUnauthorized) {
            return sessionLost(c)
        }
        c.Logger().Warnf("users: create failed: %v", err)
        return h.renderList(c, statusFor(err), UsersData{Form: form, Error: gateway.Message(err, "Failed to create user")})
    }

    record(h.Audit, c, queue.ActionUserCreated, acct.Email, "")
    middleware.AddFlash(c, true, "User created successfully")
    return c.Redirect(http.StatusSeeOther, "/admin/users")
}

// Delete removes an account from a form post and redirects back.
func (h *UserHandler) Delete(c echo.Context) error {
    id := strings.TrimSpace(c.Param("id"))
    if err := h.delete(c, id); err != nil {
        if errors.Is(err, gateway.ErrUnauthorized) {
            return sessionLost(c)
        }
        c.Logger().Warnf("users: delete %s failed: %v", id, err)
        middleware.AddFlash(c, false, "Failed to delete user. Please try again.")
    } else {
        middleware.AddFlash(c, true, "User deleted successfully")
    }
    return c.Redirect(http.StatusSeeOther, "/admin/users")
}

// DeleteJSON is the DELETE /admin/users/:id variant for scripts.
func (h *UserHandler) DeleteJSON(c echo.Context) error {
    id := strings.TrimSpace(c.Param("id"))
    if err := h.delete(c, id); err != nil {
        return jsonError(c, err, "Failed to delete user")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "id": id})
}

func (h *UserHandler) delete(c echo.Context, id string) error {
    if id == "" {
        return &gateway.APIError{Status: http.StatusBadRequest, Message: "Missing user id"}
    }
    if err := h.API.DeleteUser(c.Request().Context(), middleware.Holder(c), id); err != nil {
        return err
    }
    record(h.Audit, c, queue.ActionUserDeleted, id, "")
    return nil
}
