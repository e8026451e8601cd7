package handler

import (
    "fmt"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/metrics"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/queue"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/validation"
)

// AuthHandler bundles dependencies for the login and logout views.
type AuthHandler struct {
    API      *gateway.Client
    Monitor  *monitor.Monitor
    Datasets Datasets
    Metrics  *metrics.Metrics
    Audit    Auditor
    Limiter  *middleware.LoginLimiter
}

func NewAuthHandler(api *gateway.Client, mon *monitor.Monitor, ds Datasets, m *metrics.Metrics, a Auditor, l *middleware.LoginLimiter) *AuthHandler {
    return &AuthHandler{API: api, Monitor: mon, Datasets: ds, Metrics: m, Audit: orNoAudit(a), Limiter: l}
}

// LoginData is the view model of login.html.
type LoginData struct {
    Form   validation.LoginForm
    Errors map[string]string
    Error  string
}

// LoginPage shows the login form, or sends an authenticated user
// straight to their landing view.
func (h *AuthHandler) LoginPage(c echo.Context) error {
    if cur := middleware.Current(c); cur.Authenticated() {
        return c.Redirect(http.StatusSeeOther, cur.Role.Landing())
    }
    return h.renderLogin(c, http.StatusOK, LoginData{Form: validation.LoginForm{Role: "admin"}})
}

// Login validates the form, exchanges the credentials with the API and
// stores the result in the browser's session.
func (h *AuthHandler) Login(c echo.Context) error {
    var form validation.LoginForm
    if err := c.Bind(&form); err != nil {
        return h.renderLogin(c, http.StatusBadRequest, LoginData{Error: "Invalid form submission"})
    }
    form.Email = strings.TrimSpace(form.Email)
    if v := validation.ValidateLogin(form); v.HasErrors() {
        h.Metrics.ValidationFailed("login")
        form.Password = ""
        return h.renderLogin(c, http.StatusUnprocessableEntity, LoginData{Form: form, Errors: v.Fields()})
    }

    res, err := h.API.Login(c.Request().Context(), gateway.LoginRequest{
        Email:    form.Email,
        Password: form.Password,
        Role:     form.Role,
    })
    if err != nil {
        status := statusFor(err)
        c.Logger().Warnf("login failed for %s: status %d", maskEmail(form.Email), status)
        record(h.Audit, c, queue.ActionLoginFailed, form.Email, strconv.Itoa(status))
        form.Password = ""
        return h.renderLogin(c, status, LoginData{Form: form, Error: gateway.Message(err, "Login failed")})
    }

    // A new session id is issued on every login; the pre-login id dies.
    holder, oldID, err := middleware.Rotate(c)
    if err != nil {
        c.Logger().Errorf("login: session rotation failed: %v", err)
        return echo.NewHTTPError(http.StatusInternalServerError, "could not start session")
    }
    h.Datasets.Drop(oldID)
    holder.Login(res.Token, res.Role, res.UserID)
    h.Limiter.Reset(c)
    record(h.Audit, c, queue.ActionLogin, form.Email, "")
    return c.Redirect(http.StatusSeeOther, res.Role.Landing())
}

// Logout clears the session and its cached data.
func (h *AuthHandler) Logout(c echo.Context) error {
    if holder := middleware.Holder(c); holder != nil {
        if holder.Current().Authenticated() {
            record(h.Audit, c, queue.ActionLogout, "", "")
        }
        holder.Logout()
        h.Datasets.Drop(holder.ID())
    }
    return c.Redirect(http.StatusSeeOther, "/login")
}

// LoginBlocked renders the login form for a client over its attempt
// limit.
func (h *AuthHandler) LoginBlocked(c echo.Context, retryAfter int) error {
    msg := "Too many login attempts. Please try again shortly."
    if retryAfter > 0 {
        msg = fmt.Sprintf("Too many login attempts. Please try again in %d seconds.", retryAfter)
    }
    return h.renderLogin(c, http.StatusTooManyRequests, LoginData{Form: validation.LoginForm{Role: "admin"}, Error: msg})
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, data LoginData) error {
    return render(c, h.Monitor, status, "login.html", "Login", data)
}
