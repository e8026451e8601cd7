package router // package router defines how HTTP routes are registered for the dashboard

import (
    "github.com/gorilla/sessions"
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/config"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/dataset"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/handler"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/metrics"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/session"
)

// Deps is everything the views need.  Monitor, Redis and Audit may be
// nil; the matching features then degrade to no-ops.
type Deps struct {
    API       *gateway.Client
    Monitor   *monitor.Monitor
    Sessions  *session.Manager
    Cookies   sessions.Store
    Datasets  *dataset.Cache
    Metrics   *metrics.Metrics
    Redis     *redis.Client
    RateLimit config.RateLimitConfig
    Dataset   config.DatasetConfig
    Audit     handler.Auditor
}

// RegisterRoutes registers routes that need no browser session: the
// health check and, when a gatherer is supplied, Prometheus metrics.
func RegisterRoutes(e *echo.Echo, gatherer prometheus.Gatherer) {
    // Load balancers poll /healthz; it never touches the remote API.
    e.GET("/healthz", handler.Health)
    if gatherer != nil {
        e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
    }
}

// RegisterViews registers every page and its guard.  All of them run
// behind LoadSession so handlers can reach the browser's session holder.
func RegisterViews(e *echo.Echo, d Deps) {
    g := e.Group("", middleware.LoadSession(d.Cookies, d.Sessions))

    limiter := middleware.NewLoginLimiter(d.RateLimit, d.Redis)
    auth := handler.NewAuthHandler(d.API, d.Monitor, d.Datasets, d.Metrics, d.Audit, limiter)
    conn := handler.NewConnectivityHandler(d.Monitor)

    // Public pages.  Login attempts are limited per client IP and email.
    g.GET("/", handler.Home(d.Monitor))
    g.GET("/login", auth.LoginPage)
    g.POST("/login", auth.Login, limiter.Guard(auth.LoginBlocked))
    g.POST("/logout", auth.Logout)
    g.GET("/api/connectivity", conn.Status)
    g.GET("/ws/connectivity", conn.Stream)

    // Data entry role.
    entry := handler.NewEntryHandler(d.API, d.Monitor, d.Metrics, d.Audit)
    de := g.Group("/data-entry", middleware.RequireRole(model.RoleDataEntry))
    de.GET("", entry.Form)
    de.POST("", entry.Submit)

    // Admin role.
    dash := handler.NewDashboardHandler(d.API, d.Monitor, d.Datasets, d.Dataset.MaxAge, d.Audit)
    admin := middleware.RequireRole(model.RoleAdmin)
    g.GET("/dashboard", dash.View, admin)
    g.GET("/dashboard/export.csv", dash.Export, admin)
    g.GET("/api/entries", dash.Entries, admin)

    users := handler.NewUserHandler(d.API, d.Monitor, d.Metrics, d.Audit)
    ug := g.Group("/admin/users", admin)
    ug.GET("", users.List)
    ug.POST("", users.Create)
    ug.POST("/:id/delete", users.Delete)
    ug.DELETE("/:id", users.DeleteJSON)
}
