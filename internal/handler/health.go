package handler // declare the package name; contains HTTP handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
)

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.  It says
// nothing about the remote API; see ConnectivityHandler for that.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Home renders the landing page.  A logged-in user is offered a link to
// their own workspace.
func Home(mon *monitor.Monitor) echo.HandlerFunc {
    return func(c echo.Context) error {
        return render(c, mon, http.StatusOK, "home.html", "Home", middleware.Current(c).Role.Landing())
    }
}
