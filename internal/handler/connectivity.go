package handler

import (
    "log"
    "net/http"
    "time"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
)

// ConnectivityHandler exposes the monitor's reachable flag to browsers.
type ConnectivityHandler struct {
    Monitor *monitor.Monitor
}

func NewConnectivityHandler(mon *monitor.Monitor) *ConnectivityHandler {
    return &ConnectivityHandler{Monitor: mon}
}

// ConnectivityState is the payload of both the JSON and websocket views.
type ConnectivityState struct {
    Reachable bool   `json:"reachable"`
    Message   string `json:"message,omitempty"`
}

func stateOf(ok bool) ConnectivityState {
    if ok {
        return ConnectivityState{Reachable: true}
    }
    return ConnectivityState{Message: gateway.Message(gateway.ErrNetwork, "")}
}

// Status answers with the current state.
func (h *ConnectivityHandler) Status(c echo.Context) error {
    return c.JSON(http.StatusOK, stateOf(reachable(h.Monitor)))
}

const (
    wsWriteWait  = 10 * time.Second
    wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{}

// Stream upgrades to a websocket, sends the current state and then one
// message per flip until the browser goes away.
func (h *ConnectivityHandler) Stream(c echo.Context) error {
    if h.Monitor == nil {
        return echo.NewHTTPError(http.StatusServiceUnavailable, "connectivity monitor disabled")
    }
    ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        log.Printf("connectivity: websocket upgrade failed: %v", err)
        return nil
    }
    defer ws.Close()

    updates, release := h.Monitor.Subscribe()
    defer release()

    // The reader only watches for the close frame; browsers send nothing.
    gone := make(chan struct{})
    go func() {
        defer close(gone)
        for {
            if _, _, err := ws.ReadMessage(); err != nil {
                return
            }
        }
    }()

    send := func(v any) bool {
        _ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
        return ws.WriteJSON(v) == nil
    }
    if !send(stateOf(h.Monitor.Reachable())) {
        return nil
    }

    ping := time.NewTicker(wsPingPeriod)
    defer ping.Stop()
    for {
        select {
        case <-gone:
            return nil
        case <-c.Request().Context().Done():
            return nil
        case ok := <-updates:
            if !send(stateOf(ok)) {
                return nil
            }
        case <-ping.C:
            if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
                return nil
            }
        }
    }
}
