package middleware

import (
    "errors"
    "net/http"
    "time"

    "github.com/gorilla/sessions"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/session"
)

// CookieName is the signed cookie carrying the browser's session id.
const CookieName = "tdd_session"

const (
    sidValue   = "sid"
    ctxHolder  = "session_holder"
    ctxCookie  = "session_cookie"
    ctxManager = "session_manager"
    flashOK    = "flash_success"
    flashError = "flash_error"
)

// NewCookieStore returns the signed cookie store used by LoadSession.
func NewCookieStore(secret string, ttl time.Duration, secure bool) *sessions.CookieStore {
    store := sessions.NewCookieStore([]byte(secret))
    store.Options = &sessions.Options{
        Path:     "/",
        MaxAge:   int(ttl / time.Second),
        HttpOnly: true,
        Secure:   secure,
        SameSite: http.SameSiteLaxMode,
    }
    return store
}

// LoadSession attaches the browser's session holder to the context,
// issuing a new session id cookie on first visit.  A cookie that fails
// to verify is replaced rather than rejected.
func LoadSession(store sessions.Store, mgr *session.Manager) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            sess, err := store.Get(c.Request(), CookieName)
            if err != nil {
                c.Logger().Warnf("session: discarding unreadable cookie: %v", err)
                sess, _ = store.New(c.Request(), CookieName)
            }
            sid, _ := sess.Values[sidValue].(string)
            if sid == "" {
                sid = session.NewID()
                sess.Values[sidValue] = sid
                if err := sess.Save(c.Request(), c.Response()); err != nil {
                    return echo.NewHTTPError(http.StatusInternalServerError, "could not start session")
                }
            }
            c.Set(ctxCookie, sess)
            c.Set(ctxManager, mgr)
            c.Set(ctxHolder, mgr.Get(c.Request().Context(), sid))
            return next(c)
        }
    }
}

// Rotate moves the browser to a fresh session id and returns its holder
// together with the id it replaces.  The old holder is logged out and
// forgotten, so a cookie captured before the call opens nothing.  Flashes
// already queued in the cookie are kept.
func Rotate(c echo.Context) (*session.Holder, string, error) {
    sess, ok := c.Get(ctxCookie).(*sessions.Session)
    mgr, _ := c.Get(ctxManager).(*session.Manager)
    if !ok || mgr == nil {
        return nil, "", errors.New("session: rotate outside LoadSession")
    }
    oldID := SessionID(c)

    sid := session.NewID()
    sess.Values[sidValue] = sid
    if err := sess.Save(c.Request(), c.Response()); err != nil {
        return nil, "", err
    }
    h := mgr.Get(c.Request().Context(), sid)
    c.Set(ctxHolder, h)

    if old, ok := mgr.Lookup(oldID); ok {
        old.Logout()
    }
    mgr.Forget(oldID)
    return h, oldID, nil
}

// Holder returns the session holder LoadSession attached, or nil.
func Holder(c echo.Context) *session.Holder {
    h, _ := c.Get(ctxHolder).(*session.Holder)
    return h
}

// SessionID returns the current browser session id, or "".
func SessionID(c echo.Context) string {
    if h := Holder(c); h != nil {
        return h.ID()
    }
    return ""
}

// Current returns the current session, the zero value when none.
func Current(c echo.Context) session.Session {
    if h := Holder(c); h != nil {
        return h.Current()
    }
    return session.Session{}
}

// Flash is one message queued for the next rendered page.
type Flash struct {
    Kind    string // "success" or "error"
    Message string
}

// AddFlash queues a message and saves the cookie.  It must run before
// the response body is written.
func AddFlash(c echo.Context, success bool, msg string) {
    sess, ok := c.Get(ctxCookie).(*sessions.Session)
    if !ok {
        return
    }
    key := flashError
    if success {
        key = flashOK
    }
    sess.AddFlash(msg, key)
    if err := sess.Save(c.Request(), c.Response()); err != nil {
        c.Logger().Warnf("session: flash not saved: %v", err)
    }
}

// Flashes pops every queued message, successes first.
func Flashes(c echo.Context) []Flash {
    sess, ok := c.Get(ctxCookie).(*sessions.Session)
    if !ok {
        return nil
    }
    var out []Flash
    for _, kind := range []struct {
        key, name string
    }{{flashOK, "success"}, {flashError, "error"}} {
        for _, f := range sess.Flashes(kind.key) {
            if s, ok := f.(string); ok {
                out = append(out, Flash{Kind: kind.name, Message: s})
            }
        }
    }
    if len(out) > 0 {
        if err := sess.Save(c.Request(), c.Response()); err != nil {
            c.Logger().Warnf("session: flashes not cleared: %v", err)
        }
    }
    return out
}
