package handler_test

import (
    "encoding/json"
    "io"
    "net/http"
    "net/http/cookiejar"
    "net/http/httptest"
    "net/url"
    "strings"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/config"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/dataset"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/export"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/queue"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/router"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/session"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/view"
)

// fakeAPI stands in for the remote API.
type fakeAPI struct {
    srv *httptest.Server

    mu       sync.Mutex
    created  []map[string]any
    deleted  []string
    register []map[string]any

    entryCalls atomic.Int32
    revoke     atomic.Bool
}

const entriesJSON = `{"success":true,"count":3,"data":[
 {"_id":"e1","institutionName":"Hospital B","name":"Jane","userType":"Non-user","time":25,"phLevel":6.8,"conductivity":180,"temperature":36.5,"substanceDetected":"None","createdAt":"2024-01-15T09:00:00Z"},
 {"_id":"e2","institutionName":"City Hospital","name":"John","userType":"Regular User","time":30,"phLevel":7,"conductivity":200,"temperature":37,"substanceDetected":"Nicotine","createdAt":"2024-02-10T09:00:00Z"},
 {"_id":"e3","institution":"Research Lab C","name":"Mike","userType":"Addict","time":45,"pH":7.5,"nicotineLevel":300,"temperature":37.2,"substanceDetected":"Nicotine","createdAt":"2024-02-20T09:00:00Z"}
]}`

func newFakeAPI(t *testing.T) *fakeAPI {
    f := &fakeAPI{}
    f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
    t.Cleanup(f.srv.Close)
    return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
    auth := r.Header.Get("Authorization")
    authorized := strings.HasPrefix(auth, "Bearer tok-") && !f.revoke.Load()
    readBody := func() map[string]any {
        var m map[string]any
        _ = json.NewDecoder(r.Body).Decode(&m)
        return m
    }

    switch {
    case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
        body := readBody()
        switch body["email"] {
        case "admin@x.io":
            _, _ = io.WriteString(w, `{"token":"tok-admin","role":"admin","userId":"a1"}`)
        case "entry@x.io":
            _, _ = io.WriteString(w, `{"token":"tok-entry","user":{"id":"d1","email":"entry@x.io","role":"data-entry"}}`)
        default:
            w.WriteHeader(http.StatusUnauthorized)
            _, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
        }
        return
    case !authorized:
        w.WriteHeader(http.StatusUnauthorized)
        _, _ = io.WriteString(w, `{"message":"Token is not valid"}`)
        return
    }

    switch {
    case r.Method == http.MethodGet && r.URL.Path == "/admin/all-entries":
        f.entryCalls.Add(1)
        _, _ = io.WriteString(w, entriesJSON)
    case r.Method == http.MethodGet && r.URL.Path == "/admin/data-entry-users":
        _, _ = io.WriteString(w, `{"success":true,"count":1,"data":[{"_id":"d1","name":"Ravi","email":"entry@x.io","role":"data_entry"}]}`)
    case r.Method == http.MethodPost && r.URL.Path == "/auth/register":
        body := readBody()
        if body["email"] == "taken@x.io" {
            w.WriteHeader(http.StatusBadRequest)
            _, _ = io.WriteString(w, `{"message":"User already exists"}`)
            return
        }
        f.mu.Lock()
        f.register = append(f.register, body)
        f.mu.Unlock()
        w.WriteHeader(http.StatusCreated)
        _, _ = io.WriteString(w, `{"_id":"d2","name":"New","email":"new@x.io","role":"data_entry"}`)
    case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/admin/data-entry-users/"):
        f.mu.Lock()
        f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/admin/data-entry-users/"))
        f.mu.Unlock()
        _, _ = io.WriteString(w, `{"success":true}`)
    case r.Method == http.MethodPost && r.URL.Path == "/data/entry":
        body := readBody()
        f.mu.Lock()
        f.created = append(f.created, body)
        f.mu.Unlock()
        w.WriteHeader(http.StatusCreated)
        _, _ = io.WriteString(w, `{"success":true}`)
    default:
        w.WriteHeader(http.StatusNotFound)
    }
}

// recordingAuditor captures audit events synchronously.
type recordingAuditor struct {
    mu     sync.Mutex
    events []queue.AuditEvent
}

func (a *recordingAuditor) Record(ev queue.AuditEvent) {
    a.mu.Lock()
    a.events = append(a.events, ev)
    a.mu.Unlock()
}

func (a *recordingAuditor) actions() []string {
    a.mu.Lock()
    defer a.mu.Unlock()
    out := make([]string, len(a.events))
    for i, ev := range a.events {
        out[i] = ev.Action
    }
    return out
}

type app struct {
    api   *fakeAPI
    srv   *httptest.Server
    audit *recordingAuditor
}

func newApp(t *testing.T) *app {
    t.Helper()
    api := newFakeAPI(t)
    renderer, err := view.NewRenderer()
    if err != nil {
        t.Fatalf("renderer: %v", err)
    }
    audit := &recordingAuditor{}

    e := echo.New()
    e.Renderer = renderer
    router.RegisterRoutes(e, nil)
    router.RegisterViews(e, router.Deps{
        API:       gateway.New(api.srv.URL, 5*time.Second, nil),
        Sessions:  session.NewManager(session.NewMemoryStore(), 0),
        Cookies:   middleware.NewCookieStore("handler-test-secret-0123456789", time.Hour, false),
        Datasets:  dataset.New(),
        RateLimit: config.RateLimitConfig{Enabled: false},
        Audit:     audit,
    })
    srv := httptest.NewServer(e)
    t.Cleanup(srv.Close)
    return &app{api: api, srv: srv, audit: audit}
}

// browser returns a client with its own cookie jar that does not follow
// redirects.
func (a *app) browser(t *testing.T) *http.Client {
    t.Helper()
    jar, err := cookiejar.New(nil)
    if err != nil {
        t.Fatalf("jar: %v", err)
    }
    return &http.Client{
        Jar: jar,
        CheckRedirect: func(*http.Request, []*http.Request) error {
            return http.ErrUseLastResponse
        },
    }
}

type result struct {
    status   int
    location string
    header   http.Header
    body     string
}

func (a *app) do(t *testing.T, b *http.Client, method, path string, form url.Values) result {
    t.Helper()
    var body io.Reader
    if form != nil {
        body = strings.NewReader(form.Encode())
    }
    req, err := http.NewRequest(method, a.srv.URL+path, body)
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    if form != nil {
        req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    }
    resp, err := b.Do(req)
    if err != nil {
        t.Fatalf("%s %s: %v", method, path, err)
    }
    defer resp.Body.Close()
    raw, _ := io.ReadAll(resp.Body)
    return result{status: resp.StatusCode, location: resp.Header.Get("Location"), header: resp.Header, body: string(raw)}
}

func (a *app) login(t *testing.T, b *http.Client, email, role string) result {
    t.Helper()
    return a.do(t, b, http.MethodPost, "/login", url.Values{
        "email": {email}, "password": {"secret1"}, "role": {role},
    })
}

func TestLoginRoutesByRole(t *testing.T) {
    a := newApp(t)

    admin := a.browser(t)
    if r := a.login(t, admin, "admin@x.io", "admin"); r.status != http.StatusSeeOther || r.location != "/dashboard" {
        t.Fatalf("admin login: %d %q", r.status, r.location)
    }
    entry := a.browser(t)
    if r := a.login(t, entry, "entry@x.io", "data-entry"); r.status != http.StatusSeeOther || r.location != "/data-entry" {
        t.Fatalf("data entry login: %d %q", r.status, r.location)
    }

    // Each view is guarded by role.
    if r := a.do(t, entry, http.MethodGet, "/dashboard", nil); r.location != "/data-entry" {
        t.Fatalf("data entry on dashboard: %d %q", r.status, r.location)
    }
    if r := a.do(t, admin, http.MethodGet, "/data-entry", nil); r.location != "/dashboard" {
        t.Fatalf("admin on data entry: %d %q", r.status, r.location)
    }
    if r := a.do(t, a.browser(t), http.MethodGet, "/admin/users", nil); r.location != "/login" {
        t.Fatalf("anonymous on users: %d %q", r.status, r.location)
    }
    if r := a.do(t, admin, http.MethodGet, "/login", nil); r.location != "/dashboard" {
        t.Fatalf("logged-in user on login page: %d %q", r.status, r.location)
    }
}

func TestLoginErrors(t *testing.T) {
    a := newApp(t)
    b := a.browser(t)

    r := a.do(t, b, http.MethodPost, "/login", url.Values{"email": {"admin@x.io"}, "password": {"123"}, "role": {"admin"}})
    if r.status != http.StatusUnprocessableEntity || !strings.Contains(r.body, "Password must be at least 6 characters") {
        t.Fatalf("short password: %d", r.status)
    }

    r = a.login(t, b, "nobody@x.io", "admin")
    if r.status != http.StatusUnauthorized || !strings.Contains(r.body, "Invalid credentials") {
        t.Fatalf("bad credentials: %d", r.status)
    }
    if got := a.audit.actions(); len(got) != 1 || got[0] != queue.ActionLoginFailed {
        t.Fatalf("unexpected audit trail %v", got)
    }
}

func TestLogoutClearsSession(t *testing.T) {
    a := newApp(t)
    b := a.browser(t)
    a.login(t, b, "admin@x.io", "admin")

    if r := a.do(t, b, http.MethodPost, "/logout", nil); r.location != "/login" {
        t.Fatalf("logout: %d %q", r.status, r.location)
    }
    if r := a.do(t, b, http.MethodGet, "/dashboard", nil); r.location != "/login" {
        t.Fatalf("dashboard after logout: %d %q", r.status, r.location)
    }
}

func TestDataEntrySubmit(t *testing.T) {
    a := newApp(t)
    b := a.browser(t)
    a.login(t, b, "entry@x.io", "data-entry")

    r := a.do(t, b, http.MethodGet, "/data-entry", nil)
    if r.status != http.StatusOK || !strings.Contains(r.body, `value="30"`) || !strings.Contains(r.body, "City Hospital") {
        t.Fatalf("form defaults missing: %d", r.status)
    }

    form := url.Values{
        "institutionName": {"City Hospital"}, "rollNumber": {"R-7"}, "name": {"Asha"},
        "userType": {"Addict"}, "time": {"45"}, "phLevel": {"15"}, "conductivity": {"310"},
        "temperature": {"37.9"}, "substanceDetected": {"Nicotine"},
    }
    r = a.do(t, b, http.MethodPost, "/data-entry", form)
    if r.status != http.StatusUnprocessableEntity || !strings.Contains(r.body, "pH level must be between 0 and 14") {
        t.Fatalf("invalid pH: %d", r.status)
    }
    if !strings.Contains(r.body, `value="R-7"`) {
        t.Fatalf("form values must be kept on error")
    }

    form.Set("phLevel", "8.2")
    r = a.do(t, b, http.MethodPost, "/data-entry", form)
    if r.status != http.StatusSeeOther || r.location != "/data-entry" {
        t.Fatalf("valid submit: %d %q", r.status, r.location)
    }
    a.api.mu.Lock()
    created := a.api.created
    a.api.mu.Unlock()
    if len(created) != 1 || created[0]["phLevel"] != 8.2 || created[0]["userType"] != "Addict" {
        t.Fatalf("unexpected API payloads %v", created)
    }

    if r = a.do(t, b, http.MethodGet, "/data-entry", nil); !strings.Contains(r.body, "Data submitted successfully") {
        t.Fatalf("expected success flash")
    }
}

func TestDashboardFiltersStatsAndExport(t *testing.T) {
    a := newApp(t)
    b := a.browser(t)
    a.login(t, b, "admin@x.io", "admin")

    r := a.do(t, b, http.MethodGet, "/dashboard?phRange=acidic", nil)
    if r.status != http.StatusOK || !strings.Contains(r.body, "Jane") || strings.Contains(r.body, "Mike") {
        t.Fatalf("acidic filter: %d", r.status)
    }

    r = a.do(t, b, http.MethodGet, "/api/entries?substanceDetected=Nicotine", nil)
    var payload struct {
        Data  []map[string]any `json:"data"`
        Count int              `json:"count"`
        Stats struct {
            UniqueUsers   int     `json:"uniqueUsers"`
            DetectionRate float64 `json:"detectionRate"`
            TotalSamples  int     `json:"totalSamples"`
        } `json:"stats"`
    }
    if err := json.Unmarshal([]byte(r.body), &payload); err != nil {
        t.Fatalf("decode %q: %v", r.body, err)
    }
    if payload.Count != 2 || payload.Stats.TotalSamples != 2 || payload.Stats.DetectionRate != 100 {
        t.Fatalf("unexpected payload %+v", payload)
    }

    r = a.do(t, b, http.MethodGet, "/dashboard/export.csv?userType=Addict", nil)
    if r.status != http.StatusOK {
        t.Fatalf("export: %d", r.status)
    }
    if cd := r.header.Get("Content-Disposition"); !strings.Contains(cd, export.Filename) {
        t.Fatalf("unexpected disposition %q", cd)
    }
    lines := strings.Split(r.body, "\n")
    if len(lines) != 2 || lines[1] != "Research Lab C,Mike,Addict,45,7.5,300,37.2,Nicotine" {
        t.Fatalf("unexpected csv %q", r.body)
    }

    // Views share one snapshot until a refresh is requested.
    if n := a.api.entryCalls.Load(); n != 1 {
        t.Fatalf("expected one fetch, got %d", n)
    }
    a.do(t, b, http.MethodGet, "/dashboard?refresh=1", nil)
    if n := a.api.entryCalls.Load(); n != 2 {
        t.Fatalf("refresh should refetch, got %d fetches", n)
    }

    if r = a.do(t, b, http.MethodGet, "/dashboard?phRange=sour", nil); r.status != http.StatusOK || !strings.Contains(r.body, "unknown value") {
        t.Fatalf("unknown filter value should be reported: %d", r.status)
    }
}

func TestUnauthorizedResponseForcesLogout(t *testing.T) {
    a := newApp(t)
    b := a.browser(t)
    a.login(t, b, "admin@x.io", "admin")

    a.api.revoke.Store(true)
    r := a.do(t, b, http.MethodGet, "/dashboard", nil)
    if r.status != http.StatusSeeOther || r.location != "/login" {
        t.Fatalf("revoked token: %d %q", r.status, r.location)
    }
    a.api.revoke.Store(false)

    r = a.do(t, b, http.MethodGet, "/dashboard", nil)
    if r.location != "/login" {
        t.Fatalf("session must stay cleared after 401: %d %q", r.status, r.location)
    }
    if r = a.do(t, b, http.MethodGet, "/login", nil); !strings.Contains(r.body, "Your session has expired") {
        t.Fatalf("expected expiry flash on login page")
    }
}

func TestUserManagement(t *testing.T) {
    a := newApp(t)
    b := a.browser(t)
    a.login(t, b, "admin@x.io", "admin")

    r := a.do(t, b, http.MethodGet, "/admin/users", nil)
    if r.status != http.StatusOK || !strings.Contains(r.body, "entry@x.io") {
        t.Fatalf("list users: %d", r.status)
    }

    r = a.do(t, b, http.MethodPost, "/admin/users", url.Values{"name": {"New"}, "email": {"bad"}, "password": {"secret1"}})
    if r.status != http.StatusUnprocessableEntity {
        t.Fatalf("invalid email: %d", r.status)
    }

    r = a.do(t, b, http.MethodPost, "/admin/users", url.Values{"name": {"New"}, "email": {"taken@x.io"}, "password": {"secret1"}})
    if r.status != http.StatusBadRequest || !strings.Contains(r.body, "User already exists") {
        t.Fatalf("duplicate: %d", r.status)
    }

    r = a.do(t, b, http.MethodPost, "/admin/users", url.Values{"name": {"New"}, "email": {"new@x.io"}, "password": {"secret1"}})
    if r.status != http.StatusSeeOther || r.location != "/admin/users" {
        t.Fatalf("create: %d %q", r.status, r.location)
    }
    a.api.mu.Lock()
    reg := a.api.register
    a.api.mu.Unlock()
    if len(reg) != 1 || reg[0]["role"] != "data_entry" {
        t.Fatalf("unexpected register payload %v", reg)
    }

    r = a.do(t, b, http.MethodPost, "/admin/users/d1/delete", nil)
    if r.status != http.StatusSeeOther {
        t.Fatalf("delete form: %d", r.status)
    }
    if r = a.do(t, b, http.MethodGet, "/admin/users", nil); !strings.Contains(r.body, "User deleted successfully") {
        t.Fatalf("expected delete flash")
    }

    r = a.do(t, b, http.MethodDelete, "/admin/users/d9", nil)
    if r.status != http.StatusOK || !strings.Contains(r.body, `"success":true`) {
        t.Fatalf("delete json: %d %s", r.status, r.body)
    }
    a.api.mu.Lock()
    deleted := a.api.deleted
    a.api.mu.Unlock()
    if len(deleted) != 2 || deleted[0] != "d1" || deleted[1] != "d9" {
        t.Fatalf("unexpected deletes %v", deleted)
    }
}

func TestConnectivityAndHealth(t *testing.T) {
    a := newApp(t)
    b := a.browser(t)

    if r := a.do(t, b, http.MethodGet, "/healthz", nil); r.status != http.StatusOK || r.body != "ok" {
        t.Fatalf("healthz: %d %q", r.status, r.body)
    }
    r := a.do(t, b, http.MethodGet, "/api/connectivity", nil)
    if r.status != http.StatusOK || !strings.Contains(r.body, `"reachable":true`) {
        t.Fatalf("connectivity: %d %s", r.status, r.body)
    }
}

func TestLoginIssuesFreshSessionID(t *testing.T) {
    a := newApp(t)
    u, _ := url.Parse(a.srv.URL)

    // A cookie obtained before login is planted in another browser.
    planted := a.browser(t)
    a.do(t, planted, http.MethodGet, "/login", nil)
    before := planted.Jar.Cookies(u)
    if len(before) == 0 {
        t.Fatalf("expected a session cookie before login")
    }
    user := a.browser(t)
    user.Jar.SetCookies(u, before)

    if r := a.login(t, user, "admin@x.io", "admin"); r.location != "/dashboard" {
        t.Fatalf("login: %d %q", r.status, r.location)
    }
    after := user.Jar.Cookies(u)
    if len(after) == 0 || after[0].Value == before[0].Value {
        t.Fatalf("login must replace the session cookie")
    }

    if r := a.do(t, planted, http.MethodGet, "/dashboard", nil); r.status != http.StatusSeeOther || r.location != "/login" {
        t.Fatalf("pre-login cookie must not reach the dashboard: %d %q", r.status, r.location)
    }
    if r := a.do(t, user, http.MethodGet, "/dashboard", nil); r.status != http.StatusOK {
        t.Fatalf("logged-in user lost the dashboard: %d %q", r.status, r.location)
    }
}

func TestFailedLoginAuditOmitsAPIError(t *testing.T) {
    a := newApp(t)
    a.login(t, a.browser(t), "nobody@x.io", "admin")

    a.audit.mu.Lock()
    defer a.audit.mu.Unlock()
    if len(a.audit.events) != 1 {
        t.Fatalf("expected one audit event, got %d", len(a.audit.events))
    }
    ev := a.audit.events[0]
    if ev.Subject != "nobody@x.io" || ev.Detail != "401" {
        t.Fatalf("unexpected audit event %+v", ev)
    }
}
