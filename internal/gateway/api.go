package gateway

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "net/url"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

const (
    pathLogin          = "/auth/login"
    pathRegister       = "/auth/register"
    pathAllEntries     = "/admin/all-entries"
    pathDataEntryUsers = "/admin/data-entry-users"
    pathEntry          = "/data/entry"
)

// LoginRequest carries the credentials submitted on the login form.
type LoginRequest struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role,omitempty"`
}

// LoginResult is what the session needs from a successful login.
type LoginResult struct {
    Token  string
    Role   model.Role
    UserID string
}

// loginWire accepts both the flat and the nested-user login payloads.
type loginWire struct {
    Token  string `json:"token"`
    Role   string `json:"role"`
    UserID string `json:"userId"`
    User   *struct {
        MongoID string `json:"_id"`
        ID      string `json:"id"`
        Role    string `json:"role"`
    } `json:"user"`
}

// envelope is the list response shape: {success, count, data}.
type envelope[T any] struct {
    Success bool   `json:"success"`
    Count   int    `json:"count"`
    Data    T      `json:"data"`
    Message string `json:"message"`
}

// Login exchanges credentials for a token.  It is called anonymously.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
    var w loginWire
    if err := c.Do(ctx, Anonymous, http.MethodPost, pathLogin, req, &w); err != nil {
        return LoginResult{}, err
    }
    res := LoginResult{Token: w.Token, UserID: w.UserID}
    rawRole := w.Role
    if w.User != nil {
        if res.UserID == "" {
            res.UserID = w.User.MongoID
        }
        if res.UserID == "" {
            res.UserID = w.User.ID
        }
        if rawRole == "" {
            rawRole = w.User.Role
        }
    }
    role, ok := model.ParseRole(rawRole)
    if res.Token == "" || !ok {
        return LoginResult{}, fmt.Errorf("%w: login response missing token or role", ErrUnexpected)
    }
    res.Role = role
    return res, nil
}

// Register creates a data-entry account.  Only admins may call it.
func (c *Client) Register(ctx context.Context, creds Credentials, acct model.NewAccount) (model.Account, error) {
    if acct.Role == "" {
        acct.Role = "data_entry"
    }
    var created model.Account
    if err := c.Do(ctx, creds, http.MethodPost, pathRegister, acct, &created); err != nil {
        return model.Account{}, err
    }
    return created, nil
}

// AllEntries lists every recorded sample.
func (c *Client) AllEntries(ctx context.Context, creds Credentials) ([]model.Entry, error) {
    var env envelope[[]model.Entry]
    if err := c.Do(ctx, creds, http.MethodGet, pathAllEntries, nil, &env); err != nil {
        return nil, err
    }
    if !env.Success {
        return nil, &APIError{Status: http.StatusOK, Message: orDefault(env.Message, "Failed to fetch entries")}
    }
    return env.Data, nil
}

// DataEntryUsers lists the data-entry accounts.
func (c *Client) DataEntryUsers(ctx context.Context, creds Credentials) ([]model.Account, error) {
    var env envelope[[]model.Account]
    if err := c.Do(ctx, creds, http.MethodGet, pathDataEntryUsers, nil, &env); err != nil {
        return nil, err
    }
    if !env.Success {
        return nil, &APIError{Status: http.StatusOK, Message: orDefault(env.Message, "Failed to fetch users")}
    }
    return env.Data, nil
}

// DeleteUser removes a data-entry account.
func (c *Client) DeleteUser(ctx context.Context, creds Credentials, id string) error {
    var env envelope[any]
    if err := c.Do(ctx, creds, http.MethodDelete, pathDataEntryUsers+"/"+url.PathEscape(id), nil, &env); err != nil {
        return err
    }
    if !env.Success {
        return &APIError{Status: http.StatusOK, Message: orDefault(env.Message, "Failed to delete user")}
    }
    return nil
}

// CreateEntry records a new sample.
func (c *Client) CreateEntry(ctx context.Context, creds Credentials, e model.NewEntry) error {
    return c.Do(ctx, creds, http.MethodPost, pathEntry, e, nil)
}

// Ping requests the liveness URL (the API root unless WithProbeURL set
// another).  Any failure or non-2xx status is an error.
func (c *Client) Ping(ctx context.Context) error {
    target := c.probeURL
    if target == "" {
        target = c.baseURL + "/"
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
    if err != nil {
        return fmt.Errorf("%w: build probe: %v", ErrUnexpected, err)
    }
    resp, err := c.http.Do(req)
    if err != nil {
        c.metrics.GatewayRequest(http.MethodGet, "probe", 0)
        return fmt.Errorf("%w: %v", ErrNetwork, err)
    }
    defer resp.Body.Close()
    _, _ = io.Copy(io.Discard, resp.Body)
    c.metrics.GatewayRequest(http.MethodGet, "probe", resp.StatusCode)
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return &APIError{Status: resp.StatusCode}
    }
    return nil
}

func orDefault(s, def string) string {
    if s == "" {
        return def
    }
    return s
}
