// Package gateway is the single outbound client for the remote API.  It
// attaches the caller's bearer token to every request and logs the
// caller out when the API answers 401.
package gateway

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/metrics"
)

// Credentials is the view of a session the gateway needs.
// *session.Holder satisfies it.
type Credentials interface {
    Token() string
    Logout()
}

// Anonymous is used for calls made without a session, such as login.
var Anonymous Credentials = anonymous{}

type anonymous struct{}

func (anonymous) Token() string { return "" }
func (anonymous) Logout()       {}

// Client talks JSON to the API at BaseURL.  It never retries.
type Client struct {
    baseURL  string
    probeURL string
    http     *http.Client
    timeout  time.Duration
    metrics  *metrics.Metrics
}

// New returns a client for baseURL.  timeout bounds each request; zero
// leaves only the http.Client defaults in place.
func New(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
    return &Client{
        baseURL: strings.TrimRight(baseURL, "/"),
        http:    &http.Client{},
        timeout: timeout,
        metrics: m,
    }
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
    c.http = h
    return c
}

// WithProbeURL points Ping at an absolute URL instead of the API root.
func (c *Client) WithProbeURL(u string) *Client {
    c.probeURL = u
    return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends method path with body encoded as JSON and decodes a 2xx
// response into out (when out is non-nil).
func (c *Client) Do(ctx context.Context, creds Credentials, method, path string, body, out any) error {
    if c.timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, c.timeout)
        defer cancel()
    }

    var rdr io.Reader
    if body != nil {
        buf, err := json.Marshal(body)
        if err != nil {
            return fmt.Errorf("%w: encode request: %v", ErrUnexpected, err)
        }
        rdr = bytes.NewReader(buf)
    }
    req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
    if err != nil {
        return fmt.Errorf("%w: build request: %v", ErrUnexpected, err)
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("Accept", "application/json")
    if creds == nil {
        creds = Anonymous
    }
    if tok := creds.Token(); tok != "" {
        req.Header.Set("Authorization", "Bearer "+tok)
    }

    endpoint := routeLabel(path)
    resp, err := c.http.Do(req)
    if err != nil {
        c.metrics.GatewayRequest(method, endpoint, 0)
        if errors.Is(err, context.Canceled) {
            return err
        }
        return fmt.Errorf("%w: %v", ErrNetwork, err)
    }
    defer resp.Body.Close()
    c.metrics.GatewayRequest(method, endpoint, resp.StatusCode)

    raw, err := io.ReadAll(resp.Body)
    if err != nil {
        return fmt.Errorf("%w: read response: %v", ErrNetwork, err)
    }

    if resp.StatusCode == http.StatusUnauthorized {
        creds.Logout()
    }
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
    }
    if out == nil || len(bytes.TrimSpace(raw)) == 0 {
        return nil
    }
    if err := json.Unmarshal(raw, out); err != nil {
        return fmt.Errorf("%w: decode response: %v", ErrUnexpected, err)
    }
    return nil
}

// errorMessage pulls a human message out of an error body.  The API
// uses "message"; some routes answer with "error".
func errorMessage(raw []byte) string {
    var body struct {
        Message string `json:"message"`
        Error   string `json:"error"`
    }
    if err := json.Unmarshal(raw, &body); err != nil {
        return ""
    }
    if body.Message != "" {
        return body.Message
    }
    return body.Error
}

// routeLabel keeps metric cardinality bounded by cutting path ids.
func routeLabel(path string) string {
    if i := strings.IndexByte(path, '?'); i >= 0 {
        path = path[:i]
    }
    if strings.HasPrefix(path, pathDataEntryUsers+"/") {
        return pathDataEntryUsers + "/:id"
    }
    if path == "" {
        return "/"
    }
    return path
}
