package gateway

import (
    "errors"
    "fmt"
    "net/http"
)

// Sentinel errors for the failure classes callers branch on.
var (
    // ErrNetwork means no response was received from the API.
    ErrNetwork = errors.New("unable to connect to server")
    // ErrUnauthorized means the API answered 401.  The caller's session
    // has already been logged out when this is returned.
    ErrUnauthorized = errors.New("authorization denied")
    // ErrUnexpected covers malformed responses and anything else.
    ErrUnexpected = errors.New("unexpected error")
)

// APIError is a non-2xx response, or a 2xx envelope with success=false.
type APIError struct {
    Status  int
    Message string
}

func (e *APIError) Error() string {
    if e.Message == "" {
        return fmt.Sprintf("api: status %d", e.Status)
    }
    return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Unwrap() error {
    if e.Status == http.StatusUnauthorized {
        return ErrUnauthorized
    }
    return nil
}

// Message turns any gateway error into text fit for a banner.  fallback
// is used for server errors that carry no message.
func Message(err error, fallback string) string {
    if err == nil {
        return ""
    }
    var apiErr *APIError
    switch {
    case errors.Is(err, ErrNetwork):
        return "Unable to connect to server. Please check your connection."
    case errors.As(err, &apiErr) && apiErr.Message != "":
        return apiErr.Message
    case errors.Is(err, ErrUnauthorized):
        return "Your session has expired. Please log in again."
    case apiErr != nil:
        return fallback
    }
    return "An unexpected error occurred"
}
