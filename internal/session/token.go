package session

import (
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the exp claim of an API token without verifying
// its signature; the dashboard never holds the API's signing key.  ok is
// false when the token is not a JWT or carries no exp claim.
func TokenExpiry(raw string) (exp time.Time, ok bool) {
    tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
    if err != nil {
        return time.Time{}, false
    }
    at, err := tok.Claims.GetExpirationTime()
    if err != nil || at == nil {
        return time.Time{}, false
    }
    return at.Time, true
}

// Expired reports whether the session's token carries an exp claim that
// lies before now.  Opaque tokens never expire locally; the API's 401
// is the only signal for them.
func (s Session) Expired(now time.Time) bool {
    if s.Token == "" {
        return false
    }
    exp, ok := TokenExpiry(s.Token)
    return ok && now.After(exp)
}
