package model

import (
    "encoding/json"
    "strings"
    "time"
)

// Role is the authorization level the API grants a login.
type Role string

const (
    RoleAdmin     Role = "admin"
    RoleDataEntry Role = "data-entry"
)

// ParseRole normalizes the role spellings the API uses ("data_entry",
// "data-entry", "admin").  It returns false for anything else.
func ParseRole(s string) (Role, bool) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "admin":
        return RoleAdmin, true
    case "data-entry", "data_entry":
        return RoleDataEntry, true
    }
    return "", false
}

// Landing returns the path of the view a role lands on after login.
func (r Role) Landing() string {
    switch r {
    case RoleAdmin:
        return "/dashboard"
    case RoleDataEntry:
        return "/data-entry"
    }
    return "/login"
}

// Label is the human readable role name.
func (r Role) Label() string {
    switch r {
    case RoleAdmin:
        return "Admin"
    case RoleDataEntry:
        return "Data Entry"
    }
    return string(r)
}

// Account represents a user account as listed by the admin endpoints.
// The dashboard only caches these; the API is the source of truth.
//
// Fields:
//  ID        – identifier assigned by the API.
//  Name      – display name.
//  Email     – login email.
//  Role      – admin or data-entry.
//  CreatedAt – creation timestamp.
type Account struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Role      Role      `json:"role"`
    CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts both "_id" and "id" and normalizes the role.
func (a *Account) UnmarshalJSON(b []byte) error {
    var w struct {
        MongoID   string    `json:"_id"`
        ID        string    `json:"id"`
        Name      string    `json:"name"`
        Email     string    `json:"email"`
        Role      string    `json:"role"`
        CreatedAt time.Time `json:"createdAt"`
    }
    if err := json.Unmarshal(b, &w); err != nil {
        return err
    }
    role, ok := ParseRole(w.Role)
    if !ok {
        role = Role(w.Role)
    }
    *a = Account{
        ID:        firstNonEmpty(w.MongoID, w.ID),
        Name:      w.Name,
        Email:     w.Email,
        Role:      role,
        CreatedAt: w.CreatedAt,
    }
    return nil
}

// NewAccount is the registration payload for a data-entry user.
type NewAccount struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"`
}
