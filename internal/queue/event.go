// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "fmt"
    "strings"
)

// AuditQueueName is the durable queue audit events are published to.
const AuditQueueName = "dashboard.audit"

// Audit actions.
const (
    ActionLogin        = "login"
    ActionLoginFailed  = "login.failed"
    ActionLogout       = "logout"
    ActionEntryCreated = "entry.created"
    ActionUserCreated  = "user.created"
    ActionUserDeleted  = "user.deleted"
    ActionExport       = "export.csv"
)

// AuditEvent is published after a user-visible action completes (or, for
// login.failed, is rejected).  It carries enough context for a consumer
// to write an audit trail without calling the API.
type AuditEvent struct {
    Action    string `json:"action"`
    SessionID string `json:"session_id"`
    UserID    string `json:"user_id,omitempty"`
    Role      string `json:"role,omitempty"`
    Subject   string `json:"subject,omitempty"`
    Detail    string `json:"detail,omitempty"`
    RemoteIP  string `json:"remote_ip,omitempty"`
    At        string `json:"at"`
}

// Line renders ev as one human-friendly log line, newline terminated.
func (ev AuditEvent) Line() string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | session=%s", ev.At, ev.Action, ev.SessionID)
    if ev.UserID != "" {
        fmt.Fprintf(&b, " | user_id=%s", ev.UserID)
    }
    if ev.Role != "" {
        fmt.Fprintf(&b, " | role=%s", ev.Role)
    }
    if ev.Subject != "" {
        fmt.Fprintf(&b, " | subject=%q", ev.Subject)
    }
    if ev.Detail != "" {
        fmt.Fprintf(&b, " | detail=%q", ev.Detail)
    }
    if ev.RemoteIP != "" {
        fmt.Fprintf(&b, " | ip=%s", ev.RemoteIP)
    }
    b.WriteByte('\n')
    return b.String()
}
