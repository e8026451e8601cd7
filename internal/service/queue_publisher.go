// Package service publishes audit events to RabbitMQ.  Errors are logged
// and returned so callers can ignore failures without interrupting the
// request that triggered the event.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/tobacco-detection-dashboard/internal/queue"
)

// Auditor publishes audit events.  A nil or disabled Auditor drops every
// event.
type Auditor struct {
    url     string
    enabled bool
    timeout time.Duration
    now     func() time.Time
}

// NewAuditor returns an auditor publishing to the broker at url.
func NewAuditor(url string, enabled bool) *Auditor {
    return &Auditor{url: url, enabled: enabled && url != "", timeout: 3 * time.Second, now: time.Now}
}

// Enabled reports whether events are actually sent.
func (a *Auditor) Enabled() bool { return a != nil && a.enabled }

// Record stamps ev and publishes it in the background.
func (a *Auditor) Record(ev q.AuditEvent) {
    if !a.Enabled() {
        return
    }
    if ev.At == "" {
        ev.At = a.now().UTC().Format(time.RFC3339)
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
        defer cancel()
        _ = a.Publish(ctx, ev)
    }()
}

// Publish sends ev to the audit queue.  Each call dials its own
// connection; audit traffic is a handful of events per user action.
// Messages are marked as persistent.
func (a *Auditor) Publish(ctx context.Context, ev q.AuditEvent) error {
    if !a.Enabled() {
        return nil
    }
    conn, err := amqp.Dial(a.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so events survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.AuditQueueName, // name
        true,             // durable
        false,            // autoDelete
        false,            // exclusive
        false,            // noWait
        nil,              // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    a.now().UTC(),
        Type:         ev.Action,
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",               // default exchange
        q.AuditQueueName, // routing key = queue name
        false,            // mandatory
        false,            // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
