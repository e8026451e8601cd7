// Package metrics defines the Prometheus collectors the dashboard exports
// on /metrics.
package metrics

import (
    "strconv"

    "github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors.  A nil *Metrics is valid and records
// nothing, which keeps tests free of registry setup.
type Metrics struct {
    gatewayRequests *prometheus.CounterVec
    probes          *prometheus.CounterVec
    reachable       prometheus.Gauge
    validationFails *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
    m := &Metrics{
        gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "dashboard",
            Name:      "gateway_requests_total",
            Help:      "Requests sent to the remote API by method, endpoint and status class.",
        }, []string{"method", "endpoint", "status"}),
        probes: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "dashboard",
            Name:      "connectivity_probes_total",
            Help:      "Connectivity probes by outcome.",
        }, []string{"outcome"}),
        reachable: prometheus.NewGauge(prometheus.GaugeOpts{
            Namespace: "dashboard",
            Name:      "backend_reachable",
            Help:      "1 when the last connectivity probe succeeded.",
        }),
        validationFails: prometheus.NewCounterVec(prometheus.CounterOpts{
            Namespace: "dashboard",
            Name:      "form_validation_failures_total",
            Help:      "Form submissions rejected before reaching the API.",
        }, []string{"form"}),
    }
    reg.MustRegister(m.gatewayRequests, m.probes, m.reachable, m.validationFails)
    m.reachable.Set(1)
    return m
}

// GatewayRequest records one API call.  status 0 means no response was
// received.
func (m *Metrics) GatewayRequest(method, endpoint string, status int) {
    if m == nil {
        return
    }
    m.gatewayRequests.WithLabelValues(method, endpoint, statusClass(status)).Inc()
}

// Probe records a connectivity probe outcome.
func (m *Metrics) Probe(ok bool) {
    if m == nil {
        return
    }
    if ok {
        m.probes.WithLabelValues("success").Inc()
        m.reachable.Set(1)
        return
    }
    m.probes.WithLabelValues("failure").Inc()
    m.reachable.Set(0)
}

// ValidationFailed records a form rejected by local validation.
func (m *Metrics) ValidationFailed(form string) {
    if m == nil {
        return
    }
    m.validationFails.WithLabelValues(form).Inc()
}

func statusClass(status int) string {
    if status <= 0 {
        return "network_error"
    }
    return strconv.Itoa(status/100) + "xx"
}
