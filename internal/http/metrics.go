package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics contains the Prometheus collectors for the account API.
type Metrics struct {
	Registry        *prometheus.Registry
	Registrations   *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	SessionChecks   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a private registry with Go/process collectors and the
// account counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_registrations_total",
			Help: "Registration attempts by result",
		}, []string{"result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		SessionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_session_checks_total",
			Help: "Token authentications by result",
		}, []string{"result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "account_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.Registrations, m.Logins, m.SessionChecks, m.RequestDuration)
	return m
}
