// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/latchkey/latchkey/internal/auth"
)

// Metrics contains the custom Prometheus metrics for Latchkey.
type Metrics struct {
	AuthOutcomes    *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPLatency     *prometheus.HistogramVec
	SessionsCreated prometheus.Counter
}

// NewMetrics creates and registers the custom metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latchkey_auth_outcomes_total",
				Help: "Total number of auth workflow calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latchkey_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		HTTPLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latchkey_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"route"},
		),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "latchkey_sessions_created_total",
			Help: "Total number of sessions opened by register or login",
		}),
	}

	reg.MustRegister(m.AuthOutcomes, m.HTTPRequests, m.HTTPLatency, m.SessionsCreated)
	return m
}

// RecordAuthOutcome implements auth.OutcomeRecorder.
func (m *Metrics) RecordAuthOutcome(operation, outcome string) {
	m.AuthOutcomes.WithLabelValues(operation, outcome).Inc()
	if outcome == auth.OutcomeSuccess && (operation == auth.OpRegister || operation == auth.OpLogin) {
		m.SessionsCreated.Inc()
	}
}

// RecordHTTPRequest counts one finished request on route.
func (m *Metrics) RecordHTTPRequest(route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

var _ auth.OutcomeRecorder = (*Metrics)(nil)
