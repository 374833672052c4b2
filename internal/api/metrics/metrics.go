// Package metrics defines the custom Prometheus metrics of the portal server.
// All metrics register with the default registry at package init through
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginTotal counts login attempts.
// Labels:
//   - role: the locally resolved role ("candidate", "recruiter", "client")
//   - path: which backend identity answered ("client" or "generic")
//   - result: "success", "failure" or "skipped" (client path without a stored id)
var LoginTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "login_total",
		Help:      "Total number of login attempts by role, backend path and result.",
	},
	[]string{"role", "path", "result"},
)

// RegisterTotal counts registrations.
// Labels:
//   - role: requested role
//   - result: "success", "duplicate" or "failure"
var RegisterTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "register_total",
		Help:      "Total number of registrations by role and result.",
	},
	[]string{"role", "result"},
)

// TokenDecodeFailuresTotal counts session tokens that could not be decoded.
var TokenDecodeFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "token_decode_failures_total",
		Help:      "Total number of malformed session tokens seen.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsActive is the number of browser sessions held by the registry.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "active",
		Help:      "Current number of browser sessions held in memory.",
	},
)

// BootstrapDuration measures how long startup validation of a session takes.
var BootstrapDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "bootstrap_duration_seconds",
		Help:      "Duration of session bootstrap from store read to loading=false.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - guard: "protected" or "public"
//   - decision: "allow", "wait", "login", "redirect" or "block"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guard",
		Name:      "decisions_total",
		Help:      "Total number of route guard decisions.",
	},
	[]string{"guard", "decision"},
)
