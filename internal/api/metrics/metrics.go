// Package metrics defines and registers all custom Prometheus metrics for the
// staff registry. It is the single source of truth for metric names, labels,
// and help strings.
//
// All metrics register themselves with the default Prometheus registry at
// package init via promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "staff_registry"

// Authentication metrics.

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", "inactive", "throttled",
//     or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts accounts created through the public register
// endpoint.
// Label:
//   - role: the role the account was created with (e.g. "doctor", "nurse")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered, by role.",
	},
	[]string{"role"},
)

// TokenRejectionsTotal counts bearer tokens rejected by the auth middleware.
// Label:
//   - reason: "missing", "malformed", "invalid", or "revoked"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of bearer tokens rejected, by reason.",
	},
	[]string{"reason"},
)

// SessionRevocationsTotal counts operations that dropped sessions from the
// registry before their natural expiry. Deactivations and password resets
// may drop several sessions in one operation.
// Label:
//   - reason: "logout", "deactivated", or "password_reset"
var SessionRevocationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_revocations_total",
		Help:      "Total number of session revocation operations, by reason.",
	},
	[]string{"reason"},
)

// Authorization metrics.

// PermissionDenialsTotal counts requests that authenticated successfully but
// lacked the permission the route requires.
// Label:
//   - permission: the permission string that was checked (e.g. "user:update")
var PermissionDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denials_total",
		Help:      "Total number of requests denied for missing permissions.",
	},
	[]string{"permission"},
)
