package domain

import (
	"errors"
	"time"
)

var ErrInvalidAuditEvent = errors.New("audit event missing account or action")

// Actions recorded in the account activity trail.
const (
	AuditRegistered      = "account.registered"
	AuditActivated       = "account.activated"
	AuditDeactivated     = "account.deactivated"
	AuditLoginSucceeded  = "login.succeeded"
	AuditLoginFailed     = "login.failed"
	AuditLoginThrottled  = "login.throttled"
	AuditLogout          = "logout"
	AuditPasswordChanged = "password.changed"
	AuditResetRequested  = "password.reset_requested"
	AuditResetConfirmed  = "password.reset_confirmed"
)

// AuditEvent is one entry in the account activity trail. Account holds the
// account id when the caller is known, otherwise the submitted email, which
// may not belong to any account.
type AuditEvent struct {
	Account string
	Action  string
	Note    string // optional
	At      time.Time
}
