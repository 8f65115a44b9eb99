// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Failure reasons recorded by the authentication gate.
const (
	ReasonInvalidToken = "invalid_token"
	ReasonExpired      = "expired"
	ReasonRevoked      = "revoked"
	ReasonUserGone     = "user_gone"
)

// Login failure reasons.
const (
	ReasonUnknownEmail = "unknown_email"
	ReasonBadPassword  = "bad_password"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account lifecycle
	IncSignup()

	// Session lifecycle
	IncLoginSuccess()
	IncLoginFailure(reason string) // ReasonUnknownEmail, ReasonBadPassword
	IncTokenIssued()
	IncTokenRevoked()

	// Authentication gate
	IncAuthSuccess()
	IncAuthFailure(reason string) // ReasonInvalidToken, ReasonExpired, ReasonRevoked, ReasonUserGone
	ObserveAuthDuration(duration time.Duration)

	// Revocation cache
	IncRevocationCacheHit()
	IncRevocationCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
