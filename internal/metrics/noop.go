package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLoginSuccess is a no-op.
func (n *NoopRecorder) IncLoginSuccess() {}

// IncLoginFailure is a no-op.
func (n *NoopRecorder) IncLoginFailure(reason string) {}

// IncTokenIssued is a no-op.
func (n *NoopRecorder) IncTokenIssued() {}

// IncTokenRevoked is a no-op.
func (n *NoopRecorder) IncTokenRevoked() {}

// IncAuthSuccess is a no-op.
func (n *NoopRecorder) IncAuthSuccess() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure(reason string) {}

// ObserveAuthDuration is a no-op.
func (n *NoopRecorder) ObserveAuthDuration(duration time.Duration) {}

// IncRevocationCacheHit is a no-op.
func (n *NoopRecorder) IncRevocationCacheHit() {}

// IncRevocationCacheMiss is a no-op.
func (n *NoopRecorder) IncRevocationCacheMiss() {}
