package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups              uint64
	LoginSuccesses       uint64
	LoginUnknownEmail    uint64
	LoginBadPassword     uint64
	TokensIssued         uint64
	TokensRevoked        uint64
	AuthSuccesses        uint64
	AuthInvalidToken     uint64
	AuthExpired          uint64
	AuthRevoked          uint64
	AuthUserGone         uint64
	AuthDurationCount    uint64
	AuthDurationTotalNs  int64
	RevocationCacheHits  uint64
	RevocationCacheMisses uint64
}

// InMemoryRecorder stores metrics in memory for tests and the
// snapshot endpoint.
type InMemoryRecorder struct {
	signups               uint64
	loginSuccesses        uint64
	loginUnknownEmail     uint64
	loginBadPassword      uint64
	tokensIssued          uint64
	tokensRevoked         uint64
	authSuccesses         uint64
	authInvalidToken      uint64
	authExpired           uint64
	authRevoked           uint64
	authUserGone          uint64
	authDurationCount     uint64
	authDurationTotalNs   int64
	revocationCacheHits   uint64
	revocationCacheMisses uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Signups:               atomic.LoadUint64(&m.signups),
		LoginSuccesses:        atomic.LoadUint64(&m.loginSuccesses),
		LoginUnknownEmail:     atomic.LoadUint64(&m.loginUnknownEmail),
		LoginBadPassword:      atomic.LoadUint64(&m.loginBadPassword),
		TokensIssued:          atomic.LoadUint64(&m.tokensIssued),
		TokensRevoked:         atomic.LoadUint64(&m.tokensRevoked),
		AuthSuccesses:         atomic.LoadUint64(&m.authSuccesses),
		AuthInvalidToken:      atomic.LoadUint64(&m.authInvalidToken),
		AuthExpired:           atomic.LoadUint64(&m.authExpired),
		AuthRevoked:           atomic.LoadUint64(&m.authRevoked),
		AuthUserGone:          atomic.LoadUint64(&m.authUserGone),
		AuthDurationCount:     atomic.LoadUint64(&m.authDurationCount),
		AuthDurationTotalNs:   atomic.LoadInt64(&m.authDurationTotalNs),
		RevocationCacheHits:   atomic.LoadUint64(&m.revocationCacheHits),
		RevocationCacheMisses: atomic.LoadUint64(&m.revocationCacheMisses),
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncLoginSuccess increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the matching login failure counter.
func (m *InMemoryRecorder) IncLoginFailure(reason string) {
	switch reason {
	case ReasonUnknownEmail:
		atomic.AddUint64(&m.loginUnknownEmail, 1)
	case ReasonBadPassword:
		atomic.AddUint64(&m.loginBadPassword, 1)
	}
}

// IncTokenIssued increments the issued-token counter.
func (m *InMemoryRecorder) IncTokenIssued() {
	atomic.AddUint64(&m.tokensIssued, 1)
}

// IncTokenRevoked increments the revoked-token counter.
func (m *InMemoryRecorder) IncTokenRevoked() {
	atomic.AddUint64(&m.tokensRevoked, 1)
}

// IncAuthSuccess increments the gate success counter.
func (m *InMemoryRecorder) IncAuthSuccess() {
	atomic.AddUint64(&m.authSuccesses, 1)
}

// IncAuthFailure increments the matching gate failure counter.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	switch reason {
	case ReasonInvalidToken:
		atomic.AddUint64(&m.authInvalidToken, 1)
	case ReasonExpired:
		atomic.AddUint64(&m.authExpired, 1)
	case ReasonRevoked:
		atomic.AddUint64(&m.authRevoked, 1)
	case ReasonUserGone:
		atomic.AddUint64(&m.authUserGone, 1)
	}
}

// ObserveAuthDuration records a gate evaluation duration.
func (m *InMemoryRecorder) ObserveAuthDuration(duration time.Duration) {
	atomic.AddUint64(&m.authDurationCount, 1)
	atomic.AddInt64(&m.authDurationTotalNs, duration.Nanoseconds())
}

// IncRevocationCacheHit increments the revocation cache hit counter.
func (m *InMemoryRecorder) IncRevocationCacheHit() {
	atomic.AddUint64(&m.revocationCacheHits, 1)
}

// IncRevocationCacheMiss increments the revocation cache miss counter.
func (m *InMemoryRecorder) IncRevocationCacheMiss() {
	atomic.AddUint64(&m.revocationCacheMisses, 1)
}
