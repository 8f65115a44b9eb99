package handler

import (
	"fmt"
	"net/http"

	"github.com/accountd/accountd/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "accountd_signups_total %d\n", snap.Signups)

	writeMetric(w, "accountd_logins_total{status=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "accountd_logins_total{status=\"unknown_email\"} %d\n", snap.LoginUnknownEmail)
	writeMetric(w, "accountd_logins_total{status=\"bad_password\"} %d\n", snap.LoginBadPassword)

	writeMetric(w, "accountd_tokens_issued_total %d\n", snap.TokensIssued)
	writeMetric(w, "accountd_tokens_revoked_total %d\n", snap.TokensRevoked)

	writeMetric(w, "accountd_auth_checks_total{status=\"success\"} %d\n", snap.AuthSuccesses)
	writeMetric(w, "accountd_auth_checks_total{status=\"invalid_token\"} %d\n", snap.AuthInvalidToken)
	writeMetric(w, "accountd_auth_checks_total{status=\"expired\"} %d\n", snap.AuthExpired)
	writeMetric(w, "accountd_auth_checks_total{status=\"revoked\"} %d\n", snap.AuthRevoked)
	writeMetric(w, "accountd_auth_checks_total{status=\"user_gone\"} %d\n", snap.AuthUserGone)

	writeMetric(w, "accountd_auth_duration_seconds_count %d\n", snap.AuthDurationCount)
	writeMetric(w, "accountd_auth_duration_seconds_sum %.6f\n", float64(snap.AuthDurationTotalNs)/1e9)

	writeMetric(w, "accountd_revocation_cache_hits_total %d\n", snap.RevocationCacheHits)
	writeMetric(w, "accountd_revocation_cache_misses_total %d\n", snap.RevocationCacheMisses)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
