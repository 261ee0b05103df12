//go:build !integration

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreNormalised(t *testing.T) {
	before := testutil.ToFloat64(subscriptionCommitsTotal.WithLabelValues("premium", "ok"))
	IncCommit(" Premium ", "OK")
	after := testutil.ToFloat64(subscriptionCommitsTotal.WithLabelValues("premium", "ok"))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(accessDecisionsTotal.WithLabelValues("login"))
	IncAccessDecision("LOGIN")
	assert.Equal(t, before+1, testutil.ToFloat64(accessDecisionsTotal.WithLabelValues("login")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	IncCacheRequest("subject", "hit")
	ObserveCommitLatency("ok", 20*time.Millisecond)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cache_requests_total")
	assert.Contains(t, rr.Body.String(), "subscription_commit_latency_seconds")
}
