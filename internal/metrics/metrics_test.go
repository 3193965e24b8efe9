package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorsIncrement(t *testing.T) {
	before := testutil.ToFloat64(AuthEventsTotal.WithLabelValues("signin", "ok"))
	AuthEventsTotal.WithLabelValues("signin", "ok").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(AuthEventsTotal.WithLabelValues("signin", "ok")))

	before = testutil.ToFloat64(RateLimitedTotal)
	RateLimitedTotal.Inc()
	require.Equal(t, before+1, testutil.ToFloat64(RateLimitedTotal))
}
