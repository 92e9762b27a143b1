package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRetries(t *testing.T) {
	before := testutil.ToFloat64(ActionRetries)
	RecordRetries(0)
	RecordRetries(1)
	assert.Equal(t, before, testutil.ToFloat64(ActionRetries), "first attempts are not retries")

	RecordRetries(3)
	assert.Equal(t, before+2, testutil.ToFloat64(ActionRetries))
}

func TestCollectorsAreRegistered(t *testing.T) {
	PagesVisited.WithLabelValues("ok").Inc()
	Variations.WithLabelValues("payment_page_reached").Inc()

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer,
		"flowscout_pages_visited_total",
		"flowscout_flow_variations_total",
		"flowscout_action_retries_total",
	)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 3)
}
