package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/slotwise/types"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordRun(0.002, 6, true)
	p.RecordRun(0.001, 0, false)
	p.RecordCategoryCounts(map[types.Category]int{
		types.CategoryAnchor: 1,
		types.CategoryRisk:   2,
		types.CategoryNormal: 3,
	})
	p.RecordMoves(2)
	p.RecordMoves(4)
	p.RecordEventsIgnored("unknown_type", 3)
	p.RecordEventsIgnored("unknown_type", 0)
	p.RecordPublish(5, true)
	p.RecordPublish(6, false)

	require.InDelta(t, 6, testutil.ToFloat64(p.runSlots), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.categorySlots.WithLabelValues("Anchor")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(p.categorySlots.WithLabelValues("Risk")), 0)
	require.InDelta(t, 0, testutil.ToFloat64(p.categorySlots.WithLabelValues("Magnet")), 0)
	require.InDelta(t, 4, testutil.ToFloat64(p.layoutMoves), 0)
	require.InDelta(t, 6, testutil.ToFloat64(p.movesTotal), 0)
	require.InDelta(t, 3, testutil.ToFloat64(p.eventsIgnored.WithLabelValues("unknown_type")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.publishResults.WithLabelValues("success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.publishResults.WithLabelValues("failure")), 0)
	require.InDelta(t, 5, testutil.ToFloat64(p.layoutVersion), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestNewPrometheus_Defaults(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry(), "")
	require.Equal(t, "slotwise", p.namespace)
}
