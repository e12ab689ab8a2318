package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/slotwise"
	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/internal/metrics"
	"github.com/arloliu/slotwise/test/testutil"
	slotwisetest "github.com/arloliu/slotwise/testing"
	"github.com/arloliu/slotwise/types"
)

type stubRunner struct {
	result *slotwise.Result
}

func (s *stubRunner) Latest() *slotwise.Result { return s.result }
func (s *stubRunner) Runs() uint64             { return 7 }

type stubStore struct {
	rec *slotwise.LayoutRecord
	err error
}

func (s *stubStore) Latest(context.Context, string) (*slotwise.LayoutRecord, error) {
	return s.rec, s.err
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	return rec.Code, string(body)
}

func TestHTTPServer_BeforeFirstRun(t *testing.T) {
	srv := newHTTPServer(":0", prometheus.NewRegistry(), &stubRunner{}, nil, "s")
	h := srv.handler()

	code, _ := get(t, h, "/health")
	require.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = get(t, h, "/layout")
	require.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, h, "/layout/published")
	require.Equal(t, http.StatusNotFound, code)
}

func TestHTTPServer_ServesLayoutAndMetrics(t *testing.T) {
	slots := testutil.GridSlots(2, 2)
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	events := testutil.RepeatEvents("slot-0-0", types.EventPurchased, 20, now.Add(-time.Minute), types.Seconds(30))
	result := slotwise.Compute(events, slots, types.WindowEndingAt(now, time.Hour))

	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheus(reg, "slotwise")
	collector.RecordMoves(len(result.Layout.Moves()))

	store := &stubStore{rec: &slotwise.LayoutRecord{Version: 3, StoreID: "s", Layout: result.Layout}}
	h := newHTTPServer(":0", reg, &stubRunner{result: result}, store, "s").handler()

	code, body := get(t, h, "/health")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "runs=7")

	code, body = get(t, h, "/layout")
	require.Equal(t, http.StatusOK, code)
	var decoded slotwise.Result
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	require.Equal(t, result.Layout, decoded.Layout)

	code, body = get(t, h, "/layout/published")
	require.Equal(t, http.StatusOK, code)
	var rec slotwise.LayoutRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	require.Equal(t, int64(3), rec.Version)

	code, body = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.True(t, strings.Contains(body, "slotwise_layout_moves"), body)
}

func TestHTTPServer_PublishedStoreError(t *testing.T) {
	h := newHTTPServer(":0", prometheus.NewRegistry(), &stubRunner{}, &stubStore{err: errors.New("kv down")}, "s").handler()

	code, body := get(t, h, "/layout/published")
	require.Equal(t, http.StatusBadGateway, code)
	require.Contains(t, body, "kv down")
}

func TestEnsureGeometryAndProducer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping NATS integration test in short mode")
	}

	ctx := context.Background()
	_, nc := slotwisetest.StartEmbeddedNATS(t)
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	cfg := slotwise.TestConfig()
	events, slots, err := slotwise.NewJetStreamSources(ctx, js, &cfg, slotwisetest.NewTestLogger(t))
	require.NoError(t, err)

	_, err = ensureGeometry(ctx, slots, "two-by-three")
	require.Error(t, err)

	geometry, err := ensureGeometry(ctx, slots, "2x3")
	require.NoError(t, err)
	require.Len(t, geometry, 6)

	// A populated bucket is left alone.
	again, err := ensureGeometry(ctx, slots, "5x5")
	require.NoError(t, err)
	require.Len(t, again, 6)

	p := newProducer(js, cfg.KVBuckets.EventSubjectPrefix, types.SlotIDs(geometry), 3, time.Hour, logging.NewNop())
	start := time.Now()
	require.NoError(t, p.publishBatch(ctx, types.TimeRange{Start: start.Add(-time.Minute), End: start}))
	require.Positive(t, p.sent.Load())

	got, err := events.ListEvents(ctx, types.TimeRange{Start: start.Add(-time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, int(p.sent.Load()))
}
