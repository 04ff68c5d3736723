package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/lookupbench/harness"
	"github.com/weiihann/lookupbench/stats"
)

func block(i int, rangeMean, mapMean float64) harness.BlockStats {
	return harness.BlockStats{
		Block:   i,
		N:       10,
		Range:   stats.Summary{N: 10, Mean: rangeMean, Median: rangeMean - 1, StdSample: 2},
		Map:     stats.Summary{N: 10, Mean: mapMean, Median: mapMean - 1, StdSample: 4},
		Elapsed: 250 * time.Millisecond,
	}
}

func TestRecorderObserveBlock(t *testing.T) {
	m := NewRecorder()

	m.ObserveBlock(block(1, 20, 40))
	m.ObserveBlock(block(2, 22, 38))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BlocksCompleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LastBlock))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues(StructureRange)))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues(StructureMap)))

	// Gauges hold the latest block only.
	assert.Equal(t, 22.0, testutil.ToFloat64(m.BlockMeanNs.WithLabelValues(StructureRange)))
	assert.Equal(t, 38.0, testutil.ToFloat64(m.BlockMeanNs.WithLabelValues(StructureMap)))
	assert.Equal(t, 37.0, testutil.ToFloat64(m.BlockMedianNs.WithLabelValues(StructureMap)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.BlockStdNs.WithLabelValues(StructureMap)))

	assert.Equal(t, 1, testutil.CollectAndCount(m.BlockDurationSeconds))
}

func TestRecordersAreIndependent(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()

	a.ObserveBlock(block(1, 20, 40))

	assert.Equal(t, 1.0, testutil.ToFloat64(a.BlocksCompleted))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BlocksCompleted))
}

func TestHandler(t *testing.T) {
	m := NewRecorder()
	m.ObserveBlock(block(1, 20, 40))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "lookupbench_blocks_completed_total 1")
	assert.Contains(t, body, `lookupbench_block_mean_nanoseconds{structure="range"} 20`)
	assert.Contains(t, body, `lookupbench_probes_total{structure="map"} 10`)
}

func TestServe(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m := NewRecorder()
	m.ObserveBlock(block(3, 20, 40))

	srv, err := Serve("127.0.0.1:0", m, logger)
	require.NoError(t, err)

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "lookupbench_last_block 3"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestServeBadAddress(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := Serve("not-an-address", NewRecorder(), logger)
	require.Error(t, err)
}

func TestRunnerFeedsRecorder(t *testing.T) {
	m := NewRecorder()

	r := harness.NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Observer = m

	res, err := r.Run(context.Background(), harness.Config{
		Elements:  1000,
		Queries:   400,
		Blocks:    4,
		SampleCap: 10,
		Seed:      7,
	})
	require.NoError(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.BlocksCompleted))
	assert.Equal(t, 400.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues(StructureRange)))
	assert.Equal(t, res.Blocks[3].Map.Mean,
		testutil.ToFloat64(m.BlockMeanNs.WithLabelValues(StructureMap)))
}
