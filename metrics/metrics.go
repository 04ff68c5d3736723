// Package metrics exposes per-block lookup latencies as Prometheus metrics
// while a run is in progress.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weiihann/lookupbench/harness"
	"github.com/weiihann/lookupbench/stats"
)

const namespace = "lookupbench"

// Structure label values.
const (
	StructureRange = "range"
	StructureMap   = "map"
)

// Recorder implements harness.BlockObserver. Each recorder owns its
// registry so several can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	// BlocksCompleted counts blocks whose statistics have been computed.
	BlocksCompleted prometheus.Counter
	// ProbesTotal counts timed lookups. Labels: structure.
	ProbesTotal *prometheus.CounterVec
	// LastBlock is the 1-based index of the most recent block.
	LastBlock prometheus.Gauge
	// BlockMeanNs is the mean lookup time of the most recent block.
	// Labels: structure
	BlockMeanNs *prometheus.GaugeVec
	// BlockMedianNs is the median lookup time of the most recent block.
	// Labels: structure
	BlockMedianNs *prometheus.GaugeVec
	// BlockStdNs is the sample standard deviation of the most recent block.
	// Labels: structure
	BlockStdNs *prometheus.GaugeVec
	// BlockDurationSeconds measures wall time per block including the
	// statistics step.
	BlockDurationSeconds prometheus.Histogram
}

// NewRecorder creates a Recorder with all metrics registered on a fresh
// registry.
func NewRecorder() *Recorder {
	m := &Recorder{registry: prometheus.NewRegistry()}

	m.BlocksCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_completed_total",
			Help:      "Total number of measurement blocks completed",
		},
	)

	m.ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Total number of timed lookups",
		},
		[]string{"structure"},
	)

	m.LastBlock = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_block",
			Help:      "Index of the most recently completed block",
		},
	)

	m.BlockMeanNs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_mean_nanoseconds",
			Help:      "Mean lookup time of the most recent block",
		},
		[]string{"structure"},
	)

	m.BlockMedianNs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_median_nanoseconds",
			Help:      "Median lookup time of the most recent block",
		},
		[]string{"structure"},
	)

	m.BlockStdNs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_stddev_nanoseconds",
			Help:      "Sample standard deviation of lookup time in the most recent block",
		},
		[]string{"structure"},
	)

	m.BlockDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_duration_seconds",
			Help:      "Wall time per block",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	m.registry.MustRegister(
		m.BlocksCompleted,
		m.ProbesTotal,
		m.LastBlock,
		m.BlockMeanNs,
		m.BlockMedianNs,
		m.BlockStdNs,
		m.BlockDurationSeconds,
	)

	return m
}

// ObserveBlock records one block's statistics.
func (m *Recorder) ObserveBlock(b harness.BlockStats) {
	m.BlocksCompleted.Inc()
	m.LastBlock.Set(float64(b.Block))
	m.BlockDurationSeconds.Observe(b.Elapsed.Seconds())

	m.observeStructure(StructureRange, b.N, b.Range)
	m.observeStructure(StructureMap, b.N, b.Map)
}

func (m *Recorder) observeStructure(structure string, n int, s stats.Summary) {
	m.ProbesTotal.WithLabelValues(structure).Add(float64(n))
	m.BlockMeanNs.WithLabelValues(structure).Set(s.Mean)
	m.BlockMedianNs.WithLabelValues(structure).Set(s.Median)
	m.BlockStdNs.WithLabelValues(structure).Set(s.StdSample)
}

// Handler returns the Prometheus HTTP handler for this recorder's registry.
func (m *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server serves a Recorder on /metrics.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// Serve starts listening on addr and serves m in the background. Use
// Addr to learn the bound address when addr has port 0.
func Serve(addr string, m *Recorder, logger *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	s := &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger.With(slog.String("component", "metrics")),
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("serving metrics", slog.String("addr", "http://"+s.Addr()+"/metrics"))

	return s, nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server, waiting for in-flight scrapes until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	return nil
}
