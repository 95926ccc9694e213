package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const metricsNamespace = "cheese"

// watchMetrics lives on its own registry so tests can build as many as they like.
type watchMetrics struct {
	registry       *prometheus.Registry
	iterations     prometheus.Counter
	errors         *prometheus.CounterVec
	poolsFetched   *prometheus.GaugeVec
	edges          prometheus.Gauge
	cyclesFound    prometheus.Gauge
	bestNetProfit  prometheus.Gauge
	searchDuration prometheus.Histogram
}

func newWatchMetrics() *watchMetrics {
	m := &watchMetrics{
		registry: prometheus.NewRegistry(),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "poll_iterations_total",
			Help:      "Completed polling iterations.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "poll_errors_total",
			Help:      "Polling failures by stage.",
		}, []string{"stage"}),
		poolsFetched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pools_fetched",
			Help:      "Pools in the latest snapshot by venue.",
		}, []string{"source"}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "edges",
			Help:      "Directed edges fed to the latest cycle search.",
		}),
		cyclesFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cycles_found",
			Help:      "Profitable cycles in the latest search.",
		}),
		bestNetProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "best_net_profit_usd",
			Help:      "Net profit of the best cycle in the latest search, 0 when none.",
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "search_duration_seconds",
			Help:      "Cycle search wall time.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	m.registry.MustRegister(m.iterations, m.errors, m.poolsFetched, m.edges, m.cyclesFound, m.bestNetProfit, m.searchDuration)
	return m
}

func (m *watchMetrics) observe(r *arbReport) {
	m.iterations.Inc()
	m.poolsFetched.Reset()
	for source, n := range r.snapshot.countBySource() {
		m.poolsFetched.WithLabelValues(source).Set(float64(n))
	}
	m.edges.Set(float64(r.stats.Edges))
	m.cyclesFound.Set(float64(len(r.cycles)))
	best := 0.0
	if len(r.cycles) > 0 {
		best = r.cycles[0].NetProfit
	}
	m.bestNetProfit.Set(best)
	m.searchDuration.Observe(r.stats.Duration.Seconds())
}

func (m *watchMetrics) failed(stage string) {
	m.errors.WithLabelValues(stage).Inc()
}

// serve exposes /metrics until ctx is done.
func (m *watchMetrics) serve(ctx context.Context, addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
}
