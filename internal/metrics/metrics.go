// Package metrics exposes activation counters on a private Prometheus
// registry.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "penc"

// Start results.
const (
	ResultStarted      = "started"
	ResultDisabled     = "disabled"
	ResultAppDisabled  = "app_disabled"
	ResultNoWindow     = "no_window"
	ResultOverlayError = "overlay_error"
	ResultError        = "error"
)

// Finish outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
)

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ActivationMetrics counts activation sessions.
type ActivationMetrics struct {
	Started           *prometheus.CounterVec
	Finished          *prometheus.CounterVec
	SessionDuration   prometheus.Histogram
	ActiveSessions    prometheus.Gauge
	PreferenceChanges prometheus.Counter
}

// NewActivationMetrics creates and registers the activation metrics on reg.
func NewActivationMetrics(reg prometheus.Registerer) *ActivationMetrics {
	m := &ActivationMetrics{
		Started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_started_total",
			Help:      "Activation gestures recognized, by result.",
		}, []string{"result"}),
		Finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_finished_total",
			Help:      "Activation sessions ended, by outcome.",
		}, []string{"outcome"}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "activation_session_duration_seconds",
			Help:      "Time from session start to complete or abort.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "activation_sessions_active",
			Help:      "1 while an activation session is open.",
		}),
		PreferenceChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preference_changes_total",
			Help:      "Preference change notifications handled.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Started, m.Finished, m.SessionDuration, m.ActiveSessions, m.PreferenceChanges)
	}
	return m
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
