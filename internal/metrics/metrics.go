// Package metrics exposes Prometheus instrumentation of the trial engine.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dualtask"

// Metrics holds the engine collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	frames        *prometheus.CounterVec
	frameInterval *prometheus.HistogramVec
	trials        *prometheus.CounterVec
	tones         *prometheus.CounterVec
	responses     *prometheus.CounterVec
	reactionTime  *prometheus.HistogramVec
	records       *prometheus.CounterVec
	deviceErrors  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames presented",
		}, []string{"task"}),
		frameInterval: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_interval_seconds",
			Help:      "Wall time between consecutive presented frames",
			Buckets:   []float64{0.004, 0.007, 0.0084, 0.0125, 0.0167, 0.0175, 0.02, 0.025, 0.034, 0.05, 0.1},
		}, []string{"task"}),
		trials: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Trials completed",
		}, []string{"task"}),
		tones: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tones_total",
			Help:      "Scheduled oddball tones",
		}, []string{"type", "context", "played"}),
		responses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Scored response windows",
		}, []string{"table", "type"}),
		reactionTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reaction_time_seconds",
			Help:      "Reaction time of answered response windows",
			Buckets:   []float64{0.15, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0, 1.5, 2},
		}, []string{"table"}),
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records appended to result sinks",
		}, []string{"table", "status"}),
		deviceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_errors_total",
			Help:      "Degraded device operations",
		}, []string{"device"}),
	}
}

// Registry returns the registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Frame records one presented frame and the interval since the previous one.
func (m *Metrics) Frame(task string, interval time.Duration) {
	m.frames.WithLabelValues(task).Inc()
	if interval > 0 {
		m.frameInterval.WithLabelValues(task).Observe(interval.Seconds())
	}
}

// Trial records a completed trial.
func (m *Metrics) Trial(task string) {
	m.trials.WithLabelValues(task).Inc()
}

// Tone records a scheduled tone.
func (m *Metrics) Tone(toneType, context string, played bool) {
	p := "false"
	if played {
		p = "true"
	}
	m.tones.WithLabelValues(toneType, context, p).Inc()
}

// Response records a scored window and, when answered, its reaction time.
func (m *Metrics) Response(table, responseType string, rt float64, answered bool) {
	m.responses.WithLabelValues(table, responseType).Inc()
	if answered {
		m.reactionTime.WithLabelValues(table).Observe(rt)
	}
}

// Record counts a sink append by outcome.
func (m *Metrics) Record(table string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.records.WithLabelValues(table, status).Inc()
}

// DeviceError counts a degraded device call.
func (m *Metrics) DeviceError(device string) {
	m.deviceErrors.WithLabelValues(device).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
