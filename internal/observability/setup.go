package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var (
	// Logger is used by the metrics server; it stays a no-op until a Server starts.
	Logger = zap.NewNop()

	registry = prometheus.NewRegistry()

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pquota_events_total",
			Help: "Inbound messages evaluated by the moderation pipeline",
		},
		[]string{"outcome"},
	)

	processingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pquota_event_processing_duration_seconds",
			Help:    "Time spent evaluating one inbound message",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pquota_retention_sweeps_total",
			Help: "Retention sweeps by result",
		},
		[]string{"status"},
	)

	prunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pquota_audit_entries_pruned_total",
			Help: "Deletion log entries removed by retention sweeps",
		},
	)

	restrictedChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pquota_restricted_channels",
			Help: "Channels currently restricted",
		},
	)

	quotaBuckets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pquota_quota_buckets",
			Help: "Live daily quota buckets held in memory",
		},
	)
)

func init() {
	registry.MustRegister(
		eventsTotal,
		processingDuration,
		sweepsTotal,
		prunedTotal,
		restrictedChannels,
		quotaBuckets,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordEvent counts one pipeline outcome.
func RecordEvent(outcome string) {
	eventsTotal.WithLabelValues(outcome).Inc()
}

// StartEventProcessing returns a function recording the processing duration under the final outcome.
func StartEventProcessing() func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		processingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}

func RecordSweep(status string, pruned int64) {
	sweepsTotal.WithLabelValues(status).Inc()
	if pruned > 0 {
		prunedTotal.Add(float64(pruned))
	}
}

func SetRestrictedChannels(n int) {
	restrictedChannels.Set(float64(n))
}

func SetQuotaBuckets(n int) {
	quotaBuckets.Set(float64(n))
}

// Server exposes /metrics and owns the tracer provider.
type Server struct {
	addr string

	mutex    sync.Mutex
	server   *http.Server
	listener net.Listener
	tracer   *trace.TracerProvider
	done     chan struct{}
}

func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.server != nil {
		return nil
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	Logger = logger

	s.tracer = trace.NewTracerProvider()
	otel.SetTracerProvider(s.tracer)

	if s.addr == "" {
		Logger.Info("metrics endpoint disabled")
		return nil
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.done = make(chan struct{})

	go func(server *http.Server, done chan struct{}) {
		defer close(done)
		Logger.Info("metrics endpoint listening", zap.String("addr", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("metrics server failed", zap.Error(err))
		}
	}(s.server, s.done)

	return nil
}

// Addr returns the bound listener address, empty when the endpoint is disabled.
func (s *Server) Addr() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mutex.Lock()
	server, done, tracer := s.server, s.done, s.tracer
	s.server, s.done, s.tracer, s.listener = nil, nil, nil, nil
	s.mutex.Unlock()

	var stopErr error
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		stopErr = server.Shutdown(shutdownCtx)
		<-done
	}
	if tracer != nil {
		stopErr = errors.Join(stopErr, tracer.Shutdown(ctx))
	}
	_ = Logger.Sync()
	return stopErr
}
