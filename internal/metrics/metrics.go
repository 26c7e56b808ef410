package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and for
// the monitoring engine's cycles.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cycleDuration     prometheus.Histogram
	reelsScanned      prometheus.Counter
	commentsScanned   prometheus.Counter
	repliesSent       prometheus.Counter
	privateReplies    prometheus.Counter
	apiCalls          prometheus.Counter
	cycleErrors       *prometheus.CounterVec
	monitoringRunning prometheus.Gauge
}

// New constructs a collector with default histograms/counters.
func New() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagepulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagepulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pagepulse",
		Subsystem: "monitoring",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a monitoring cycle in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	reelsScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pagepulse",
		Subsystem: "monitoring",
		Name:      "reels_scanned_total",
		Help:      "Number of reels with enabled rules scanned by monitoring cycles.",
	})

	commentsScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pagepulse",
		Subsystem: "monitoring",
		Name:      "comments_scanned_total",
		Help:      "Number of comments scanned by monitoring cycles.",
	})

	repliesSent := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pagepulse",
		Subsystem: "monitoring",
		Name:      "replies_sent_total",
		Help:      "Number of public comment replies sent.",
	})

	privateReplies := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pagepulse",
		Subsystem: "monitoring",
		Name:      "private_replies_sent_total",
		Help:      "Number of private replies sent.",
	})

	apiCalls := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pagepulse",
		Subsystem: "monitoring",
		Name:      "api_calls_total",
		Help:      "Number of Graph API calls made by monitoring cycles.",
	})

	cycleErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagepulse",
		Subsystem: "monitoring",
		Name:      "cycle_errors_total",
		Help:      "Number of cycle-level errors by class.",
	}, []string{"class"})

	monitoringRunning := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pagepulse",
		Subsystem: "monitoring",
		Name:      "running",
		Help:      "Whether the monitoring scheduler is currently running (1) or stopped (0).",
	})

	collectors := []prometheus.Collector{
		requestDuration,
		requestTotal,
		cycleDuration,
		reelsScanned,
		commentsScanned,
		repliesSent,
		privateReplies,
		apiCalls,
		cycleErrors,
		monitoringRunning,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:          registry,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cycleDuration:     cycleDuration,
		reelsScanned:      reelsScanned,
		commentsScanned:   commentsScanned,
		repliesSent:       repliesSent,
		privateReplies:    privateReplies,
		apiCalls:          apiCalls,
		cycleErrors:       cycleErrors,
		monitoringRunning: monitoringRunning,
	}, nil
}

// Handler returns an HTTP handler exposing the Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records the outcome of one monitoring cycle.
func (c *Collector) ObserveCycle(duration time.Duration, reels, comments, replies, privateReplies, apiCalls int) {
	c.cycleDuration.Observe(duration.Seconds())
	c.reelsScanned.Add(float64(reels))
	c.commentsScanned.Add(float64(comments))
	c.repliesSent.Add(float64(replies))
	c.privateReplies.Add(float64(privateReplies))
	c.apiCalls.Add(float64(apiCalls))
}

// IncCycleError counts a cycle-level failure by error class.
func (c *Collector) IncCycleError(class string) {
	c.cycleErrors.WithLabelValues(class).Inc()
}

// SetRunning reflects the scheduler state.
func (c *Collector) SetRunning(running bool) {
	if running {
		c.monitoringRunning.Set(1)
	} else {
		c.monitoringRunning.Set(0)
	}
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
