package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the API, the reaper, and the
// reporting worker.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	assignmentsIssuedTotal *prometheus.CounterVec
	assignmentsDeniedTotal *prometheus.CounterVec
	outcomesRecordedTotal  *prometheus.CounterVec
	callDurationSeconds    *prometheus.HistogramVec
	attemptsReclaimedTotal prometheus.Counter
	outcomeEventsPushed    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "campaign_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "campaign_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		assignmentsIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "campaign_engine",
				Name:      "assignments_issued_total",
				Help:      "Total number of contacts handed to callers.",
			},
			[]string{"campaign"},
		),
		assignmentsDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "campaign_engine",
				Name:      "assignments_denied_total",
				Help:      "Total number of assignment requests that returned no work, by reason.",
			},
			[]string{"reason"},
		),
		outcomesRecordedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "campaign_engine",
				Name:      "outcomes_recorded_total",
				Help:      "Total number of recorded call outcomes by terminal status.",
			},
			[]string{"status"},
		),
		callDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "campaign_engine",
				Name:      "call_duration_seconds",
				Help:      "Reported call duration in seconds grouped by terminal status.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
			},
			[]string{"status"},
		),
		attemptsReclaimedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "campaign_engine",
				Name:      "attempts_reclaimed_total",
				Help:      "Total number of abandoned in-progress attempts aged out by the reaper.",
			},
		),
		outcomeEventsPushed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "campaign_engine",
				Name:      "outcome_events_pushed_total",
				Help:      "Total number of outcome events pushed downstream, by result.",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.assignmentsIssuedTotal,
		m.assignmentsDeniedTotal,
		m.outcomesRecordedTotal,
		m.callDurationSeconds,
		m.attemptsReclaimedTotal,
		m.outcomeEventsPushed,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncAssignmentIssued(campaign string) {
	if m == nil {
		return
	}
	m.assignmentsIssuedTotal.WithLabelValues(normalizeLabel(campaign)).Inc()
}

func (m *Metrics) IncAssignmentDenied(reason string) {
	if m == nil {
		return
	}
	m.assignmentsDeniedTotal.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *Metrics) IncOutcomeRecorded(status string) {
	if m == nil {
		return
	}
	m.outcomesRecordedTotal.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Metrics) ObserveCallDuration(status string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.callDurationSeconds.WithLabelValues(normalizeLabel(status)).Observe(seconds)
}

func (m *Metrics) AddAttemptsReclaimed(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.attemptsReclaimedTotal.Add(float64(count))
}

func (m *Metrics) IncOutcomeEventPushed(result string) {
	if m == nil {
		return
	}
	m.outcomeEventsPushed.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
