package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mai"

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AIRequestsTotal          *prometheus.CounterVec
	AIRequestSeconds         *prometheus.HistogramVec
	MinutesRenderedTotal     prometheus.Counter
	SpeakerReplacementsTotal prometheus.Counter
	TranscriptionJobsTotal   *prometheus.CounterVec
	HTTPRequestSeconds       *prometheus.HistogramVec
}

// New creates the metrics on a dedicated registry that also carries the Go
// runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		AIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_requests_total",
				Help:      "Total generative API calls by provider, operation and outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		AIRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_request_duration_seconds",
				Help:      "Latency of generative API calls including retries",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"provider", "operation"},
		),
		MinutesRenderedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "minutes_rendered_total",
				Help:      "Total minutes documents rendered",
			},
		),
		SpeakerReplacementsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "speaker_replacements_total",
				Help:      "Total speaker label references rewritten",
			},
		),
		TranscriptionJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transcription_jobs_total",
				Help:      "Finished transcription jobs by status",
			},
			[]string{"status"},
		),
		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RegisterDB adds connection pool statistics for db
func (m *Metrics) RegisterDB(db *sql.DB) error {
	if m == nil || db == nil {
		return nil
	}
	if err := m.registry.Register(collectors.NewDBStatsCollector(db, "mai")); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}

// ObserveAI records one provider call
func (m *Metrics) ObserveAI(provider, operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.AIRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	m.AIRequestSeconds.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
}

// MinutesRendered counts a rendered minutes document
func (m *Metrics) MinutesRendered() {
	if m == nil {
		return
	}
	m.MinutesRenderedTotal.Inc()
}

// SpeakerReplacements adds n rewritten label references
func (m *Metrics) SpeakerReplacements(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SpeakerReplacementsTotal.Add(float64(n))
}

// TranscriptionJob counts a finished job
func (m *Metrics) TranscriptionJob(status string) {
	if m == nil {
		return
	}
	m.TranscriptionJobsTotal.WithLabelValues(status).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EchoMiddleware times every request by its route template
func (m *Metrics) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequestSeconds.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
