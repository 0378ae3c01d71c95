package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsCollector aggregates the Prometheus instruments exposed on /metrics.
type metricsCollector struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency prometheus.Histogram
	recordsSaved   prometheus.Counter
	saveFailures   prometheus.Counter
}

func newMetricsCollector(reg prometheus.Registerer) *metricsCollector {
	c := &metricsCollector{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mahudhurio_http_requests_total",
			Help: "HTTP requests served, by method, path and status code.",
		}, []string{"method", "path", "status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mahudhurio_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		recordsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mahudhurio_attendance_records_saved_total",
			Help: "Attendance records persisted from sheet saves.",
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mahudhurio_attendance_save_failures_total",
			Help: "Per-student failures reported by sheet saves.",
		}),
	}

	reg.MustRegister(
		c.requestsTotal,
		c.requestLatency,
		c.recordsSaved,
		c.saveFailures,
	)

	return c
}

func (c *metricsCollector) recordRequest(method, path string, status int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.requestLatency.Observe(duration.Seconds())
}

func (c *metricsCollector) recordSheetSave(saved, failed int) {
	c.recordsSaved.Add(float64(saved))
	c.saveFailures.Add(float64(failed))
}

func (c *metricsCollector) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				// commit the error response now so the real status is recorded
				ctx.Error(err)
			}
			c.recordRequest(ctx.Request().Method, ctx.Path(), ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}

func metricsHandler(gatherer prometheus.Gatherer) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
