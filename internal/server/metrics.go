package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "image_intensity"

// Metrics holds the instruments of one server. Each server owns its registry,
// so several servers can coexist in a process.
type Metrics struct {
	registry *prometheus.Registry

	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	intensity      metrics.Histogram
	pixels         metrics.Counter
}

// NewMetrics creates the instruments and a registry holding them plus the Go
// and process collectors.
func NewMetrics() *Metrics {
	requestCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "calculate",
		Name:      "request_count",
		Help:      "Number of intensity requests received.",
	}, []string{"code", "status"})
	requestLatency := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: metricsNamespace,
		Subsystem: "calculate",
		Name:      "request_latency_seconds",
		Help:      "Total duration of intensity requests in seconds.",
	}, []string{"code"})
	intensity := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "calculate",
		Name:      "average_intensity",
		Help:      "Average intensity of successfully processed images.",
		Buckets:   prometheus.LinearBuckets(0, 32, 9),
	}, []string{"format"})
	pixels := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "calculate",
		Name:      "pixels_processed_total",
		Help:      "Pixels averaged across all successful requests.",
	}, []string{"format"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		requestCount, requestLatency, intensity, pixels,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:       registry,
		requestCount:   kitprometheus.NewCounter(requestCount),
		requestLatency: kitprometheus.NewSummary(requestLatency),
		intensity:      kitprometheus.NewHistogram(intensity),
		pixels:         kitprometheus.NewCounter(pixels),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request outcomes and, on success, the computed intensity.
func (m *Metrics) Middleware() endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				m.observe(err, time.Since(begin))
			}(time.Now())

			response, err = next(ctx, request)
			if err == nil {
				if resp, ok := response.(CalculateResponse); ok && resp.analysis != nil {
					format := resp.analysis.Format.String()
					m.intensity.With("format", format).Observe(resp.analysis.Result.AverageIntensity)
					m.pixels.With("format", format).Add(float64(resp.analysis.Result.PixelsProcessed))
				}
			}
			return response, err
		}
	}
}

// ObserveRejected counts a request that failed before reaching the endpoint.
func (m *Metrics) ObserveRejected(err error) {
	m.observe(err, 0)
}

func (m *Metrics) observe(err error, took time.Duration) {
	code, status := "ok", http.StatusOK
	if err != nil {
		var body ErrorResponse
		status, body = classifyError(err)
		code = strings.ToLower(body.Code)
	}
	m.requestCount.With("code", code, "status", strconv.Itoa(status)).Add(1)
	if took > 0 {
		m.requestLatency.With("code", code).Observe(took.Seconds())
	}
}
