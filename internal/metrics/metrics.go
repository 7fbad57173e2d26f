package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	reviewsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviews_created_total",
			Help: "Reviews written, through either review route",
		},
	)

	imagesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_images_stored_total",
			Help: "Image files written to the upload directory",
		},
		[]string{"kind"},
	)
)

// Middleware records count and latency per method, route pattern and status.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		path := "unknown"
		if r := c.Route(); r != nil && r.Path != "" {
			path = r.Path
		}
		labels := []string{c.Method(), path, strconv.Itoa(status)}
		httpRequestsTotal.WithLabelValues(labels...).Inc()
		httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func ReviewCreated() { reviewsCreated.Inc() }

// ImagesStored counts n files of kind "image" or "gallery".
func ImagesStored(kind string, n int) { imagesStored.WithLabelValues(kind).Add(float64(n)) }
