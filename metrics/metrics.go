package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Process wide metrics, on a private registry.
type Collector struct {
	reg *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec   // route, code
	RequestDuration *prometheus.HistogramVec // route

	FavoriteMutations *prometheus.CounterVec // kind: added|removed
	Favorites         prometheus.Gauge
	StorageErrors     *prometheus.CounterVec // op: get|set

	NotificationsPublished prometheus.Counter
	NotificationsFailed    prometheus.Counter
	NATSConnectedGauge     prometheus.Gauge

	FeedRoutes prometheus.Gauge
	FeedStops  prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smilabus_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smilabus_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}, []string{"route"}),
		FavoriteMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smilabus_favorite_mutations_total",
			Help: "Favorites added or removed.",
		}, []string{"kind"}),
		Favorites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smilabus_favorites",
			Help: "Number of favorited routes.",
		}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smilabus_storage_errors_total",
			Help: "Storage failures that made favorites fall back to memory.",
		}, []string{"op"}),
		NotificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smilabus_notifications_published_total",
			Help: "Favorite change events published to NATS.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smilabus_notifications_failed_total",
			Help: "Favorite change events that could not be published.",
		}),
		NATSConnectedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smilabus_nats_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
		FeedRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smilabus_feed_routes",
			Help: "Routes in the loaded feed.",
		}),
		FeedStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smilabus_feed_stops",
			Help: "Stops in the loaded feed.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests, c.RequestDuration,
		c.FavoriteMutations, c.Favorites, c.StorageErrors,
		c.NotificationsPublished, c.NotificationsFailed, c.NATSConnectedGauge,
		c.FeedRoutes, c.FeedStops,
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) FavoriteMutation(kind string) { c.FavoriteMutations.WithLabelValues(kind).Inc() }
func (c *Collector) FavoritesCount(n int) { c.Favorites.Set(float64(n)) }
func (c *Collector) StorageError(op string) { c.StorageErrors.WithLabelValues(op).Inc() }

func (c *Collector) NotificationPublished() { c.NotificationsPublished.Inc() }
func (c *Collector) NotificationFailed() { c.NotificationsFailed.Inc() }

func (c *Collector) NATSConnected(connected bool) {
	if connected {
		c.NATSConnectedGauge.Set(1)
	} else {
		c.NATSConnectedGauge.Set(0)
	}
}

func (c *Collector) FeedLoaded(routes int, stops int) {
	c.FeedRoutes.Set(float64(routes))
	c.FeedStops.Set(float64(stops))
}

// Chi middleware counting requests by route pattern, so that
// /api/routes/3 and /api/routes/4 share a series.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
