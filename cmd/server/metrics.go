package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	objects     prometheus.Counter
	outcomes    *prometheus.CounterVec
	evalFailure *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dichotomous_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dichotomous_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		objects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dichotomous_objects_classified_total",
			Help: "Objects run through a key.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dichotomous_classifications_total",
			Help: "Classifications by outcome (labelled or indeterminate).",
		}, []string{"outcome"}),
		evalFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dichotomous_evaluation_failures_total",
			Help: "Evaluate requests rejected, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.requests, m.duration, m.objects, m.outcomes, m.evalFailure)
	return m
}

// instrument records request counts and latency keyed by the chi route pattern
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
