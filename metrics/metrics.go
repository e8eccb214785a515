// Package metrics exposes the Prometheus collectors for HTTP traffic, lifecycle transitions
// and notification dispatch.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hrms"

// Registry holds every collector of this process. /metrics serves it.
var Registry = prometheus.NewRegistry()

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Onboarding transitions by event and outcome (ok or error kind).",
	}, []string{"event", "outcome"})

	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatch",
		Name:      "events_total",
		Help:      "Outbox deliveries by event type and result.",
	}, []string{"type", "result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TransitionsTotal,
		DispatchTotal,
	)
}

// Label turns an event name such as "request deactivation for" into request_deactivation.
func Label(event string) string {
	event = strings.TrimSuffix(strings.TrimSpace(event), " for")
	return strings.ReplaceAll(event, " ", "_")
}

// ObserveTransition counts one lifecycle transition attempt.
func ObserveTransition(event, outcome string) {
	TransitionsTotal.WithLabelValues(Label(event), outcome).Inc()
}

// ObserveDispatch counts one outbox delivery attempt.
func ObserveDispatch(eventType string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	DispatchTotal.WithLabelValues(eventType, result).Inc()
}

// Middleware records request count and latency under the matched route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
