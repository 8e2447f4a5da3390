package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the stub backend's Prometheus collectors
type metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	registrations   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	emails          *prometheus.CounterVec
	panics          prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentai",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Requests handled, by route and status code",
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rentai",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Request handling duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentai",
			Subsystem: "backend",
			Name:      "registrations_total",
			Help:      "Registration attempts, by result",
		}, []string{"result"}),

		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentai",
			Subsystem: "backend",
			Name:      "logins_total",
			Help:      "Login attempts, by result",
		}, []string{"result"}),

		emails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentai",
			Subsystem: "backend",
			Name:      "emails_total",
			Help:      "Email send requests, by endpoint",
		}, []string{"endpoint"}),

		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rentai",
			Subsystem: "backend",
			Name:      "panics_total",
			Help:      "Handler panics recovered",
		}),
	}
}
