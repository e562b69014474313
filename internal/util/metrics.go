package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order writes",
	}, []string{"reason"})

	ProductLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_lookups_total",
		Help: "Total number of product token resolutions",
	}, []string{"result"})

	WarehouseQueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "warehouse_query_latency_seconds",
		Help:    "Latency of association-rule queries against the warehouse",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
