package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActionsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beckn_actions_received_total",
		Help: "Total number of Beckn actions received",
	}, []string{"action"})

	ActionsNackedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beckn_actions_nacked_total",
		Help: "Total number of Beckn actions rejected with a NACK",
	}, []string{"action"})

	ActionsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beckn_actions_processed_total",
		Help: "Total number of Beckn actions fully processed",
	}, []string{"action", "outcome"})

	CallbacksSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beckn_callbacks_sent_total",
		Help: "Total number of callbacks delivered to buyer apps",
	}, []string{"action"})

	CallbacksFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beckn_callbacks_failed_total",
		Help: "Total number of callback deliveries that failed",
	}, []string{"action"})

	CallbackLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "beckn_callback_latency_seconds",
		Help:    "Latency of callback deliveries to buyer apps",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	StockDecrementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_decrements_total",
		Help: "Total number of stock decrements by path",
	}, []string{"path"})

	TasksDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_tasks_dropped_total",
		Help: "Total number of tasks dropped because a worker queue was full",
	}, []string{"pool"})

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
