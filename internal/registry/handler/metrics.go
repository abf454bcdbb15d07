package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/anchorledger/internal/notify"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	anchorRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anchor_records_total",
		Help: "Total anchor records observed on the notification bus.",
	})

	anchorRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_rejected_total",
		Help: "Total rejected anchor requests by operation and reason.",
	}, []string{"op", "reason"})

	anchorBatchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_batch_items_total",
		Help: "Total batch items by outcome.",
	}, []string{"status"})

	anchorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	anchorRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anchor_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	anchorWebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_webhook_deliveries_total",
		Help: "Total webhook deliveries by success status.",
	}, []string{"status"})

	anchorNotaryPublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_notary_publishes_total",
		Help: "Total HCS topic messages by result.",
	}, []string{"result"})

	anchorHealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_health_checks_total",
		Help: "Total storage health probes by result.",
	}, []string{"result"})

	anchorNotifyPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anchor_notify_pending",
		Help: "Notifications queued but not yet dispatched.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		anchorRequestsTotal.WithLabelValues(method, path, status).Inc()
		anchorRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsSink counts anchored notifications. It is registered on the bus
// so gRPC and HTTP submissions are counted alike.
func MetricsSink() notify.Sink {
	return notify.SinkFunc{
		SinkName: "metrics",
		Fn: func(context.Context, notify.Event) {
			anchorRecordsTotal.Inc()
		},
	}
}

// RecordAnchorRejected records a failed single or root anchor request.
func RecordAnchorRejected(op string, err error) {
	anchorRejectedTotal.WithLabelValues(op, rejectReason(err)).Inc()
}

// RecordBatch records per-item outcomes of a batch.
func RecordBatch(res *model.BatchResult) {
	if res == nil {
		return
	}
	for _, s := range []model.ItemStatus{model.ItemAnchored, model.ItemSkippedInvalid, model.ItemSkippedDuplicate} {
		if n := res.Count(s); n > 0 {
			anchorBatchItemsTotal.WithLabelValues(string(s)).Add(float64(n))
		}
	}
}

// RecordWebhookDelivery records a webhook delivery attempt.
func RecordWebhookDelivery(success bool) {
	if success {
		anchorWebhookDeliveriesTotal.WithLabelValues("success").Inc()
	} else {
		anchorWebhookDeliveriesTotal.WithLabelValues("failure").Inc()
	}
}

// RecordNotaryPublish records an HCS topic submission.
func RecordNotaryPublish(success bool) {
	if success {
		anchorNotaryPublishesTotal.WithLabelValues("success").Inc()
	} else {
		anchorNotaryPublishesTotal.WithLabelValues("failure").Inc()
	}
}

// RecordHealthCheck records a storage health probe result.
func RecordHealthCheck(success bool) {
	if success {
		anchorHealthChecksTotal.WithLabelValues("success").Inc()
	} else {
		anchorHealthChecksTotal.WithLabelValues("failure").Inc()
	}
}

// SetNotifyPending sets the notification queue depth gauge.
func SetNotifyPending(n int) {
	anchorNotifyPending.Set(float64(n))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidHash):
		return "invalid_hash"
	case errors.Is(err, model.ErrAlreadyAnchored):
		return "already_anchored"
	case errors.Is(err, model.ErrInvalidSubmitter):
		return "invalid_submitter"
	default:
		return "error"
	}
}
