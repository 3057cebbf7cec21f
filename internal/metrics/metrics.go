package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dm_ws_connections",
		Help: "Current number of active websocket connections",
	})
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dm_online_users",
		Help: "Current number of usernames with a live authenticated connection",
	})
	MessagesRoutedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dm_messages_routed_total",
		Help: "Total number of direct messages accepted and persisted",
	})
	MessagesDeliveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dm_messages_delivered_total",
		Help: "Total number of direct messages delivered to a live recipient",
	})
	MessagesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_messages_rejected_total",
		Help: "Total number of rejected direct messages",
	}, []string{"reason"})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections,
		OnlineUsers,
		MessagesRoutedTotal,
		MessagesDeliveredTotal,
		MessagesRejectedTotal,
		HttpRequestsTotal,
		HttpRequestDuration,
	)
}

// GinMiddleware 统计基础请求指标，供 Prometheus 拉取。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
