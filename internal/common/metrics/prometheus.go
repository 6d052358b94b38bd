// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	httpRequestsInFlight  prometheus.Gauge
	cacheHitsTotal        *prometheus.CounterVec
	cacheMissesTotal      *prometheus.CounterVec
	mqttMessagesTotal     *prometheus.CounterVec
	ordersTotal           *prometheus.CounterVec
	refundsTotal          *prometheus.CounterVec
	drawerOpsTotal        *prometheus.CounterVec
	reportsFinalizedTotal prometheus.Counter
	cashVariance          prometheus.Gauge
	printJobsTotal        *prometheus.CounterVec
	smsTotal              *prometheus.CounterVec
}

var defaultMetrics *Metrics

// Init 初始化指标收集器
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cottage_pos"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		cacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
		mqttMessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mqtt_messages_total",
				Help:      "Total number of MQTT messages",
			},
			[]string{"topic", "direction"},
		),
		ordersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Total number of completed orders",
			},
			[]string{"payment_method", "order_type"},
		),
		refundsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refunds_total",
				Help:      "Total number of refunds",
			},
			[]string{"refund_method"},
		),
		drawerOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drawer_operations_total",
				Help:      "Total number of cash drawer operations",
			},
			[]string{"operation_type"},
		),
		reportsFinalizedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_finalized_total",
				Help:      "Total number of finalized daily reports",
			},
		),
		cashVariance: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cash_variance",
				Help:      "Cash variance of the most recently finalized report",
			},
		),
		printJobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "print_jobs_total",
				Help:      "Total number of receipt print jobs",
			},
			[]string{"status"},
		),
		smsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sms_total",
				Help:      "Total number of SMS notifications",
			},
			[]string{"status"},
		),
	}

	defaultMetrics = m
	return m
}

// GetMetrics 获取默认指标收集器
func GetMetrics() *Metrics {
	if defaultMetrics == nil {
		return Init("")
	}
	return defaultMetrics
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过 metrics 端点本身
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordCacheHit 记录缓存命中
func (m *Metrics) RecordCacheHit(cache string) {
	m.cacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *Metrics) RecordCacheMiss(cache string) {
	m.cacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordMQTTMessage 记录 MQTT 消息
func (m *Metrics) RecordMQTTMessage(topic, direction string) {
	m.mqttMessagesTotal.WithLabelValues(topic, direction).Inc()
}

// RecordOrder 记录完成订单
func (m *Metrics) RecordOrder(paymentMethod, orderType string) {
	m.ordersTotal.WithLabelValues(paymentMethod, orderType).Inc()
}

// RecordRefund 记录退款
func (m *Metrics) RecordRefund(refundMethod string) {
	m.refundsTotal.WithLabelValues(refundMethod).Inc()
}

// RecordDrawerOperation 记录钱箱操作
func (m *Metrics) RecordDrawerOperation(operationType string) {
	m.drawerOpsTotal.WithLabelValues(operationType).Inc()
}

// RecordReportFinalized 记录日结完成
func (m *Metrics) RecordReportFinalized() {
	m.reportsFinalizedTotal.Inc()
}

// SetCashVariance 更新最近日结的现金差异
func (m *Metrics) SetCashVariance(variance float64) {
	m.cashVariance.Set(variance)
}

// RecordPrintJob 记录打印任务
func (m *Metrics) RecordPrintJob(status string) {
	m.printJobsTotal.WithLabelValues(status).Inc()
}

// RecordSMS 记录短信发送
func (m *Metrics) RecordSMS(status string) {
	m.smsTotal.WithLabelValues(status).Inc()
}
