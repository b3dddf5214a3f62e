// Package metrics 定义推荐服务的 Prometheus 指标（promauto 注册到默认 Registry）。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 请求模式
const (
	ModeSimilar  = "similar"
	ModeSearch   = "search"
	ModeForUser  = "user"
	ModePopular  = "popular"
	ModePipeline = "pipeline"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"mode"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookrec_request_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	SkippedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_skipped_items_total",
			Help: "Total number of catalog items skipped by the engine",
		},
		[]string{"reason"},
	)

	FallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookrec_fallback_total",
			Help: "Total number of personalised requests served by the popularity fallback",
		},
	)

	FilteredItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_filtered_items_total",
			Help: "Total number of candidates removed by pipeline filters",
		},
		[]string{"filter"},
	)
)

// RecordRequest 记录一次请求及其耗时。
func RecordRequest(mode string, duration time.Duration) {
	RequestsTotal.WithLabelValues(mode).Inc()
	RequestDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordSkipped 按原因累计被跳过的物品数。
func RecordSkipped(reason string, n int) {
	if n <= 0 {
		return
	}
	SkippedItems.WithLabelValues(reason).Add(float64(n))
}

// RecordFallback 记录一次热门兜底。
func RecordFallback() {
	FallbackTotal.Inc()
}

// RecordFiltered 记录一次候选过滤。
func RecordFiltered(filter string) {
	FilteredItems.WithLabelValues(filter).Inc()
}
