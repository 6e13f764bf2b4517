// Package metrics 提供推荐引擎的 Prometheus 指标。
//
// 指标：
//   - optgift_recommendations_total：返回的推荐条数，labels: strategy, model
//   - optgift_strategy_duration_seconds：单个策略耗时，labels: strategy
//   - optgift_collaborative_fallbacks_total：协同策略退化次数，labels: policy, reason
//   - optgift_classifier_retrains_total：质量模型重训结果，labels: outcome (trained, skipped)
//   - optgift_feedback_total：反馈事件，labels: action
//   - optgift_embedding_requests_total：向量服务请求，labels: outcome (ok, error, cache_hit)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optgift_recommendations_total",
			Help: "Total number of recommended products by strategy and model label",
		},
		[]string{"strategy", "model"},
	)

	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optgift_strategy_duration_seconds",
			Help:    "Duration of a single recommendation strategy in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	CollaborativeFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optgift_collaborative_fallbacks_total",
			Help: "Total number of collaborative policy fallbacks to random picks",
		},
		[]string{"policy", "reason"},
	)

	ClassifierRetrains = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optgift_classifier_retrains_total",
			Help: "Total number of quality classifier retrain attempts by outcome",
		},
		[]string{"outcome"},
	)

	FeedbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optgift_feedback_total",
			Help: "Total number of feedback events by action",
		},
		[]string{"action"},
	)

	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optgift_embedding_requests_total",
			Help: "Total number of embedding lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordStrategy 记录一次策略执行：耗时与每条结果的模型标签。
func RecordStrategy(strategy string, models []string, duration time.Duration) {
	StrategyDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	for _, m := range models {
		Recommendations.WithLabelValues(strategy, m).Inc()
	}
}

// RecordFallback 记录协同策略退化为随机结果。
func RecordFallback(policy, reason string) {
	CollaborativeFallbacks.WithLabelValues(policy, reason).Inc()
}

// RecordRetrain 记录一次重训尝试。
func RecordRetrain(trained bool) {
	outcome := "skipped"
	if trained {
		outcome = "trained"
	}
	ClassifierRetrains.WithLabelValues(outcome).Inc()
}

// RecordFeedback 记录一次反馈事件。
func RecordFeedback(action string) {
	FeedbackEvents.WithLabelValues(action).Inc()
}

// RecordEmbedding 记录一次向量查询结果。
func RecordEmbedding(outcome string) {
	EmbeddingRequests.WithLabelValues(outcome).Inc()
}
