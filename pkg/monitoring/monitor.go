package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ReviewCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uplook_card_reviews_total",
			Help: "Card reviews submitted, by response grade",
		},
		[]string{"grade"},
	)

	BadgeAwardCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uplook_badges_awarded_total",
			Help: "Badges awarded, by badge type",
		},
		[]string{"badge_type"},
	)

	RecommendationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uplook_recommendations_total",
			Help: "Recommendations returned, by priority tier",
		},
		[]string{"priority"},
	)

	ActivityCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uplook_activities_logged_total",
			Help: "Content completions logged, by outcome",
		},
		[]string{"outcome"},
	)

	SentimentJobCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uplook_sentiment_analyses_total",
			Help: "Journal sentiment analyses, by outcome",
		},
		[]string{"outcome"},
	)

	ChatOnlineClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "uplook_chat_online_clients",
			Help: "Websocket clients connected to chat rooms on this instance",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ReviewCounter)
	prometheus.MustRegister(BadgeAwardCounter)
	prometheus.MustRegister(RecommendationCounter)
	prometheus.MustRegister(ActivityCounter)
	prometheus.MustRegister(SentimentJobCounter)
	prometheus.MustRegister(ChatOnlineClients)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
