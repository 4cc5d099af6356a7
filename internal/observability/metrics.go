package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liftlog",
		Name:      "submissions_total",
		Help:      "Lift submissions by lift type and outcome",
	}, []string{"lift", "outcome"})

	PersonalBests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liftlog",
		Name:      "personal_bests_total",
		Help:      "New personal bests recorded",
	}, []string{"lift"})

	PBConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liftlog",
		Name:      "pb_update_conflicts_total",
		Help:      "Personal best writes rejected by a concurrent update",
	})

	PBUpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "liftlog",
		Name:      "pb_update_duration_seconds",
		Help:      "Duration of the personal best read-check-write",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	LeaderboardDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liftlog",
		Name:      "leaderboard_total_drift_total",
		Help:      "Leaderboard rows whose cached total disagreed with the lift sum",
	})

	LeaderboardRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "liftlog",
		Name:      "leaderboard_rows",
		Help:      "Rows returned per leaderboard projection",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
	})

	QueueMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liftlog",
		Name:      "queue_messages_total",
		Help:      "NATS messages handled by subject and result",
	}, []string{"subject", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "liftlog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "liftlog",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
