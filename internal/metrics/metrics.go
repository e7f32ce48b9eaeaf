package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connections_active",
			Help: "Currently open websocket connections",
		},
	)

	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_online_users",
			Help: "Identities currently present in the registry",
		},
	)

	EventsRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_relayed_total",
			Help: "Total frames relayed to subscribers",
		},
		[]string{"event"},
	)

	FramesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_frames_rejected_total",
			Help: "Inbound frames dropped at the hub boundary",
		},
	)

	SlowConsumersDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_slow_consumers_dropped_total",
			Help: "Connections closed because their send buffer filled",
		},
	)

	// Collaborator metrics
	MessagesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_recorded_total",
			Help: "Relayed messages written to the history store",
		},
	)

	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_uploads_total",
			Help: "Files accepted by the upload endpoint",
		},
	)

	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)
)
