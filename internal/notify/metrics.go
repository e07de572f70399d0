package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "murmur",
		Subsystem: "notify",
		Name:      "connected_channels",
		Help:      "Number of push channels currently registered.",
	})

	metricDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "murmur",
		Subsystem: "notify",
		Name:      "notifications_delivered_total",
		Help:      "Notifications enqueued onto a connected channel.",
	}, []string{"type"})

	metricDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "murmur",
		Subsystem: "notify",
		Name:      "notifications_dropped_total",
		Help:      "Notifications dropped because the target was offline or its queue was full.",
	}, []string{"type", "reason"})
)
