package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_messages_appended_total",
		Help: "Messages accepted by the append write path.",
	})

	EventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_broker_events_delivered_total",
		Help: "Change events handed to delivery-channel subscribers.",
	})

	EventsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orbit_broker_events_coalesced_total",
		Help: "Events collapsed into a resync signal because a subscriber queue overflowed.",
	})

	Subscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orbit_broker_subscriptions",
		Help: "Open delivery-channel subscriptions.",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orbit_ws_connections",
		Help: "Connected websocket clients.",
	})
)
