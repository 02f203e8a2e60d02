package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OnlineConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_ws_online_conns",
		Help: "Current open websocket connections.",
	})

	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Total messages persisted through the store.",
	})
	EventsBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messaging_ws_events_broadcast_total",
		Help: "Total events queued for delivery to clients.",
	})
	CommandsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messaging_ws_commands_dropped_total",
		Help: "Total realtime commands dropped (unknown sender, bad payload).",
	})

	MessagesArchived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_archived_total",
		Help: "Total messages moved to cold storage by the sweeper.",
	})

	ThreadCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messaging_thread_cache_hits_total",
		Help: "Thread reads served from the cache.",
	})
	ThreadCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messaging_thread_cache_misses_total",
		Help: "Thread reads that fell through to the database.",
	})
)

func Register() {
	prometheus.MustRegister(
		OnlineConns,
		MessagesSent, EventsBroadcast, CommandsDropped,
		MessagesArchived,
		ThreadCacheHits, ThreadCacheMisses,
	)
}
