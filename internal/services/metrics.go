package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// poemsSubmitted counts stored submissions by poem type.
	poemsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poems_submitted_total",
			Help: "Total number of poems submitted.",
		},
		[]string{"type"},
	)

	// poemsServed counts random selections by poem type.
	poemsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poems_served_total",
			Help: "Total number of poems served by random selection.",
		},
		[]string{"type"},
	)

	// poemsDeleted counts successful deletions by poem type.
	poemsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poems_deleted_total",
			Help: "Total number of poems deleted with their deletion key.",
		},
		[]string{"type"},
	)

	// recentIDs gauges the size of the recency list of the last service
	// instance that changed it.
	recentIDs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "poems_recent_ids",
			Help: "Number of poem ids in the recently-displayed list.",
		},
	)
)

func init() {
	prometheus.MustRegister(poemsSubmitted, poemsServed, poemsDeleted, recentIDs)
}
