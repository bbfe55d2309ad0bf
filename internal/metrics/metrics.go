// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "rooms_created_total",
		Help:      "Rooms created, by game mode.",
	}, []string{"mode"})

	ActiveRooms = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "arena",
		Name:      "rooms_active",
		Help:      "Rooms currently in the active state, by game mode.",
	}, []string{"mode"})

	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "games_finished_total",
		Help:      "Games played to completion, by game mode.",
	}, []string{"mode"})

	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "evaluations_total",
		Help:      "Sandbox test-case evaluations, by outcome.",
	}, []string{"outcome"})

	WSMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Name:      "ws_messages_total",
		Help:      "Inbound WebSocket messages, by type.",
	}, []string{"type"})
)
