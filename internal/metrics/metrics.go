// Package metrics exposes server counters to Prometheus.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"partygames/internal/events"
	"partygames/internal/protocol"
)

const namespace = "partygames"

type Metrics struct {
	Connections      prometheus.Gauge
	Rooms            prometheus.Gauge
	GamesStarted     *prometheus.CounterVec
	GamesEnded       *prometheus.CounterVec
	MessagesReceived *prometheus.CounterVec
	RoomIDExhausted  prometheus.Counter
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Open rooms.",
		}),
		GamesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games started, by game type.",
		}, []string{"game_type"}),
		GamesEnded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_ended_total",
			Help:      "Games ended, by game type and whether the end was forced.",
		}, []string{"game_type", "forced"}),
		MessagesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Client packets received, by opcode.",
		}, []string{"op"}),
		RoomIDExhausted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_id_exhausted_total",
			Help:      "Room creations refused because no room id was available.",
		}),
	}
}

func (m *Metrics) MessageReceived(op protocol.ClientOp) {
	m.MessagesReceived.WithLabelValues(op.String()).Inc()
}

// Observe counts a game lifecycle event.
func (m *Metrics) Observe(ev events.Event) {
	switch ev.Kind {
	case events.GameStarted:
		m.GamesStarted.WithLabelValues(ev.GameType).Inc()
	case events.GameEnded:
		m.GamesEnded.WithLabelValues(ev.GameType, strconv.FormatBool(ev.Forced)).Inc()
	}
}

// Consume observes events from ch until it is closed or ctx is done.
func (m *Metrics) Consume(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			m.Observe(ev)
		}
	}
}
