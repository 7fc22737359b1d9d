package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"partygames/internal/analytics"
	"partygames/internal/broadcast"
	"partygames/internal/config"
	"partygames/internal/db"
	"partygames/internal/events"
	"partygames/internal/idgen"
	"partygames/internal/lobby"
	"partygames/internal/metrics"
	"partygames/internal/room"
	"partygames/internal/rooms"
	"partygames/internal/users"
	"partygames/internal/wshub"
)

type Server struct {
	Lobby       *lobby.Lobby
	Hub         *wshub.Hub
	Rooms       *rooms.Store
	Users       *users.Store
	Bus         *events.Bus
	Broadcaster *broadcast.Broadcaster
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry
	DB          *db.DB              // nil if no database configured
	Queries     *analytics.Queries // nil if no database configured
}

// New wires the in-memory services. The database is attached separately by
// AttachDB.
func New(cfg config.Config, reg *prometheus.Registry) *Server {
	hub := wshub.NewHub()
	us := users.NewStore()
	bus := events.NewBus()
	m := metrics.New(reg)

	rs := rooms.NewStore(idgen.NewPool(cfg.MaxRoomID, cfg.RoomQuota), room.Deps{
		Sender:        hub,
		Users:         us,
		Events:        bus,
		CountdownSecs: cfg.CountdownSecs,
	})

	return &Server{
		Lobby:       lobby.New(idgen.NewSerial(cfg.MaxUsers), us, rs, hub, m),
		Hub:         hub,
		Rooms:       rs,
		Users:       us,
		Bus:         bus,
		Broadcaster: broadcast.NewBroadcaster(bus),
		Metrics:     m,
		Registry:    reg,
	}
}

// AttachDB starts recording game history into database.
func (s *Server) AttachDB(ctx context.Context, database *db.DB) {
	s.DB = database
	s.Queries = analytics.NewQueries(database)
	go db.Record(ctx, database, s.Broadcaster.Subscribe())
}

// Start runs the metrics consumer until ctx is done.
func (s *Server) Start(ctx context.Context) {
	go s.Metrics.Consume(ctx, s.Broadcaster.Subscribe())
}
