package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"partygames/internal/analytics"
	"partygames/internal/room"
	"partygames/internal/wshub"
)

const (
	// Largest client frame: opcode, chat hide target and 255 bytes of text.
	maxFrameSize = 1024
	// How long buffered packets may take to flush before a connection is closed.
	flushTimeout = time.Second
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Debug().Err(err).Msg("[Server] websocket accept failed")
		return
	}
	conn.SetReadLimit(maxFrameSize)

	var client *wshub.Client
	uid, err := s.Lobby.Connect(func(uid uint16) {
		client = wshub.NewClient(uid, conn)
		s.Hub.Register(client)
	})
	if err != nil {
		log.Warn().Err(err).Msg("[Server] refusing connection")
		conn.Close(websocket.StatusTryAgainLater, "server full")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	pumpDone := make(chan struct{})
	go func() {
		client.WritePump(ctx)
		close(pumpDone)
	}()

	reason := s.readLoop(ctx, conn, uid)

	s.Lobby.Disconnect(uid)
	s.Hub.Unregister(uid)
	// Unregister closed the send queue; let the pump drain it so a final
	// VERSION reply reaches the client before the close frame.
	select {
	case <-pumpDone:
	case <-time.After(flushTimeout):
	}

	if reason != "" {
		conn.Close(websocket.StatusPolicyViolation, reason)
		return
	}
	conn.CloseNow()
}

// readLoop feeds binary frames to the lobby until the connection drops or
// the lobby asks for it to be closed, in which case a reason is returned.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, uid uint16) string {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug().Uint16("uid", uid).Err(err).Msg("[Server] read failed")
			}
			return ""
		}
		if typ != websocket.MessageBinary {
			continue
		}
		if s.Lobby.Handle(uid, data) {
			return "protocol error"
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":      "ok",
		"connections": s.Hub.Count(),
		"rooms":       s.Rooms.Count(),
	}
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			resp["status"] = "db_error"
			resp["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	list := s.Rooms.List()
	summaries := make([]room.Summary, 0, len(list))
	for _, rm := range list {
		summaries = append(summaries, rm.Summary())
	}
	writeJSON(w, http.StatusOK, summaries)
}

type statsResponse struct {
	Summary []analytics.GameTypeSummary `json:"summary"`
	Recent  []analytics.GameRecap       `json:"recent"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.Queries == nil {
		http.Error(w, "Analytics unavailable (no database)", http.StatusNotFound)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}

	summary, err := s.Queries.Summary()
	if err != nil {
		log.Error().Err(err).Msg("[Server] stats summary failed")
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}
	recent, err := s.Queries.RecentGames(limit)
	if err != nil {
		log.Error().Err(err).Msg("[Server] recent games failed")
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Summary: summary, Recent: recent})
}

// handleEvents streams game lifecycle events as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := s.Broadcaster.Subscribe()
	defer s.Broadcaster.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Msg("[Server] encoding event")
				continue
			}
			fmt.Fprintf(w, "event: %s\n", ev.Kind)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("[Server] writing response")
	}
}
