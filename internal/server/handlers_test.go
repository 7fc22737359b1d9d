package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partygames/internal/config"
	"partygames/internal/events"
	"partygames/internal/protocol"
	"partygames/internal/room"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(config.Default(), prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readPacket(t *testing.T, conn *websocket.Conn) (protocol.ServerOp, []byte) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageBinary, typ)
	require.NotEmpty(t, data)
	return protocol.ServerOp(data[0]), data[1:]
}

func write(t *testing.T, conn *websocket.Conn, op protocol.ClientOp, payload ...byte) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, append([]byte{byte(op)}, payload...)))
}

func u32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestWebSocket_Handshake(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)

	op, payload := readPacket(t, conn)
	require.Equal(t, protocol.ServerUID, op)
	uid, err := protocol.NewReader(payload).U16()
	require.NoError(t, err)
	assert.NotZero(t, uid)

	write(t, conn, protocol.ClientVersion, u32(protocol.GameVersion)...)
	op, payload = readPacket(t, conn)
	require.Equal(t, protocol.ServerVersion, op)
	v, err := protocol.NewReader(payload).U32()
	require.NoError(t, err)
	assert.Equal(t, protocol.GameVersion, v)

	write(t, conn, protocol.ClientCreateRoom, byte(protocol.GuessWord))
	op, _ = readPacket(t, conn)
	require.Equal(t, protocol.ServerInit, op)

	op, payload = readPacket(t, conn)
	require.Equal(t, protocol.ServerRoomID, op)
	id, err := protocol.NewReader(payload).U32()
	require.NoError(t, err)
	assert.Positive(t, int32(id))

	require.NotNil(t, srv.Rooms.Get(int(int32(id))))
	assert.Equal(t, 1, srv.Hub.Count())
}

func TestWebSocket_VersionMismatchCloses(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	readPacket(t, conn) // UID

	write(t, conn, protocol.ClientVersion, u32(protocol.GameVersion+1)...)
	op, _ := readPacket(t, conn)
	assert.Equal(t, protocol.ServerVersion, op)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestWebSocket_DisconnectLeavesRoom(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)
	readPacket(t, conn)

	write(t, conn, protocol.ClientVersion, u32(protocol.GameVersion)...)
	readPacket(t, conn)
	write(t, conn, protocol.ClientCreateRoom, byte(protocol.ArrangeNumber))
	readPacket(t, conn)
	readPacket(t, conn)
	require.Equal(t, 1, srv.Rooms.Count())

	conn.Close(websocket.StatusNormalClosure, "")

	assert.Eventually(t, func() bool {
		return srv.Rooms.Count() == 0 && srv.Hub.Count() == 0 && srv.Users.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["connections"])
	assert.EqualValues(t, 0, body["rooms"])
}

func TestHandleRooms(t *testing.T) {
	srv, ts := newTestServer(t)
	_, err := srv.Rooms.Create(protocol.GuessWord)
	require.NoError(t, err)
	_, err = srv.Rooms.Create(protocol.ArrangeNumber)
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []room.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	types := []string{list[0].GameType, list[1].GameType}
	assert.ElementsMatch(t, []string{protocol.GuessWord.String(), protocol.ArrangeNumber.String()}, types)
}

func TestHandleRooms_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/rooms", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleStats_NoDatabase(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleMetrics(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Metrics.Connections.Set(3)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "partygames_connections 3")
}

func TestHandleEvents(t *testing.T) {
	srv, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	ev := events.Event{
		Kind:     events.GameStarted,
		GameID:   uuid.New(),
		RoomID:   42,
		GameType: protocol.GuessWord.String(),
		Players:  []events.Participant{{UID: 1, Name: "Alice"}},
		At:       time.Now().UTC(),
	}
	srv.Broadcaster.Publish(ev)

	sc := bufio.NewScanner(resp.Body)
	var kind, data string
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			kind = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
			break
		}
	}
	require.NoError(t, sc.Err())

	assert.Equal(t, string(events.GameStarted), kind)
	var got events.Event
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, ev.GameID, got.GameID)
	assert.Equal(t, 42, got.RoomID)
	assert.Equal(t, ev.Players, got.Players)
}
