// Package lobby is the entry point for every client packet. It owns the
// connection lifecycle, the version handshake, naming and room membership,
// and hands everything else to the user's room.
package lobby

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"partygames/internal/idgen"
	"partygames/internal/metrics"
	"partygames/internal/protocol"
	"partygames/internal/room"
	"partygames/internal/rooms"
	"partygames/internal/users"
)

const maxNameLen = 255

type Lobby struct {
	// mu serializes room membership changes so a room cannot be deleted
	// while someone is entering it.
	mu sync.Mutex

	uids    *idgen.Serial
	users   *users.Store
	rooms   *rooms.Store
	sender  room.Sender
	metrics *metrics.Metrics
}

func New(uids *idgen.Serial, us *users.Store, rs *rooms.Store, sender room.Sender, m *metrics.Metrics) *Lobby {
	return &Lobby{
		uids:    uids,
		users:   us,
		rooms:   rs,
		sender:  sender,
		metrics: m,
	}
}

// Connect allocates a uid for a new connection. attach runs before the UID
// packet is sent so the caller can register its send queue under that uid.
func (l *Lobby) Connect(attach func(uid uint16)) (uint16, error) {
	id, err := l.uids.Generate()
	if err != nil {
		return 0, fmt.Errorf("allocating user id: %w", err)
	}
	uid := uint16(id)

	attach(uid)
	l.users.Add(uid)
	l.metrics.Connections.Inc()
	log.Info().Uint16("uid", uid).Msg("[Lobby] user connected")

	l.send(uid, protocol.NewPacket(protocol.ServerUID).U16(uid).Packet())
	return uid, nil
}

// Disconnect removes uid from its room and frees the uid.
func (l *Lobby) Disconnect(uid uint16) {
	if _, ok := l.users.Get(uid); !ok {
		return
	}
	l.leaveRoom(uid)
	l.users.Remove(uid)
	l.uids.Release(int(uid))
	l.metrics.Connections.Dec()
	log.Info().Uint16("uid", uid).Msg("[Lobby] user disconnected")
}

// Handle processes one frame from uid. It reports whether the connection
// must be closed.
func (l *Lobby) Handle(uid uint16, frame []byte) bool {
	op, payload, err := protocol.Decode(frame)
	if err != nil {
		return false
	}
	l.metrics.MessageReceived(op)

	u, ok := l.users.Get(uid)
	if !ok {
		return false
	}

	switch op {
	case protocol.ClientVersion:
		return l.checkVersion(u, payload)
	case protocol.ClientName, protocol.ClientCreateRoom, protocol.ClientJoinRoom:
		if !u.VersionChecked {
			log.Warn().Uint16("uid", uid).Str("op", op.String()).Msg("[Lobby] request before version check")
			return true
		}
	}

	switch op {
	case protocol.ClientName:
		l.rename(u, payload)
	case protocol.ClientCreateRoom:
		l.createRoom(u, payload)
	case protocol.ClientJoinRoom:
		l.joinRoom(u, payload)
	case protocol.ClientLeaveRoom:
		l.leaveRoom(uid)
	default:
		if r := l.rooms.Get(u.RoomID); r != nil {
			r.HandleRequest(uid, op, payload)
		}
	}
	return false
}

func (l *Lobby) checkVersion(u users.User, payload []byte) bool {
	if u.VersionChecked {
		return false
	}
	version, err := protocol.NewReader(payload).U32()

	l.send(u.UID, protocol.NewPacket(protocol.ServerVersion).U32(protocol.GameVersion).Packet())
	if err != nil || version != protocol.GameVersion {
		log.Info().Uint16("uid", u.UID).Uint32("version", version).Msg("[Lobby] version mismatch")
		return true
	}
	l.users.MarkVersionChecked(u.UID)
	return false
}

func (l *Lobby) rename(u users.User, payload []byte) {
	if len(payload) > maxNameLen || !utf8.Valid(payload) {
		return
	}
	name := strings.TrimSpace(string(payload))
	if name == u.Name || strings.ContainsAny(name, "()") {
		return
	}

	l.users.SetName(u.UID, name)
	log.Info().Uint16("uid", u.UID).Str("name", name).Msg("[Lobby] user renamed")
	if r := l.rooms.Get(u.RoomID); r != nil {
		r.Rename(u.UID, name)
	}
}

func (l *Lobby) createRoom(u users.User, payload []byte) {
	if u.RoomID != users.NoRoom {
		return
	}
	gameType, err := protocol.NewReader(payload).U8()
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	r, err := l.rooms.Create(protocol.GameType(gameType))
	if err != nil {
		if errors.Is(err, rooms.ErrRoomLimit) {
			l.metrics.RoomIDExhausted.Inc()
		}
		log.Warn().Uint16("uid", u.UID).Err(err).Msg("[Lobby] room creation failed")
		l.sendRoomID(u.UID, protocol.RoomCreateFailed)
		return
	}
	l.metrics.Rooms.Set(float64(l.rooms.Count()))

	l.enter(u, r)
}

func (l *Lobby) joinRoom(u users.User, payload []byte) {
	if u.RoomID != users.NoRoom {
		return
	}
	id, err := protocol.NewReader(payload).U32()
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.rooms.Get(int(id))
	if r == nil {
		l.sendRoomID(u.UID, protocol.RoomNotFound)
		return
	}
	l.enter(u, r)
}

// enter adds u to r; the snapshot goes out first, then ROOM_ID. A full room
// is reported like a missing one.
func (l *Lobby) enter(u users.User, r *room.Room) {
	if !r.AddUser(u.UID, u.Name) {
		l.sendRoomID(u.UID, protocol.RoomNotFound)
		return
	}
	l.users.SetRoom(u.UID, r.ID())
	l.sendRoomID(u.UID, int32(r.ID()))
	log.Info().Uint16("uid", u.UID).Int("room", r.ID()).Msg("[Lobby] user entered room")
}

func (l *Lobby) leaveRoom(uid uint16) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users.Get(uid)
	if !ok || u.RoomID == users.NoRoom {
		return
	}
	l.users.SetRoom(uid, users.NoRoom)

	r := l.rooms.Get(u.RoomID)
	if r == nil {
		return
	}
	r.RemoveUser(uid)
	log.Info().Uint16("uid", uid).Int("room", u.RoomID).Msg("[Lobby] user left room")

	if l.rooms.DeleteIfEmpty(u.RoomID) {
		l.metrics.Rooms.Set(float64(l.rooms.Count()))
	}
}

func (l *Lobby) sendRoomID(uid uint16, id int32) {
	l.send(uid, protocol.NewPacket(protocol.ServerRoomID).I32(id).Packet())
}

func (l *Lobby) send(uid uint16, packet []byte) {
	if err := l.sender.Send(uid, packet); err != nil {
		log.Warn().Uint16("uid", uid).Err(err).Msg("[Lobby] send failed, dropping connection")
		go l.sender.Close(uid, "send failed")
	}
}
