package room

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"partygames/internal/events"
	"partygames/internal/protocol"
)

// maxChatPayload is a 2-byte hide target plus a 255-byte message.
const maxChatPayload = 257

// MaxMembers keeps the snapshot member list within a 1-byte count.
const MaxMembers = protocol.MaxCount

type countdown struct {
	cancel func() bool
}

// Room is one game session. Every exported method without a "called from a
// Variant" note takes the room lock, so requests for a room are applied one
// at a time in arrival order.
type Room struct {
	mu sync.Mutex

	id       int
	gameType protocol.GameType
	deps     Deps
	variant  Variant

	members []uint16
	players map[uint16]Player
	joined  []uint16 // player uids in join order

	playing   bool
	countdown *countdown
	gameID    uuid.UUID
	createdAt time.Time
}

func New(id int, gameType protocol.GameType, deps Deps, factory Factory) *Room {
	if deps.Schedule == nil {
		deps.Schedule = afterFunc
	}
	if deps.CountdownSecs <= 0 {
		deps.CountdownSecs = protocol.CountdownSecs
	}
	r := &Room{
		id:        id,
		gameType:  gameType,
		deps:      deps,
		players:   make(map[uint16]Player),
		createdAt: time.Now(),
	}
	r.variant = factory(r)
	return r
}

func (r *Room) ID() int {
	return r.id
}

func (r *Room) GameType() protocol.GameType {
	return r.gameType
}

func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0
}

type Summary struct {
	ID        int       `json:"id"`
	GameType  string    `json:"game_type"`
	Members   int       `json:"members"`
	Players   int       `json:"players"`
	Playing   bool      `json:"playing"`
	Countdown bool      `json:"countdown"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		ID:        r.id,
		GameType:  r.gameType.String(),
		Members:   len(r.members),
		Players:   len(r.players),
		Playing:   r.playing,
		Countdown: r.countdown != nil,
		CreatedAt: r.createdAt,
	}
}

// AddUser makes uid a member: it receives the full snapshot and everyone
// else is told about the new connection. It reports false when the room
// already holds MaxMembers users.
func (r *Room) AddUser(uid uint16, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(r.members, uid) {
		return true
	}
	if len(r.members) >= MaxMembers {
		log.Info().Int("room", r.id).Uint16("uid", uid).Msg("[Room] room full")
		return false
	}
	r.members = append(r.members, uid)

	r.SendTo(uid, r.snapshot())
	r.Broadcast(protocol.NewPacket(protocol.ServerConnect).U16(uid).String(name).Packet(), uid)
	return true
}

// RemoveUser drops uid from the room, leaving the game first if needed.
func (r *Room) RemoveUser(uid uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.members, uid)
	if i < 0 {
		return
	}
	r.members = slices.Delete(r.members, i, i+1)
	r.removePlayer(uid)

	r.Broadcast(protocol.NewPacket(protocol.ServerDisconnect).U16(uid).Packet())
}

func (r *Room) Rename(uid uint16, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.members, uid) {
		return
	}
	r.Broadcast(protocol.NewPacket(protocol.ServerName).U16(uid).String(name).Packet())
}

// HandleRequest applies one client request from a member.
func (r *Room) HandleRequest(uid uint16, op protocol.ClientOp, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.Contains(r.members, uid) {
		return
	}

	switch op {
	case protocol.ClientJoinGame:
		r.addPlayer(uid)
	case protocol.ClientLeaveGame:
		r.removePlayer(uid)
	case protocol.ClientStart:
		r.requestStart(uid)
	case protocol.ClientCancelStart:
		r.requestCancelStart(uid)
	case protocol.ClientChat:
		if len(payload) > maxChatPayload || len(payload) < 2 {
			return
		}
		hide := protocol.NewReader(payload)
		hideUID, _ := hide.U16()
		r.chat(uid, hide.Rest(), hideUID)
	default:
		r.variant.HandleRequest(uid, op, payload)
	}
}

func (r *Room) addPlayer(uid uint16) {
	if _, ok := r.players[uid]; ok {
		return
	}
	p := r.variant.NewPlayer(uid)
	if p == nil {
		return
	}
	r.players[uid] = p
	r.joined = append(r.joined, uid)
	log.Info().Int("room", r.id).Uint16("uid", uid).Msg("[Room] player joined game")

	r.stopCountdown()
	r.Broadcast(protocol.NewPacket(protocol.ServerJoinGame).U16(uid).Packet())
}

func (r *Room) removePlayer(uid uint16) {
	if _, ok := r.players[uid]; !ok {
		return
	}

	r.stopCountdown()
	delete(r.players, uid)
	if i := slices.Index(r.joined, uid); i >= 0 {
		r.joined = slices.Delete(r.joined, i, i+1)
	}
	log.Info().Int("room", r.id).Uint16("uid", uid).Msg("[Room] player left game")

	r.variant.OnPlayerRemoved(uid)
	r.Broadcast(protocol.NewPacket(protocol.ServerLeaveGame).U16(uid).Packet())
}

func (r *Room) requestStart(uid uint16) {
	if r.playing {
		return
	}
	if _, ok := r.players[uid]; !ok {
		return
	}
	if len(r.players) < 2 {
		return
	}

	r.startCountdown()
	log.Info().Int("room", r.id).Uint16("uid", uid).Msg("[Room] start requested")
}

func (r *Room) requestCancelStart(uid uint16) {
	if r.playing {
		return
	}
	if _, ok := r.players[uid]; !ok {
		return
	}

	r.stopCountdown()
	log.Info().Int("room", r.id).Uint16("uid", uid).Msg("[Room] start cancelled")
}

func (r *Room) chat(uid uint16, text []byte, hideUID uint16) {
	var exclude []uint16
	if hideUID > 0 {
		exclude = append(exclude, hideUID)
	}
	packet := protocol.NewPacket(protocol.ServerChat).
		U16(uid).
		RawString(text).
		Bool(len(exclude) > 0).
		Packet()
	r.Broadcast(packet, exclude...)
}

// startCountdown arms the deferred game start unless one is already pending.
func (r *Room) startCountdown() {
	if r.countdown != nil {
		return
	}

	cd := &countdown{}
	delay := time.Duration(r.deps.CountdownSecs) * time.Second
	cd.cancel = r.deps.Schedule(delay, func() { r.fireCountdown(cd) })
	r.countdown = cd

	r.Broadcast(protocol.NewPacket(protocol.ServerStartCountdown).
		U8(1).
		U8(uint8(r.deps.CountdownSecs)).
		Packet())
}

// stopCountdown cancels a pending start. Safe to call when none is pending.
func (r *Room) stopCountdown() {
	if r.countdown == nil {
		return
	}

	r.countdown.cancel()
	r.countdown = nil
	r.Broadcast(protocol.NewPacket(protocol.ServerStartCountdown).U8(0).Packet())
}

// fireCountdown runs on the timer goroutine. A countdown that was cancelled or
// replaced no longer matches r.countdown and does nothing.
func (r *Room) fireCountdown(cd *countdown) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.countdown != cd {
		return
	}
	r.startGame()
}

func (r *Room) startGame() {
	r.countdown = nil

	r.reset()
	if !r.variant.OnGameStart() {
		log.Info().Int("room", r.id).Msg("[Room] game could not start")
		return
	}

	r.playing = true
	r.gameID = uuid.New()
	log.Info().Int("room", r.id).Str("game", r.gameID.String()).Int("players", len(r.players)).Msg("[Room] game started")

	r.Broadcast(protocol.NewPacket(protocol.ServerStart).Packet())
	r.publish(events.GameStarted, false, false)
}

func (r *Room) reset() {
	r.playing = false
	for _, uid := range r.joined {
		r.players[uid].Reset()
	}
	r.variant.Reset()
}

// FinishGame ends the running game, resets every player and notifies the
// room. Called from a Variant.
func (r *Room) FinishGame(forced bool) {
	r.publish(events.GameEnded, forced, true)
	r.gameID = uuid.Nil

	r.reset()
	log.Info().Int("room", r.id).Bool("forced", forced).Msg("[Room] game ended")
	r.Broadcast(protocol.NewPacket(protocol.ServerEnd).Bool(forced).Packet())
}

func (r *Room) publish(kind events.Kind, forced, scored bool) {
	if r.deps.Events == nil || r.gameID == uuid.Nil {
		return
	}
	players := make([]events.Participant, 0, len(r.joined))
	for _, uid := range r.joined {
		p := events.Participant{UID: uid, Name: r.deps.Users.Name(uid)}
		if scored {
			p.Score = r.variant.Score(r.players[uid])
		}
		players = append(players, p)
	}
	ev := events.Event{
		Kind:     kind,
		GameID:   r.gameID,
		RoomID:   r.id,
		GameType: r.gameType.String(),
		Forced:   forced,
		Players:  players,
		At:       time.Now(),
	}
	if !r.deps.Events.Publish(ev) {
		log.Warn().Int("room", r.id).Str("kind", string(kind)).Msg("[Room] event bus full, dropping event")
	}
}

// snapshot encodes the INIT packet for a newly added member.
func (r *Room) snapshot() []byte {
	w := protocol.NewPacket(protocol.ServerInit).U8(uint8(r.gameType))

	w.Count(len(r.members))
	for _, uid := range r.members {
		w.U16(uid).String(r.deps.Users.Name(uid))
	}

	w.Count(len(r.joined))
	for _, uid := range r.joined {
		r.players[uid].Serialize(w)
	}

	r.variant.SerializeState(w)
	return w.Packet()
}

// Broadcast sends packet to every member not listed in exclude. A member
// whose send fails is disconnected asynchronously; delivery to the others
// continues. Called from a Variant.
func (r *Room) Broadcast(packet []byte, exclude ...uint16) {
	targets := slices.Clone(r.members)
	for _, uid := range targets {
		if slices.Contains(exclude, uid) {
			continue
		}
		r.SendTo(uid, packet)
	}
}

// SendTo sends packet to a single member. Called from a Variant.
func (r *Room) SendTo(uid uint16, packet []byte) {
	if err := r.deps.Sender.Send(uid, packet); err != nil {
		log.Warn().Int("room", r.id).Uint16("uid", uid).Err(err).Msg("[Room] send failed, dropping connection")
		go r.deps.Sender.Close(uid, "send failed")
	}
}

// Player returns uid's player record, or nil. Called from a Variant.
func (r *Room) Player(uid uint16) Player {
	return r.players[uid]
}

// Players lists players in join order. Called from a Variant.
func (r *Room) Players() []Player {
	list := make([]Player, 0, len(r.joined))
	for _, uid := range r.joined {
		list = append(list, r.players[uid])
	}
	return list
}

// PlayerIDs lists player uids in join order. Called from a Variant.
func (r *Room) PlayerIDs() []uint16 {
	return slices.Clone(r.joined)
}

// PlayerCount is called from a Variant.
func (r *Room) PlayerCount() int {
	return len(r.players)
}

// CountdownPending reports whether a start is scheduled. Called from a Variant.
func (r *Room) CountdownPending() bool {
	return r.countdown != nil
}
