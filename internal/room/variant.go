package room

import (
	"time"

	"partygames/internal/events"
	"partygames/internal/protocol"
)

// Player is a room member who has joined the game.
type Player interface {
	UID() uint16
	// Reset reinitializes the player for a fresh game.
	Reset()
	// Serialize writes the player's part of the room snapshot.
	Serialize(w *protocol.Writer)
}

// Variant is the game played in a room. The room calls every method with its
// lock held, so a variant may freely use the room's unlocked helpers
// (Broadcast, SendTo, Players, FinishGame, ...) but must not call back into
// the locked entry points.
type Variant interface {
	// NewPlayer returns nil when the game does not accept players right now.
	NewPlayer(uid uint16) Player
	// Reset restores the variant's own state. Players are reset by the room.
	Reset()
	// OnGameStart deals or arranges the new game. Returning false keeps the
	// room waiting and suppresses the start notification.
	OnGameStart() bool
	// OnPlayerRemoved runs after uid's Player has been dropped.
	OnPlayerRemoved(uid uint16)
	HandleRequest(uid uint16, op protocol.ClientOp, payload []byte)
	// SerializeState writes the variant fields that follow the player list
	// in the room snapshot.
	SerializeState(w *protocol.Writer)
	// Score summarizes how p did, for game history.
	Score(p Player) int
}

// Factory builds the variant for a freshly created room.
type Factory func(r *Room) Variant

// Sender delivers packets to connections.
type Sender interface {
	Send(uid uint16, packet []byte) error
	Close(uid uint16, reason string)
}

// Directory resolves display names for the room snapshot.
type Directory interface {
	Name(uid uint16) string
}

// Scheduler runs fn once after d and returns a function that cancels it. The
// cancel function reports whether fn was prevented from running.
type Scheduler func(d time.Duration, fn func()) (cancel func() bool)

func afterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// Deps are the collaborators shared by every room.
type Deps struct {
	Sender        Sender
	Users         Directory
	Events        *events.Bus // optional
	CountdownSecs int
	Schedule      Scheduler // nil means time.AfterFunc
}
