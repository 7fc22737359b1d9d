package events

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	GameStarted Kind = "game_started"
	GameEnded   Kind = "game_ended"
)

// Participant is a player as seen by a game lifecycle event. Score is only
// meaningful on GameEnded and its meaning depends on the game type.
type Participant struct {
	UID   uint16 `json:"uid"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type Event struct {
	Kind     Kind          `json:"kind"`
	GameID   uuid.UUID     `json:"game_id"`
	RoomID   int           `json:"room_id"`
	GameType string        `json:"game_type"`
	Forced   bool          `json:"forced,omitempty"`
	Players  []Participant `json:"players"`
	At       time.Time     `json:"at"`
}

type Bus struct {
	Events chan Event
}

func NewBus() *Bus {
	return &Bus{
		Events: make(chan Event, 64),
	}
}

// Publish queues ev without blocking. It reports false when the event was
// dropped because the bus is full or nil.
func (b *Bus) Publish(ev Event) bool {
	if b == nil {
		return false
	}
	select {
	case b.Events <- ev:
		return true
	default:
		return false
	}
}
