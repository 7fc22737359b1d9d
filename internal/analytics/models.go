package analytics

import (
	"time"

	"github.com/google/uuid"
)

type GameTypeSummary struct {
	GameType    string  `json:"game_type"`
	GamesPlayed int     `json:"games_played"`
	GamesForced int     `json:"games_forced"`
	AvgPlayers  float64 `json:"avg_players"`
}

type PlayerResult struct {
	UID   int    `json:"uid"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameRecap struct {
	GameID    uuid.UUID      `json:"game_id"`
	RoomID    int            `json:"room_id"`
	GameType  string         `json:"game_type"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Forced    bool           `json:"forced"`
	Players   []PlayerResult `json:"players"`

	// Filled by Evaluate.
	Winners []string `json:"winners,omitempty"`
	Cleared bool     `json:"cleared,omitempty"`
}
