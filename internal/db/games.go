package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"partygames/internal/events"
)

type GameRecord struct {
	ID        uuid.UUID
	RoomID    int
	GameType  string
	StartedAt time.Time
	EndedAt   *time.Time
	Forced    bool
}

type GamePlayer struct {
	UID   int
	Name  string
	Score int
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

const createGameSQL = `
	INSERT INTO games (id, room_id, game_type, started_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO NOTHING
`

// endGameSQL also creates the row when the start was never recorded.
const endGameSQL = `
	INSERT INTO games (id, room_id, game_type, started_at, ended_at, forced)
	VALUES ($1, $2, $3, $4, $4, $5)
	ON CONFLICT (id) DO UPDATE SET ended_at = $4, forced = $5
`

const addGamePlayerSQL = `
	INSERT INTO game_players (game_id, uid, name, score)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (game_id, uid) DO UPDATE SET name = $3, score = $4
`

func (d *DB) CreateGame(id uuid.UUID, roomID int, gameType string, startedAt time.Time) error {
	if _, err := d.conn.Exec(createGameSQL, id, roomID, gameType, startedAt); err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

func (d *DB) EndGame(id uuid.UUID, roomID int, gameType string, forced bool, endedAt time.Time) error {
	if _, err := d.conn.Exec(endGameSQL, id, roomID, gameType, endedAt, forced); err != nil {
		return fmt.Errorf("ending game: %w", err)
	}
	return nil
}

func (d *DB) AddGamePlayer(id uuid.UUID, uid int, name string, score int) error {
	if _, err := d.conn.Exec(addGamePlayerSQL, id, uid, name, score); err != nil {
		return fmt.Errorf("adding game player: %w", err)
	}
	return nil
}

// BatchRecordEvents writes a batch of lifecycle events in one transaction.
func (d *DB) BatchRecordEvents(evs []events.Event) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ev := range evs {
		if err := recordEvent(tx, ev); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func recordEvent(tx execer, ev events.Event) error {
	switch ev.Kind {
	case events.GameStarted:
		if _, err := tx.Exec(createGameSQL, ev.GameID, ev.RoomID, ev.GameType, ev.At); err != nil {
			return fmt.Errorf("recording game start in batch: %w", err)
		}
	case events.GameEnded:
		if _, err := tx.Exec(endGameSQL, ev.GameID, ev.RoomID, ev.GameType, ev.At, ev.Forced); err != nil {
			return fmt.Errorf("recording game end in batch: %w", err)
		}
		for _, p := range ev.Players {
			if _, err := tx.Exec(addGamePlayerSQL, ev.GameID, int(p.UID), p.Name, p.Score); err != nil {
				return fmt.Errorf("recording game player in batch: %w", err)
			}
		}
	}
	return nil
}

func (d *DB) GetGame(id uuid.UUID) (*GameRecord, error) {
	var g GameRecord
	err := d.conn.QueryRow(`
		SELECT id, room_id, game_type, started_at, ended_at, forced FROM games WHERE id = $1
	`, id).Scan(&g.ID, &g.RoomID, &g.GameType, &g.StartedAt, &g.EndedAt, &g.Forced)
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}
	return &g, nil
}

func (d *DB) GetGamePlayers(id uuid.UUID) ([]GamePlayer, error) {
	rows, err := d.conn.Query(`
		SELECT uid, name, score FROM game_players WHERE game_id = $1 ORDER BY uid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("getting game players: %w", err)
	}
	defer rows.Close()

	var players []GamePlayer
	for rows.Next() {
		var p GamePlayer
		if err := rows.Scan(&p.UID, &p.Name, &p.Score); err != nil {
			return nil, fmt.Errorf("scanning game player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
