package analytics

import (
	"fmt"

	"github.com/google/uuid"

	"partygames/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

// Summary aggregates finished games per game type.
func (q *Queries) Summary() ([]GameTypeSummary, error) {
	rows, err := q.DB.Query(`
		SELECT
			g.game_type,
			COUNT(*) AS games_played,
			COUNT(*) FILTER (WHERE g.forced) AS games_forced,
			COALESCE(AVG(pc.players), 0) AS avg_players
		FROM games g
		LEFT JOIN (
			SELECT game_id, COUNT(*) AS players FROM game_players GROUP BY game_id
		) pc ON pc.game_id = g.id
		WHERE g.ended_at IS NOT NULL
		GROUP BY g.game_type
		ORDER BY g.game_type
	`)
	if err != nil {
		return nil, fmt.Errorf("getting summary: %w", err)
	}
	defer rows.Close()

	var summary []GameTypeSummary
	for rows.Next() {
		var s GameTypeSummary
		if err := rows.Scan(&s.GameType, &s.GamesPlayed, &s.GamesForced, &s.AvgPlayers); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		summary = append(summary, s)
	}
	return summary, rows.Err()
}

// RecentGames returns the latest finished games, newest first, with their
// players and evaluated outcome.
func (q *Queries) RecentGames(limit int) ([]GameRecap, error) {
	rows, err := q.DB.Query(`
		SELECT id FROM games
		WHERE ended_at IS NOT NULL
		ORDER BY ended_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("getting recent games: %w", err)
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning game id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recaps := make([]GameRecap, 0, len(ids))
	for _, id := range ids {
		recap, err := q.GetGameRecap(id)
		if err != nil {
			return nil, err
		}
		recaps = append(recaps, *recap)
	}
	return recaps, nil
}

func (q *Queries) GetGameRecap(id uuid.UUID) (*GameRecap, error) {
	game, err := q.DB.GetGame(id)
	if err != nil {
		return nil, err
	}
	players, err := q.DB.GetGamePlayers(id)
	if err != nil {
		return nil, err
	}

	recap := &GameRecap{
		GameID:    game.ID,
		RoomID:    game.RoomID,
		GameType:  game.GameType,
		StartedAt: game.StartedAt,
		EndedAt:   game.EndedAt,
		Forced:    game.Forced,
	}
	for _, p := range players {
		recap.Players = append(recap.Players, PlayerResult{UID: p.UID, Name: p.Name, Score: p.Score})
	}
	Evaluate(recap)
	return recap, nil
}
