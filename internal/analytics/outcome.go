package analytics

import "partygames/internal/protocol"

// Evaluate derives the outcome of a finished game from its recorded scores.
//
// In the guess-word game the score is the round a player found their word
// in (-1 gave up, 0 never found it), so the lowest positive round wins. The
// number game is cooperative: the table clears it when nobody holds a
// number at the end.
func Evaluate(g *GameRecap) {
	g.Winners = nil
	g.Cleared = false
	if g.EndedAt == nil || g.Forced {
		return
	}

	switch g.GameType {
	case protocol.GuessWord.String():
		best := 0
		for _, p := range g.Players {
			if p.Score > 0 && (best == 0 || p.Score < best) {
				best = p.Score
			}
		}
		if best == 0 {
			return
		}
		for _, p := range g.Players {
			if p.Score == best {
				g.Winners = append(g.Winners, p.Name)
			}
		}
	case protocol.ArrangeNumber.String():
		if len(g.Players) == 0 {
			return
		}
		for _, p := range g.Players {
			if p.Score > 0 {
				return
			}
		}
		g.Cleared = true
	}
}
