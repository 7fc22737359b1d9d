package guessword

import (
	"math/rand/v2"

	"partygames/internal/protocol"
)

type guess struct {
	text     string
	accepted bool
}

// Player is a participant of the guess-word game.
type Player struct {
	uid uint16

	Question     string
	Locked       bool
	History      []guess
	SuccessRound int16 // 0 still guessing, >0 round of success, -1 gave up
	Skipped      int16
}

func newPlayer(uid uint16) *Player {
	p := &Player{uid: uid}
	p.Reset()
	return p
}

func (p *Player) UID() uint16 {
	return p.uid
}

func (p *Player) Reset() {
	p.Question = ""
	p.Locked = false
	p.History = nil
	p.SuccessRound = 0
	p.Skipped = 0
}

func (p *Player) Serialize(w *protocol.Writer) {
	w.U16(p.uid).String(p.Question)
	w.Count(len(p.History))
	for _, g := range p.History {
		w.String(g.text).Bool(g.accepted)
	}
	w.I16(p.SuccessRound)
}

// Done reports whether the player no longer takes turns.
func (p *Player) Done() bool {
	return p.SuccessRound != 0
}

func shuffle(uids []uint16) {
	rand.Shuffle(len(uids), func(i, j int) { uids[i], uids[j] = uids[j], uids[i] })
}
