// Package guessword implements the rotating question game: every player gets
// a word from the player before them in turn order and takes turns guessing
// it, while the others vote on whether each guess is close.
package guessword

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"partygames/internal/protocol"
	"partygames/internal/room"
)

type State uint8

const (
	Waiting State = iota
	Preparing
	Guessing
	Voting
)

const (
	maxQuestionPayload = 256 // lock byte + 255 bytes of text
	maxGuessPayload    = 255
)

const (
	voteAbstain uint8 = iota
	voteYes
	voteNo
)

type vote struct {
	uid   uint16
	value uint8
}

type Game struct {
	room *room.Room

	state     State
	round     int16
	order     []uint16
	cur       int
	votes     []vote
	tempGuess string
}

// New is a room.Factory.
func New(r *room.Room) room.Variant {
	g := &Game{room: r}
	g.Reset()
	return g
}

func (g *Game) Reset() {
	g.state = Waiting
	g.round = 0
	g.order = nil
	g.cur = 0
	g.votes = nil
	g.tempGuess = ""
}

func (g *Game) NewPlayer(uid uint16) room.Player {
	if g.state != Waiting {
		return nil
	}
	return newPlayer(uid)
}

func (g *Game) player(uid uint16) *Player {
	p, _ := g.room.Player(uid).(*Player)
	return p
}

func (g *Game) OnGameStart() bool {
	g.round = 1
	g.state = Preparing

	g.order = g.room.PlayerIDs()
	shuffle(g.order)
	g.cur = 0

	g.broadcastOrder(true)
	return true
}

func (g *Game) OnPlayerRemoved(uid uint16) {
	if g.state != Waiting {
		if g.room.PlayerCount() < 2 {
			g.room.FinishGame(true)
			return
		}

		i := slices.Index(g.order, uid)
		if i >= 0 {
			g.order = slices.Delete(g.order, i, i+1)
			switch {
			case g.state == Preparing:
				// Nobody has guessed yet, the first player keeps the turn.
				g.broadcastOrder(false)
			case i <= g.cur:
				g.cur--
				if i > g.cur {
					// the current guesser left
					g.advance()
				} else {
					g.broadcastOrder(false)
				}
			}
		}
	}

	g.votes = slices.DeleteFunc(g.votes, func(v vote) bool { return v.uid == uid })

	g.checkAllQuestionsGiven()
	g.checkAllVotes()
}

func (g *Game) Score(p room.Player) int {
	if gp, ok := p.(*Player); ok {
		return int(gp.SuccessRound)
	}
	return 0
}

func (g *Game) guesser() uint16 {
	if g.cur < 0 || g.cur >= len(g.order) {
		return 0
	}
	return g.order[g.cur]
}

func (g *Game) checkAllQuestionsGiven() {
	if g.state != Preparing {
		return
	}
	for _, p := range g.room.Players() {
		if !p.(*Player).Locked {
			return
		}
	}

	g.state = Guessing
	g.broadcastState()
}

func (g *Game) checkAllVotes() {
	if g.state != Voting {
		return
	}
	if len(g.votes) < g.voters() {
		return
	}

	yes, no := 0, 0
	for _, v := range g.votes {
		switch v.value {
		case voteYes:
			yes++
		case voteNo:
			no++
		}
	}

	if yes == no {
		// The guess does not count; the same player guesses again.
		g.cur--
		g.room.Broadcast(protocol.NewPacket(protocol.ServerGuessAgain).Packet())
	} else {
		uid := g.guesser()
		accepted := yes > no
		if p := g.player(uid); p != nil {
			p.History = append(p.History, guess{text: g.tempGuess, accepted: accepted})
		}
		g.room.Broadcast(protocol.NewPacket(protocol.ServerGuessRecord).
			U16(uid).
			String(g.tempGuess).
			Bool(accepted).
			Packet())
	}

	g.advance()
}

// voters counts the players whose vote closes a poll: everyone still
// guessing except the current guesser.
func (g *Game) voters() int {
	n := 0
	guesser := g.guesser()
	for _, p := range g.room.Players() {
		if gp := p.(*Player); gp.UID() != guesser && !gp.Done() {
			n++
		}
	}
	return n
}

// advance hands the turn to the next player still guessing, wrapping into a
// new round past the end of the order. The game ends once nobody is left.
func (g *Game) advance() {
	g.tempGuess = ""
	g.votes = nil

	for range len(g.order) {
		g.cur++
		if g.cur >= len(g.order) {
			g.round++
			g.cur = 0
		}

		p := g.player(g.order[g.cur])
		if p == nil || p.Done() {
			continue
		}

		g.state = Guessing
		g.broadcastOrder(false)
		g.broadcastState()
		return
	}

	g.room.FinishGame(false)
}

func (g *Game) HandleRequest(uid uint16, op protocol.ClientOp, payload []byte) {
	switch op {
	case protocol.ClientQuestion:
		if len(payload) == 0 || len(payload) > maxQuestionPayload || !utf8.Valid(payload[1:]) {
			return
		}
		g.assignQuestion(uid, strings.TrimSpace(string(payload[1:])), payload[0] == 1)
	case protocol.ClientGuess:
		if len(payload) > maxGuessPayload || !utf8.Valid(payload) {
			return
		}
		g.guess(uid, strings.TrimSpace(string(payload)))
	case protocol.ClientVote:
		v := protocol.Uint(payload)
		if v > uint64(voteNo) {
			return
		}
		g.vote(uid, uint8(v))
	case protocol.ClientGiveUp:
		g.giveUp(uid)
	}
}

// assignQuestion sets the word of the player after uid in turn order.
func (g *Game) assignQuestion(uid uint16, word string, locked bool) {
	if g.state != Preparing {
		return
	}
	i := slices.Index(g.order, uid)
	if i < 0 || g.player(uid) == nil {
		return
	}

	target := g.player(g.order[(i+1)%len(g.order)])
	if target == nil {
		return
	}
	if word == "" || (word == target.Question && locked == target.Locked) {
		return
	}

	target.Question = word
	target.Locked = locked
	log.Info().Int("room", g.room.ID()).Uint16("uid", uid).Uint16("target", target.UID()).
		Bool("locked", locked).Msg("[GuessWord] question assigned")

	g.broadcastQuestion(target)
	g.checkAllQuestionsGiven()
}

func (g *Game) guess(uid uint16, text string) {
	if g.state != Guessing || uid != g.guesser() {
		return
	}
	p := g.player(uid)
	if p == nil {
		return
	}

	if text == "" {
		p.Skipped++
		g.room.Broadcast(protocol.NewPacket(protocol.ServerSkipGuess).U16(uid).Packet())
		g.advance()
		return
	}

	if strings.ToLower(text) == strings.ToLower(p.Question) {
		p.SuccessRound = g.round - p.Skipped
		g.broadcastSuccess(uid, p.SuccessRound, text)
		g.advance()
		return
	}

	g.tempGuess = text
	g.votes = nil
	g.state = Voting
	log.Info().Int("room", g.room.ID()).Uint16("uid", uid).Str("guess", text).Msg("[GuessWord] guess submitted")

	g.room.Broadcast(protocol.NewPacket(protocol.ServerGuess).String(text).Packet())
	// nobody left to vote
	g.checkAllVotes()
}

func (g *Game) vote(uid uint16, value uint8) {
	if g.state != Voting {
		return
	}
	p := g.player(uid)
	if p == nil || p.Done() || uid == g.guesser() {
		return
	}

	i := slices.IndexFunc(g.votes, func(v vote) bool { return v.uid == uid })
	if i >= 0 {
		g.votes[i].value = value
	} else {
		g.votes = append(g.votes, vote{uid: uid, value: value})
	}
	log.Debug().Int("room", g.room.ID()).Uint16("uid", uid).Uint8("vote", value).Msg("[GuessWord] vote")

	g.room.Broadcast(protocol.NewPacket(protocol.ServerVote).U16(uid).U8(value).Packet())
	g.checkAllVotes()
}

func (g *Game) giveUp(uid uint16) {
	if g.state != Guessing || uid != g.guesser() {
		return
	}
	p := g.player(uid)
	if p == nil {
		return
	}

	p.SuccessRound = -1
	g.broadcastSuccess(uid, -1, p.Question)
	g.advance()
}

func (g *Game) SerializeState(w *protocol.Writer) {
	w.U8(uint8(g.state))
	w.Count(len(g.order))
	for _, uid := range g.order {
		w.U16(uid)
	}
	w.U8(uint8(g.cur))
	w.String(g.tempGuess)
	w.Count(len(g.votes))
	for _, v := range g.votes {
		w.U16(v.uid).U8(v.value)
	}
}

func (g *Game) broadcastState() {
	g.room.Broadcast(protocol.NewPacket(protocol.ServerGameState).U8(uint8(g.state)).Packet())
}

func (g *Game) broadcastOrder(withList bool) {
	w := protocol.NewPacket(protocol.ServerPlayerOrder).U8(uint8(g.cur)).Bool(withList)
	if withList {
		w.Count(len(g.order))
		for _, uid := range g.order {
			w.U16(uid)
		}
	}
	g.room.Broadcast(w.Packet())
}

// broadcastQuestion shows the word to everyone except its owner, who only
// learns that a word was set.
func (g *Game) broadcastQuestion(p *Player) {
	full := protocol.NewPacket(protocol.ServerQuestion).
		U16(p.UID()).
		Bool(p.Locked).
		String(p.Question).
		Packet()
	g.room.Broadcast(full, p.UID())

	hidden := protocol.NewPacket(protocol.ServerQuestion).U16(p.UID()).Bool(p.Locked).Packet()
	g.room.SendTo(p.UID(), hidden)
}

func (g *Game) broadcastSuccess(uid uint16, round int16, answer string) {
	g.room.Broadcast(protocol.NewPacket(protocol.ServerSuccess).
		U16(uid).
		I16(round).
		String(answer).
		Packet())
}
