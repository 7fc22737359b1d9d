// Package arrangenumber implements the number bluffing game: everyone holds
// secret numbers and must play them in globally ascending order without
// talking about them. Playing a number while someone else holds a smaller
// one ends the game.
package arrangenumber

import (
	"math/rand/v2"
	"slices"

	"github.com/rs/zerolog/log"

	"partygames/internal/protocol"
	"partygames/internal/room"
)

type State uint8

const (
	Waiting State = iota
	Playing
)

// Setting bounds.
const (
	MinMaxNumber      = 10
	MaxMaxNumber      = 1000
	MaxGroupCount     = 50
	MinNumberPerPlay  = 1
	MaxNumberPerPlay  = 20
	defaultMaxNumber  = 100
	defaultGroupCount = 1
	defaultPerPlayer  = 1
)

// PLAYER_NUMBERS modes.
const (
	numbersSelf uint8 = 0
	numbersAll  uint8 = 1
)

// Settings survive between games; only the game state is reset.
type Settings struct {
	MaxNumber       int
	GroupCount      int // 0 draws every number independently
	NumberPerPlayer int
}

type Game struct {
	room *room.Room

	settings Settings

	state         State
	lastPlayer    uint16
	currentNumber int
}

// New is a room.Factory.
func New(r *room.Room) room.Variant {
	g := &Game{
		room: r,
		settings: Settings{
			MaxNumber:       defaultMaxNumber,
			GroupCount:      defaultGroupCount,
			NumberPerPlayer: defaultPerPlayer,
		},
	}
	g.Reset()
	return g
}

func (g *Game) Settings() Settings {
	return g.settings
}

func (g *Game) Reset() {
	g.state = Waiting
	g.lastPlayer = 0
	g.currentNumber = 0
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

func (g *Game) players() []*Player {
	list := make([]*Player, 0, g.room.PlayerCount())
	for _, p := range g.room.Players() {
		list = append(list, p.(*Player))
	}
	return list
}

func (g *Game) OnGameStart() bool {
	players := g.players()
	if !deal(players, g.settings) {
		return false
	}

	g.state = Playing

	for _, p := range players {
		g.sendOwnNumbers(p)
	}
	// spectators see every hand
	g.room.Broadcast(g.allNumbersPacket(), g.room.PlayerIDs()...)
	return true
}

// deal hands out NumberPerPlayer numbers to every player and sorts each hand
// in descending order so the smallest number sits at the end. It fails when
// a limited pool cannot cover everyone.
func deal(players []*Player, s Settings) bool {
	if s.GroupCount == 0 {
		for _, p := range players {
			for range s.NumberPerPlayer {
				p.Numbers = append(p.Numbers, rand.IntN(s.MaxNumber)+1)
			}
		}
	} else {
		if s.GroupCount*s.MaxNumber < len(players)*s.NumberPerPlayer {
			return false
		}

		pool := make([]int, 0, s.GroupCount*s.MaxNumber)
		for range s.GroupCount {
			for n := 1; n <= s.MaxNumber; n++ {
				pool = append(pool, n)
			}
		}
		for _, p := range players {
			for range s.NumberPerPlayer {
				last := len(pool) - 1
				i := rand.IntN(len(pool))
				pool[i], pool[last] = pool[last], pool[i]
				p.Numbers = append(p.Numbers, pool[last])
				pool = pool[:last]
			}
		}
	}

	for _, p := range players {
		slices.Sort(p.Numbers)
		slices.Reverse(p.Numbers)
	}
	return true
}

func (g *Game) OnPlayerRemoved(uid uint16) {
	if g.state == Waiting {
		return
	}
	if g.room.PlayerCount() < 2 {
		g.end(true)
		return
	}
	g.checkNumbersLeft()
}

func (g *Game) Score(p room.Player) int {
	if ap, ok := p.(*Player); ok {
		return len(ap.Numbers)
	}
	return 0
}

// end reveals every hand and finishes the game.
func (g *Game) end(forced bool) {
	g.room.Broadcast(g.allNumbersPacket())
	g.room.FinishGame(forced)
}

func (g *Game) checkNumbersLeft() {
	for _, p := range g.players() {
		if len(p.Numbers) > 0 {
			return
		}
	}
	g.end(false)
}

func (g *Game) HandleRequest(uid uint16, op protocol.ClientOp, payload []byte) {
	switch op {
	case protocol.ClientSetMaxNumber:
		g.setMaxNumber(uid, int(protocol.Uint(payload)))
	case protocol.ClientSetNumberGroupCount:
		if len(payload) < 1 {
			return
		}
		g.setGroupCount(uid, int(payload[0]))
	case protocol.ClientSetNumberPerPlayer:
		if len(payload) < 1 {
			return
		}
		g.setNumberPerPlayer(uid, int(payload[0]))
	case protocol.ClientPoseNumber:
		g.poseNumber(uid)
	case protocol.ClientSetUrgent:
		if len(payload) < 1 {
			return
		}
		g.setUrgent(uid, payload[0] != 0)
	}
}

// canConfigure reports whether uid may change settings right now.
func (g *Game) canConfigure(uid uint16) bool {
	if g.state != Waiting || g.room.CountdownPending() {
		return false
	}
	return g.player(uid) != nil
}

func (g *Game) setMaxNumber(uid uint16, v int) {
	if v < MinMaxNumber || v > MaxMaxNumber || v == g.settings.MaxNumber {
		return
	}
	if !g.canConfigure(uid) {
		return
	}
	g.settings.MaxNumber = v
	g.logSetting(uid, "max_number", v)
	g.broadcastSettings()
}

func (g *Game) setGroupCount(uid uint16, v int) {
	if v < 0 || v > MaxGroupCount || v == g.settings.GroupCount {
		return
	}
	if !g.canConfigure(uid) {
		return
	}
	g.settings.GroupCount = v
	g.logSetting(uid, "group_count", v)
	g.broadcastSettings()
}

func (g *Game) setNumberPerPlayer(uid uint16, v int) {
	if v < MinNumberPerPlay || v > MaxNumberPerPlay || v == g.settings.NumberPerPlayer {
		return
	}
	if !g.canConfigure(uid) {
		return
	}
	g.settings.NumberPerPlayer = v
	g.logSetting(uid, "number_per_player", v)
	g.broadcastSettings()
}

func (g *Game) logSetting(uid uint16, key string, v int) {
	log.Info().Int("room", g.room.ID()).Uint16("uid", uid).Int(key, v).Msg("[ArrangeNumber] setting changed")
}

func (g *Game) poseNumber(uid uint16) {
	if g.state != Playing {
		return
	}
	p := g.player(uid)
	if p == nil || len(p.Numbers) == 0 {
		return
	}

	g.lastPlayer = uid
	g.currentNumber = p.pop()
	g.room.Broadcast(protocol.NewPacket(protocol.ServerPoseNumber).
		U16(g.lastPlayer).
		U16(uint16(g.currentNumber)).
		Packet())

	for _, other := range g.players() {
		if n, ok := other.lowest(); ok && n < g.currentNumber {
			log.Info().Int("room", g.room.ID()).Uint16("uid", uid).Int("number", g.currentNumber).
				Uint16("holder", other.UID()).Int("smaller", n).Msg("[ArrangeNumber] bust")
			g.end(false)
			return
		}
	}

	if len(p.Numbers) == 0 {
		if p.Urgent {
			p.Urgent = false
			g.broadcastUrgent(uid, false)
		}
		// players who are out may watch everyone else's hand
		g.sendAllNumbers(uid)
		g.checkNumbersLeft()
	}
}

func (g *Game) setUrgent(uid uint16, urgent bool) {
	if g.state != Playing {
		return
	}
	p := g.player(uid)
	if p == nil || p.Urgent == urgent || len(p.Numbers) == 0 {
		return
	}

	p.Urgent = urgent
	g.broadcastUrgent(uid, urgent)
}

func (g *Game) SerializeState(w *protocol.Writer) {
	w.U16(uint16(g.settings.MaxNumber)).
		U8(uint8(g.settings.GroupCount)).
		U8(uint8(g.settings.NumberPerPlayer)).
		U8(uint8(g.state)).
		U16(g.lastPlayer).
		U16(uint16(g.currentNumber))
}

func (g *Game) broadcastSettings() {
	g.room.Broadcast(protocol.NewPacket(protocol.ServerSettings).
		U16(uint16(g.settings.MaxNumber)).
		U8(uint8(g.settings.GroupCount)).
		U8(uint8(g.settings.NumberPerPlayer)).
		Packet())
}

func (g *Game) broadcastUrgent(uid uint16, urgent bool) {
	g.room.Broadcast(protocol.NewPacket(protocol.ServerUrgentPlayer).U16(uid).Bool(urgent).Packet())
}

func (g *Game) sendOwnNumbers(p *Player) {
	w := protocol.NewPacket(protocol.ServerPlayerNumbers).U8(numbersSelf)
	writeNumbers(w, p.Numbers)
	g.room.SendTo(p.UID(), w.Packet())
}

func (g *Game) sendAllNumbers(uid uint16) {
	g.room.SendTo(uid, g.allNumbersPacket())
}

func (g *Game) allNumbersPacket() []byte {
	players := g.players()
	w := protocol.NewPacket(protocol.ServerPlayerNumbers).U8(numbersAll)
	w.Count(len(players))
	for _, p := range players {
		w.U16(p.UID())
		writeNumbers(w, p.Numbers)
	}
	return w.Packet()
}

func writeNumbers(w *protocol.Writer, numbers []int) {
	w.Count(len(numbers))
	for _, n := range numbers {
		w.U16(uint16(n))
	}
}
