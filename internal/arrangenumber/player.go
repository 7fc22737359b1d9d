package arrangenumber

import "partygames/internal/protocol"

// Player holds a hand sorted in descending order; the next number to pose
// is always the last one.
type Player struct {
	uid uint16

	Numbers []int
	Urgent  bool
}

func newPlayer(uid uint16) *Player {
	return &Player{uid: uid}
}

func (p *Player) UID() uint16 {
	return p.uid
}

func (p *Player) Reset() {
	p.Numbers = nil
	p.Urgent = false
}

// Serialize writes the full hand. Snapshots only go to users who just
// joined the room, and those are spectators who may see every hand.
func (p *Player) Serialize(w *protocol.Writer) {
	w.U16(p.uid)
	writeNumbers(w, p.Numbers)
	w.Bool(p.Urgent)
}

func (p *Player) lowest() (int, bool) {
	if len(p.Numbers) == 0 {
		return 0, false
	}
	return p.Numbers[len(p.Numbers)-1], true
}

func (p *Player) pop() int {
	n := p.Numbers[len(p.Numbers)-1]
	p.Numbers = p.Numbers[:len(p.Numbers)-1]
	return n
}
