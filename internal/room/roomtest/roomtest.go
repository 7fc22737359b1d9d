// Package roomtest provides in-memory collaborators for driving rooms in tests.
package roomtest

import (
	"sync"
	"time"

	"partygames/internal/protocol"
	"partygames/internal/wshub"
)

// Sender records every packet per uid.
type Sender struct {
	mu      sync.Mutex
	packets map[uint16][][]byte
	failing map[uint16]bool
	closed  []uint16
}

func NewSender() *Sender {
	return &Sender{
		packets: make(map[uint16][][]byte),
		failing: make(map[uint16]bool),
	}
}

func (s *Sender) Send(uid uint16, packet []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[uid] {
		return wshub.ErrBufferFull
	}
	s.packets[uid] = append(s.packets[uid], packet)
	return nil
}

func (s *Sender) Close(uid uint16, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, uid)
}

// Fail makes every later send to uid fail.
func (s *Sender) Fail(uid uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[uid] = true
}

func (s *Sender) Closed() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint16(nil), s.closed...)
}

// Packets returns everything sent to uid so far.
func (s *Sender) Packets(uid uint16) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.packets[uid]...)
}

// Ops returns the opcodes sent to uid so far.
func (s *Sender) Ops(uid uint16) []protocol.ServerOp {
	var ops []protocol.ServerOp
	for _, p := range s.Packets(uid) {
		ops = append(ops, protocol.ServerOp(p[0]))
	}
	return ops
}

// Last returns the payload of the most recent packet with opcode op sent to
// uid, and whether there was one.
func (s *Sender) Last(uid uint16, op protocol.ServerOp) ([]byte, bool) {
	packets := s.Packets(uid)
	for i := len(packets) - 1; i >= 0; i-- {
		if protocol.ServerOp(packets[i][0]) == op {
			return packets[i][1:], true
		}
	}
	return nil, false
}

// Count returns how many packets with opcode op uid received.
func (s *Sender) Count(uid uint16, op protocol.ServerOp) int {
	n := 0
	for _, got := range s.Ops(uid) {
		if got == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded packets.
func (s *Sender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = make(map[uint16][][]byte)
}

// Names is a fixed name directory.
type Names map[uint16]string

func (n Names) Name(uid uint16) string {
	return n[uid]
}

// Scheduler captures deferred functions so tests decide when they run.
type Scheduler struct {
	mu      sync.Mutex
	pending []*task
}

type task struct {
	fn        func()
	cancelled bool
	done      bool
}

func (s *Scheduler) Schedule(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &task{fn: fn}
	s.pending = append(s.pending, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.done || t.cancelled {
			return false
		}
		t.cancelled = true
		return true
	}
}

// Pending reports how many scheduled functions are neither run nor cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.done && !t.cancelled {
			n++
		}
	}
	return n
}

// Fire runs every pending function, as if their delay had elapsed.
func (s *Scheduler) Fire() {
	s.mu.Lock()
	var run []*task
	for _, t := range s.pending {
		if !t.done && !t.cancelled {
			t.done = true
			run = append(run, t)
		}
	}
	s.mu.Unlock()

	for _, t := range run {
		t.fn()
	}
}

// FireAll runs every function ever scheduled that has not run yet, including
// cancelled ones. It simulates a timer whose cancellation lost the race.
func (s *Scheduler) FireAll() {
	s.mu.Lock()
	var run []*task
	for _, t := range s.pending {
		if !t.done {
			t.done = true
			run = append(run, t)
		}
	}
	s.mu.Unlock()

	for _, t := range run {
		t.fn()
	}
}
