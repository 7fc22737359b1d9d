package idgen

import (
	"container/heap"
	"errors"
	"sync"
)

// ErrExhausted is returned when an allocator has no identifier left to hand out.
var ErrExhausted = errors.New("identifier space exhausted")

// intHeap is a min-heap of released identifiers.
type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Serial hands out increasing identifiers starting at 1, reissuing released
// ones (smallest first) before advancing the counter.
type Serial struct {
	mu     sync.Mutex
	serial int
	max    int
	free   intHeap
}

func NewSerial(max int) *Serial {
	return &Serial{max: max}
}

func (s *Serial) Generate() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.free.Len() > 0 {
		return heap.Pop(&s.free).(int), nil
	}
	if s.serial >= s.max {
		return -1, ErrExhausted
	}
	s.serial++
	return s.serial, nil
}

func (s *Serial) Release(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	heap.Push(&s.free, id)
}
