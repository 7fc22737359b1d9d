package idgen

import (
	"math/rand/v2"
	"sync"
)

// Pool draws identifiers uniformly at random from [1, max].
//
// A non-zero quota caps the number of successful generations over the
// lifetime of the pool. Releasing an identifier puts it back in the pool but
// does not give the quota back.
type Pool struct {
	mu    sync.Mutex
	ids   []int
	quota int
	used  int
}

func NewPool(max, quota int) *Pool {
	ids := make([]int, max)
	for i := range ids {
		ids[i] = i + 1
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return &Pool{ids: ids, quota: quota}
}

func (p *Pool) Generate() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.ids) == 0 {
		return -1, ErrExhausted
	}
	if p.quota > 0 && p.used >= p.quota {
		return -1, ErrExhausted
	}

	last := len(p.ids) - 1
	i := rand.IntN(len(p.ids))
	p.ids[i], p.ids[last] = p.ids[last], p.ids[i]
	id := p.ids[last]
	p.ids = p.ids[:last]
	p.used++
	return id, nil
}

func (p *Pool) Release(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
}

// Remaining reports how many more identifiers Generate can hand out right now.
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.ids)
	if p.quota > 0 && p.quota-p.used < n {
		n = p.quota - p.used
	}
	return n
}
