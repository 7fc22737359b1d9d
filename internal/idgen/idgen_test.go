package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerial_Sequential(t *testing.T) {
	s := NewSerial(10)
	for want := 1; want <= 3; want++ {
		id, err := s.Generate()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestSerial_ReusesSmallestReleased(t *testing.T) {
	s := NewSerial(10)
	for range 5 {
		s.Generate()
	}
	s.Release(4)
	s.Release(2)

	id, _ := s.Generate()
	assert.Equal(t, 2, id)
	id, _ = s.Generate()
	assert.Equal(t, 4, id)
	id, _ = s.Generate()
	assert.Equal(t, 6, id)
}

func TestSerial_ExhaustedUntilRelease(t *testing.T) {
	s := NewSerial(3)
	for range 3 {
		_, err := s.Generate()
		require.NoError(t, err)
	}

	id, err := s.Generate()
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, -1, id)
	_, err = s.Generate()
	assert.ErrorIs(t, err, ErrExhausted)

	s.Release(2)
	id, err = s.Generate()
	require.NoError(t, err)
	assert.Equal(t, 2, id)
}

func TestSerial_NoDuplicateLiveIDs(t *testing.T) {
	s := NewSerial(100)
	live := make(map[int]bool)
	for i := range 500 {
		id, err := s.Generate()
		require.NoError(t, err)
		require.False(t, live[id], "id %d issued twice", id)
		live[id] = true
		if i%3 == 0 {
			s.Release(id)
			delete(live, id)
		}
	}
}

func TestSerial_ConcurrentGenerate(t *testing.T) {
	s := NewSerial(1000)
	var mu sync.Mutex
	seen := make(map[int]bool)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				id, err := s.Generate()
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 500)
}

func TestPool_RangeAndUniqueness(t *testing.T) {
	p := NewPool(50, 0)
	seen := make(map[int]bool)
	for range 50 {
		id, err := p.Generate()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, id, 1)
		assert.LessOrEqual(t, id, 50)
		assert.False(t, seen[id])
		seen[id] = true
	}
	_, err := p.Generate()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestPool_ReleaseReturnsID(t *testing.T) {
	p := NewPool(1, 0)
	id, err := p.Generate()
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	_, err = p.Generate()
	require.ErrorIs(t, err, ErrExhausted)

	p.Release(id)
	id, err = p.Generate()
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestPool_QuotaNotRestoredByRelease(t *testing.T) {
	p := NewPool(99999, 100)
	for range 100 {
		id, err := p.Generate()
		require.NoError(t, err)
		p.Release(id)
	}

	id, err := p.Generate()
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, -1, id)
	assert.Equal(t, 0, p.Remaining())
}

func TestPool_Remaining(t *testing.T) {
	p := NewPool(10, 4)
	assert.Equal(t, 4, p.Remaining())
	p.Generate()
	assert.Equal(t, 3, p.Remaining())

	unlimited := NewPool(10, 0)
	unlimited.Generate()
	assert.Equal(t, 9, unlimited.Remaining())
}
