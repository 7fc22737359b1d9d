package broadcast

import (
	"partygames/internal/events"
	"sync"
)

// Broadcaster fans game lifecycle events out to every subscriber.
type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan events.Event]bool
}

func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan events.Event]bool),
	}
	go func() {
		for ev := range bus.Events {
			b.Publish(ev)
		}
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan events.Event {
	ch := make(chan events.Event, 32)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan events.Event) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Publish(ev events.Event) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- ev:
		default:
			// skip subscribers that are not keeping up
		}
	}
}
