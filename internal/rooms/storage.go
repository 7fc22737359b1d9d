package rooms

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"partygames/internal/arrangenumber"
	"partygames/internal/guessword"
	"partygames/internal/idgen"
	"partygames/internal/protocol"
	"partygames/internal/room"
)

var (
	ErrUnknownGameType = errors.New("unknown game type")
	ErrRoomLimit       = errors.New("room limit reached")
)

var factories = map[protocol.GameType]room.Factory{
	protocol.GuessWord:     guessword.New,
	protocol.ArrangeNumber: arrangenumber.New,
}

type Store struct {
	mu    sync.Mutex
	rooms map[int]*room.Room
	ids   *idgen.Pool
	deps  room.Deps
}

func NewStore(ids *idgen.Pool, deps room.Deps) *Store {
	return &Store{
		rooms: make(map[int]*room.Room),
		ids:   ids,
		deps:  deps,
	}
}

// Create opens a room of the given game type under a fresh id.
func (s *Store) Create(gameType protocol.GameType) (*room.Room, error) {
	factory, ok := factories[gameType]
	if !ok {
		return nil, fmt.Errorf("creating room of type %d: %w", gameType, ErrUnknownGameType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("allocating room id: %w", errors.Join(ErrRoomLimit, err))
	}

	r := room.New(id, gameType, s.deps, factory)
	s.rooms[id] = r
	log.Info().Int("room", id).Str("game_type", gameType.String()).Msg("[Rooms] room created")
	return r, nil
}

func (s *Store) Get(id int) *room.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

// Delete removes the room and returns its id to the pool.
func (s *Store) Delete(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return
	}
	delete(s.rooms, id)
	s.ids.Release(id)
	log.Info().Int("room", id).Msg("[Rooms] room removed")
}

// DeleteIfEmpty removes the room only when nobody is in it.
func (s *Store) DeleteIfEmpty(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok || !r.IsEmpty() {
		return false
	}
	delete(s.rooms, id)
	s.ids.Release(id)
	log.Info().Int("room", id).Msg("[Rooms] room removed")
	return true
}

// List returns the rooms ordered by id.
func (s *Store) List() []*room.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*room.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
