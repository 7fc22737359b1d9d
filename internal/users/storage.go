package users

import (
	"sync"
)

// NoRoom is the RoomID of a user that is not in any room.
const NoRoom = -1

type User struct {
	UID            uint16
	Name           string
	VersionChecked bool
	RoomID         int
}

// Store holds every connected user. Accessors return copies so callers never
// share a record with another connection's goroutine.
type Store struct {
	mu    sync.Mutex
	users map[uint16]*User
}

func NewStore() *Store {
	return &Store{
		users: make(map[uint16]*User),
	}
}

func (s *Store) Add(uid uint16) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &User{UID: uid, RoomID: NoRoom}
	s.users[uid] = u
	return *u
}

func (s *Store) Get(uid uint16) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[uid]; ok {
		return *u, true
	}
	return User{}, false
}

func (s *Store) Remove(uid uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, uid)
}

// Name returns the display name of uid, or "" when unknown.
func (s *Store) Name(uid uint16) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[uid]; ok {
		return u.Name
	}
	return ""
}

func (s *Store) SetName(uid uint16, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[uid]; ok {
		u.Name = name
	}
}

func (s *Store) SetRoom(uid uint16, roomID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[uid]; ok {
		u.RoomID = roomID
	}
}

func (s *Store) MarkVersionChecked(uid uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[uid]; ok {
		u.VersionChecked = true
	}
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
