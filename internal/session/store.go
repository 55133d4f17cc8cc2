package session

import (
	"sync"
)

// Store holds the latest published State for readers outside the
// timeline goroutine, such as HTTP handlers.
type Store struct {
	mu      sync.RWMutex
	state   *State
	version uint64
}

func NewStore() *Store {
	return &Store{state: &State{}}
}

// Get returns a copy of the latest state.
func (s *Store) Get() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Version increases with every Update.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Update(state *State) {
	c := state.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = c
	s.version++
}
