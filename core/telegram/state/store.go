package state

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the minimal interface the text router needs to dispatch
// free-form messages into an active dialog.
type Conversation interface {
	InProgress(userID int64) bool
	Handle(c tele.Context) error
}

// Store keeps per-user sessions of type T keyed by Telegram user id.
// A user without an entry has no active conversation.
type Store[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
}

// NewStore constructs an empty session store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{sessions: make(map[int64]T)}
}

// Get returns the session for a user and whether it exists.
func (s *Store[T]) Get(userID int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Put stores or replaces the session for a user.
func (s *Store[T]) Put(userID int64, sess T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

// Delete removes the session for a user.
func (s *Store[T]) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Has reports whether a session exists for the user.
func (s *Store[T]) Has(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[userID]
	return ok
}

// Len returns the number of active sessions.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
