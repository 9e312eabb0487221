package session

import (
	"sync"
	"time"
)

// DefaultMaxTurns is the per-user history bound.
const DefaultMaxTurns = 20

// TurnStore keeps a bounded, per-user conversation history in memory.
type TurnStore struct {
	mu       sync.RWMutex
	turns    map[string][]Turn
	maxTurns int
	now      func() time.Time
}

// NewTurnStore creates a store keeping at most maxTurns per user.
// A non-positive maxTurns means DefaultMaxTurns.
func NewTurnStore(maxTurns int) *TurnStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &TurnStore{
		turns:    make(map[string][]Turn),
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

// SetClock sets the clock used to stamp appended turns.
func (s *TurnStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Append records a turn stamped with the current time and returns it.
func (s *TurnStore) Append(userID, role, content string) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := Turn{
		Role:      role,
		Content:   content,
		Timestamp: s.now().Format(time.RFC3339),
	}
	s.appendLocked(userID, turn)
	return turn
}

// AppendTurn records a turn as given.
func (s *TurnStore) AppendTurn(userID string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(userID, turn)
}

func (s *TurnStore) appendLocked(userID string, turn Turn) {
	history := append(s.turns[userID], turn)
	if over := len(history) - s.maxTurns; over > 0 {
		history = append([]Turn(nil), history[over:]...)
	}
	s.turns[userID] = history
}

// Recent returns up to n of the user's latest turns, oldest first.
// A non-positive n returns the whole history.
func (s *TurnStore) Recent(userID string, n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.turns[userID]
	if n > 0 && n < len(history) {
		history = history[len(history)-n:]
	}
	return append([]Turn(nil), history...)
}

// Clear drops a user's history.
func (s *TurnStore) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
}

// Len returns the number of stored turns for a user.
func (s *TurnStore) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[userID])
}
