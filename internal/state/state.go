// Package state tracks per-user conversation state for the linear text-prompt
// flows (task creation, team creation, team joining). It is a plain state
// register with TTL expiry, not a state machine: handlers set whatever state
// they need and validate it with IsIn before trusting the attached data.
package state

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Idle is the state reported for users with no active conversation.
const Idle = "idle"

// DefaultTTL is how long a conversation state stays valid without updates.
const DefaultTTL = 30 * time.Minute

// Conversation state names used by the text-prompt flows.
const (
	AwaitingTaskName = "awaiting_task_name"
	AwaitingTaskDate = "awaiting_task_date"
	AwaitingTaskTime = "awaiting_task_time"
	AwaitingTeamName = "awaiting_team_name"
	AwaitingTeamCode = "awaiting_team_code"
)

type entry struct {
	state     string
	data      map[string]any
	updatedAt time.Time
}

// Store holds conversation state per user. Construct one per process and
// inject it into the handlers and the cleanup task.
type Store struct {
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[int64]entry
}

// NewStore creates a state store with the default 30 minute TTL.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		logger:  logger.With("component", "state_store"),
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[int64]entry),
	}
}

// Set records the user's current state and data, resetting the TTL.
func (s *Store) Set(userID int64, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	s.mu.Lock()
	s.entries[userID] = entry{state: name, data: data, updatedAt: s.now()}
	s.mu.Unlock()
}

// Get returns the user's current state and data. Absent or expired entries
// report Idle with empty data; expired entries are cleared on the way out.
func (s *Store) Get(userID int64) (string, map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return Idle, map[string]any{}
	}
	if s.now().Sub(e.updatedAt) > s.ttl {
		delete(s.entries, userID)
		s.logger.Debug("Conversation state expired", "user_id", userID, "state", e.state)
		return Idle, map[string]any{}
	}
	return e.state, e.data
}

// Clear removes the user's state.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()
}

// IsIn reports whether the user currently is in the named state.
func (s *Store) IsIn(userID int64, name string) bool {
	current, _ := s.Get(userID)
	return current == name
}

// Cleanup drops all expired entries and returns how many were removed. Get
// already expires lazily; the periodic sweep only bounds memory for users who
// never come back.
func (s *Store) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, e := range s.entries {
		if now.Sub(e.updatedAt) > s.ttl {
			delete(s.entries, userID)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Cleared expired conversation states", "removed", removed, "remaining", len(s.entries))
	}
	return removed
}
