package copilot

import (
	"context"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Turn is one chat message.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// DefaultMaxSessions bounds the store used by NewSessions.
const DefaultMaxSessions = 1000

// Sessions keeps per-consultant chat histories in memory. History lives only
// as long as the process; nothing is persisted. Once the store is full the
// least recently used session is dropped.
type Sessions struct {
	mu    sync.Mutex // serializes read-modify-write of a history
	chats *lru.Cache[string, []Turn]
}

// NewSessions creates an empty store holding at most DefaultMaxSessions.
func NewSessions() *Sessions {
	return NewSessionsWithLimit(DefaultMaxSessions)
}

// NewSessionsWithLimit creates an empty store holding at most limit sessions.
// A non-positive limit means DefaultMaxSessions.
func NewSessionsWithLimit(limit int) *Sessions {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	chats, err := lru.New[string, []Turn](limit)
	if err != nil {
		// lru.New only rejects a non-positive size
		panic(err)
	}
	return &Sessions{chats: chats}
}

// Start opens a new session and returns its id.
func (s *Sessions) Start() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.chats.Add(id, nil)
	s.mu.Unlock()
	return id
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	return s.chats.Len()
}

// Valid reports whether id names an open session.
func (s *Sessions) Valid(id string) bool {
	if _, err := uuid.Parse(id); err != nil {
		return false
	}
	return s.chats.Contains(id)
}

// Append adds turns to a session, opening it if needed.
func (s *Sessions) Append(id string, turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, _ := s.chats.Get(id)
	s.chats.Add(id, append(history, turns...))
}

// History returns a copy of the session's turns.
func (s *Sessions) History(id string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, _ := s.chats.Get(id)
	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

// Reset clears a session's history; the id stays valid.
func (s *Sessions) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chats.Contains(id) {
		s.chats.Add(id, nil)
	}
}

// Chat records question, asks the advisor about profile and records the
// reply. The reply (or inline placeholder) is returned.
func (a *Advisor) Chat(ctx context.Context, s *Sessions, id string, profile ClientProfile, question string) string {
	s.Append(id, Turn{Role: "user", Content: question})
	reply := a.Ask(ctx, CallPrepPrompt(profile, question))
	s.Append(id, Turn{Role: "assistant", Content: reply})
	return reply
}
