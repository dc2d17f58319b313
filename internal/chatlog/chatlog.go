// Package chatlog keeps a bounded in-memory transcript per session and
// spills the oldest entries to a sink once a session outgrows its cap.
package chatlog

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

const (
	// DefaultMaxEntries is the per-session cap applied when a store is
	// built with a non-positive limit.
	DefaultMaxEntries = 100
)

var (
	// ErrEmptySessionID is returned when an operation names no session.
	ErrEmptySessionID = errors.New("chatlog: empty session id")
)

// Entry is one recorded utterance.
type Entry struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Sink receives entries evicted from the in-memory window.
type Sink interface {
	Spill(sessionID string, entries []Entry) error
}

// Store holds the live window of entries for each session. All methods
// are safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	maxEntries int
	sink       Sink
	logger     *zap.Logger
	sessions   map[string][]Entry
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSink routes evicted entries to the given sink. Without one,
// evicted entries are discarded.
func WithSink(sink Sink) StoreOption {
	return func(s *Store) { s.sink = sink }
}

// WithLogger sets the logger used to report spill failures.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore builds a store capping each session at maxEntries live
// entries. A non-positive cap falls back to DefaultMaxEntries.
func NewStore(maxEntries int, opts ...StoreOption) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	s := &Store{
		maxEntries: maxEntries,
		logger:     zap.NewNop(),
		sessions:   make(map[string][]Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records an utterance for the session, evicting the oldest
// entries past the cap. Eviction happens even when the sink rejects the
// spilled entries; the failure is logged and the window stays bounded.
func (s *Store) Append(sessionID, sender, text string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	window := append(s.sessions[sessionID], Entry{Sender: sender, Text: text})

	var evicted []Entry
	if overflow := len(window) - s.maxEntries; overflow > 0 {
		evicted = append(evicted, window[:overflow]...)
		window = window[overflow:]
	}
	s.sessions[sessionID] = window

	if len(evicted) > 0 && s.sink != nil {
		if err := s.sink.Spill(sessionID, evicted); err != nil {
			s.logger.Warn("spilling evicted chat entries failed",
				zap.String("session_id", sessionID),
				zap.Int("entries", len(evicted)),
				zap.Error(err))
		}
	}
	return nil
}

// Entries returns a copy of the live window for the session. A session
// with no recorded entries yields an empty slice.
func (s *Store) Entries(sessionID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.sessions[sessionID]
	out := make([]Entry, len(window))
	copy(out, window)
	return out
}

// Len reports the live window size for the session.
func (s *Store) Len(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[sessionID])
}

// Drop removes a session's live window. Spilled entries are untouched.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
