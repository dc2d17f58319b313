package chatlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	// ErrInvalidSessionID is returned for session IDs that cannot name a
	// log file safely.
	ErrInvalidSessionID = errors.New("chatlog: invalid session id")

	sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ValidateSessionID reports whether an ID can safely name a log file.
func ValidateSessionID(sessionID string) error {
	if !sessionIDPattern.MatchString(sessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return nil
}

// FileSink appends spilled entries to one log file per session, named
// <dir>/<session-id>.log.
type FileSink struct {
	dir string
}

// NewFileSink creates the sink directory with owner-only permissions if
// it does not exist.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, errors.New("chatlog: empty sink directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating chat log directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Spill appends each entry as a "<sender>: <text>" line to the
// session's log file, creating it with owner-only permissions.
func (s *FileSink) Spill(sessionID string, entries []Entry) error {
	path, err := s.pathFor(sessionID)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening chat log file: %w", err)
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintf(f, "%s: %s\n", entry.Sender, entry.Text); err != nil {
			f.Close()
			return fmt.Errorf("writing chat log entry: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing chat log file: %w", err)
	}
	return nil
}

// Read returns the spilled contents for a session. A session that never
// overflowed yields an empty string.
func (s *FileSink) Read(sessionID string) (string, error) {
	path, err := s.pathFor(sessionID)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading chat log file: %w", err)
	}
	return string(data), nil
}

func (s *FileSink) pathFor(sessionID string) (string, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, sessionID+".log"), nil
}
