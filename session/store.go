package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yonagi/retroboard/model"
)

// TTL is the soft expiry of a persisted session. Past it the record is
// treated as absent.
const TTL = 24 * time.Hour

// Session is the credential tuple for one room visit. Password is retained
// only for the legacy rejoin fallback; the token is what authenticates
// every mutation.
type Session struct {
	Room      model.Room `json:"room"`
	User      model.User `json:"user"`
	Password  string     `json:"password"`
	Token     string     `json:"session_token"`
	Timestamp time.Time  `json:"timestamp"`
}

// Store holds the current session in memory and mirrors it to a single-slot
// JSON file, so a later run of the client can pick the visit back up within
// the TTL.
type Store struct {
	mu      sync.RWMutex
	current *Session
	file    string
	log     *logrus.Logger
}

// NewStore creates a store backed by the given file. Nothing is read until
// Restore is called.
func NewStore(file string, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{file: file, log: log}
}

// Persist stamps the session with the current time, installs it in memory
// and overwrites the slot on disk. There is only ever one stored session;
// persisting a session for one room replaces any other room's.
func (s *Store) Persist(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.Timestamp = time.Now()
	s.current = &sess

	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.file, data, 0o600)
}

// Restore returns the current session if one is live. With no in-memory
// session it reads the slot file; a record whose token is empty or whose
// age exceeds the TTL counts as absent. Stale records are left on disk;
// only Clear removes the file.
func (s *Store) Restore() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return *s.current, true
	}

	data, err := os.ReadFile(s.file)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("failed to read session file")
		}
		return Session{}, false
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.WithError(err).Warn("failed to parse session file")
		return Session{}, false
	}
	if sess.Token == "" || time.Since(sess.Timestamp) >= TTL {
		return Session{}, false
	}

	s.current = &sess
	s.log.WithField("room", sess.Room.ID).Info("session restored from storage")
	return sess, true
}

// Clear drops the in-memory session and removes the slot file. Called on
// logout and whenever the backend reports the token invalid.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := os.Remove(s.file); err != nil && !os.IsNotExist(err) {
		s.log.WithError(err).Warn("failed to remove session file")
	}
}

// IsValid reports whether a complete session is held in memory. It is a
// cheap local check and never contacts the backend.
func (s *Store) IsValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil &&
		s.current.Token != "" &&
		s.current.Room.ID != "" &&
		s.current.User.Name != ""
}

// Current returns the in-memory session without touching disk.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}
