package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"xtractor/pkg/logger"
	"xtractor/pkg/models"
)

// Session holds the authentication artifacts captured after a successful
// login: cookies, a local-storage snapshot, the fingerprint's user agent,
// and the creation timestamp that drives the expiry policy.
type Session struct {
	Cookies      []models.Cookie     `json:"cookies"`
	StorageState models.StorageState `json:"storage_state"`
	UserAgent    string              `json:"user_agent"`
	Timestamp    time.Time           `json:"timestamp"`
}

// Age returns how old the session is
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// Store persists sessions to a durable JSON file with an expiry policy
type Store struct {
	path   string
	maxAge time.Duration
	logger logger.Logger
	now    func() time.Time
}

// NewStore creates a session store backed by the given file path.
// Sessions older than maxAge are treated as absent on load.
func NewStore(path string, maxAge time.Duration) *Store {
	return &Store{
		path:   path,
		maxAge: maxAge,
		logger: logger.GetLogger(),
		now:    time.Now,
	}
}

// Load reads the persisted session. It fails closed: a missing file,
// any decode error, missing required fields, or age at or beyond the
// expiry policy all yield (nil, nil) and force re-authentication. A
// partial session is never returned.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		s.logger.WithError(err).Warn("Failed to read session file, treating as absent")
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.WithError(err).Warn("Failed to decode session file, treating as absent")
		return nil, nil
	}

	if sess.Timestamp.IsZero() || sess.UserAgent == "" || len(sess.Cookies) == 0 {
		s.logger.Warn("Session file is missing required fields, treating as absent")
		return nil, nil
	}

	if age := sess.Age(s.now()); age >= s.maxAge {
		s.logger.WarnWithFields("Session too old, manual login required", map[string]interface{}{
			"age":     age,
			"max_age": s.maxAge,
		})
		return nil, nil
	}

	s.logger.InfoWithFields("Previous session loaded", map[string]interface{}{
		"cookies":    len(sess.Cookies),
		"created_at": sess.Timestamp,
	})

	return &sess, nil
}

// Save persists the session atomically (temp file + rename). Callers
// treat a failure here as non-fatal: the run continues without
// persistence.
func (s *Store) Save(sess *Session) error {
	if sess == nil {
		return fmt.Errorf("cannot save nil session")
	}
	if sess.Timestamp.IsZero() {
		sess.Timestamp = s.now()
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary session file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.InfoWithFields("Session saved", map[string]interface{}{
		"path":    s.path,
		"cookies": len(sess.Cookies),
	})

	return nil
}

// Delete removes the persisted session, if any
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
