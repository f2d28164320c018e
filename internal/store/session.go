package store

import (
	"fmt"
	"time"
)

// Session is one persisted session record, keyed by session id in the table.
type Session struct {
	Username       string    `json:"username" cbor:"username"`
	CreatedAt      time.Time `json:"created_at" cbor:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at" cbor:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at" cbor:"expires_at"`
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// SessionStore reads and writes the session id → Session table.
type SessionStore struct {
	path  string
	codec Codec
}

// NewSessionStore builds a SessionStore for the file at path using codec.
func NewSessionStore(path string, codec Codec) *SessionStore {
	return &SessionStore{path: path, codec: codec}
}

// Path returns the backing file path.
func (s *SessionStore) Path() string { return s.path }

// Load reads the whole session table. A missing file yields an empty table.
// Expiry is not evaluated here; the engine prunes stale sessions itself.
func (s *SessionStore) Load() (map[string]*Session, error) {
	data, ok, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 {
		return map[string]*Session{}, nil
	}

	var sessions map[string]*Session
	if err := s.codec.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	out := make(map[string]*Session, len(sessions))
	for id, sess := range sessions {
		if sess == nil {
			continue
		}
		out[id] = sess
	}
	return out, nil
}

// Save overwrites the whole session table.
func (s *SessionStore) Save(sessions map[string]*Session) error {
	data, err := s.codec.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	return writeFile(s.path, data)
}
