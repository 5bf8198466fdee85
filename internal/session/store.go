// Package session holds the client-side login state: who is signed in, their
// role, and the bearer token the backend issued. The state file is the single
// source of truth across process restarts.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"bankctl/internal/models"
)

type fileState struct {
	Username      string      `json:"username,omitempty"`
	Role          models.Role `json:"role,omitempty"`
	Token         string      `json:"token,omitempty"`
	LogoutMessage string      `json:"logoutMessage,omitempty"`
}

// Subscriber is notified whenever the session identity changes. Username is
// empty after logout.
type Subscriber func(username string, role models.Role)

// Store persists the session to a JSON file. When constructed with a
// passphrase the file body is sealed with AES-GCM (see seal.go); a file that
// cannot be read or decoded is treated as no session at all.
type Store struct {
	mu      sync.Mutex
	path    string
	sealKey []byte
	state   fileState
	subs    []Subscriber
}

// NewStore opens (or initializes) the session file at path. passphrase may be
// empty, in which case the file is stored as plain JSON.
func NewStore(path, passphrase string) (*Store, error) {
	s := &Store{path: path}
	if passphrase != "" {
		s.sealKey = deriveSealKey(passphrase)
	}
	s.load()
	return s, nil
}

// load re-seeds in-memory state from the file. Missing and corrupt files both
// leave the store empty.
func (s *Store) load() {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	if s.sealKey != nil {
		blob, err = open(s.sealKey, blob)
		if err != nil {
			return
		}
	}
	var st fileState
	if err := json.Unmarshal(blob, &st); err != nil {
		return
	}
	s.state = st
}

func (s *Store) persist() error {
	blob, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	if s.sealKey != nil {
		blob, err = seal(s.sealKey, blob)
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, blob, 0600)
}

// Set records a freshly established session and notifies subscribers.
func (s *Store) Set(sess models.Session) error {
	s.mu.Lock()
	s.state.Username = sess.Username
	s.state.Role = sess.Role
	s.state.Token = sess.Token
	err := s.persist()
	subs, username, role := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, username, role)
	return err
}

// Clear wipes the session. reason, when non-empty, is kept as a one-shot
// message for the next login screen render.
func (s *Store) Clear(reason string) error {
	s.mu.Lock()
	s.state = fileState{LogoutMessage: reason}
	err := s.persist()
	subs, username, role := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, username, role)
	return err
}

// Current returns the active session, if any.
func (s *Store) Current() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token == "" {
		return models.Session{}, false
	}
	return models.Session{
		Username: s.state.Username,
		Role:     s.state.Role,
		Token:    s.state.Token,
	}, true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token != ""
}

func (s *Store) Role() (models.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token == "" {
		return "", false
	}
	return s.state.Role, true
}

// Token returns the bearer token or "" when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// ConsumeLogoutMessage returns the pending one-shot logout message and clears
// it, so it is surfaced at most once.
func (s *Store) ConsumeLogoutMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.state.LogoutMessage
	if msg != "" {
		s.state.LogoutMessage = ""
		_ = s.persist()
	}
	return msg
}

// Subscribe registers fn for identity-change notifications. There is no
// unsubscribe; subscribers live as long as the store.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) snapshotLocked() ([]Subscriber, string, models.Role) {
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	return subs, s.state.Username, s.state.Role
}

// notify runs outside the store lock so subscribers may read the store.
func notify(subs []Subscriber, username string, role models.Role) {
	for _, fn := range subs {
		fn(username, role)
	}
}
