package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Ayala-Braverman/practicod3-1/internal/model"
)

// Storage keys. A session is anonymous unless both are present.
const (
	keyToken = "token"
	keyUser  = "user"
)

// Session is the client-side authentication state.
type Session struct {
	Token string
	User  *model.UserProfile
}

// Authenticated reports whether the session holds a token and a profile.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// SessionStore persists the session between runs.
type SessionStore interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// FileStore keeps the session in a JSON file under fixed keys.
// Human-readable, one file per user profile directory.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSessionPath returns the session file under the user's config dir.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(dir, "todo", "session.json"), nil
}

// Load reads the session. A missing file is an anonymous session.
func (f *FileStore) Load() (Session, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return Session{}, fmt.Errorf("json unmarshal: %w", err)
	}

	tokenRaw, hasToken := raw[keyToken]
	userRaw, hasUser := raw[keyUser]
	if !hasToken || !hasUser {
		return Session{}, nil
	}

	var s Session
	if err := json.Unmarshal(tokenRaw, &s.Token); err != nil {
		return Session{}, fmt.Errorf("json unmarshal token: %w", err)
	}
	if err := json.Unmarshal(userRaw, &s.User); err != nil {
		return Session{}, fmt.Errorf("json unmarshal user: %w", err)
	}
	if !s.Authenticated() {
		return Session{}, nil
	}
	return s, nil
}

// Save writes the session, readable by the owner only.
func (f *FileStore) Save(s Session) error {
	b, err := json.MarshalIndent(map[string]any{
		keyToken: s.Token,
		keyUser:  s.User,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(f.path, b, 0o600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Clear removes the session file.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in memory.
type MemoryStore struct {
	mu      sync.Mutex
	session Session
}

func (m *MemoryStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}
