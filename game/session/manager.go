package session

import (
	"cmp"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// idAttempts bounds retries when a random ID is already taken
const idAttempts = 16

// Manager is the in-memory registry of puzzle sessions. IDs are matched
// without regard to case.
type Manager struct {
	mu   sync.RWMutex
	byID map[string]*service.Session

	// with a base seed, the n-th created session scatters with base+n
	seeded  bool
	base    uint64
	created uint64
}

// NewManager returns an empty registry whose sessions scatter randomly
func NewManager() *Manager {
	return &Manager{byID: make(map[string]*service.Session)}
}

// NewManagerWithSeed returns a registry whose sessions scatter reproducibly
func NewManagerWithSeed(seed uint64) *Manager {
	m := NewManager()
	m.seeded, m.base = true, seed
	return m
}

// Create registers a puzzle over pack and levels. An empty id gets a random
// one. The first level is left for the caller to start.
func (m *Manager) Create(id string, pack *engine.LevelPack, levels []*partition.Image) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case id == "":
		var err error
		if id, err = m.freeIDLocked(); err != nil {
			return nil, err
		}
	case m.byID[key(id)] != nil:
		return nil, fmt.Errorf("%w: %s", ErrSessionAlreadyExists, id)
	}

	var opts []engine.Option
	if m.seeded {
		opts = append(opts, engine.WithSeed(m.base+m.created))
	}
	puzzle, err := engine.NewSession(pack, levels, opts...)
	if err != nil {
		return nil, fmt.Errorf("new puzzle: %w", err)
	}
	m.created++

	now := time.Now()
	s := &service.Session{
		ID:             id,
		Engine:         puzzle,
		Config:         puzzle.Pack(),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.byID[key(id)] = s
	return s, nil
}

// Get looks a session up by id
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	s := m.byID[key(id)]
	m.mu.RUnlock()

	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetOrCreate returns the session called id, creating it when absent
func (m *Manager) GetOrCreate(id string, pack *engine.LevelPack, levels []*partition.Image) (*service.Session, error) {
	s, err := m.Get(id)
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, pack, levels)
	}
	return s, err
}

// List returns every session, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	all := slices.Collect(maps.Values(m.byID))
	m.mu.RUnlock()

	slices.SortStableFunc(all, func(a, b *service.Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return all
}

// Delete forgets a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(id)
	if m.byID[k] == nil {
		return ErrSessionNotFound
	}
	delete(m.byID, k)
	return nil
}

// UpdateLastAccessed marks a session as used now, postponing its expiry
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.byID[key(id)]
	if s == nil {
		return ErrSessionNotFound
	}
	s.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpiredSessions drops sessions idle for longer than maxAge and
// returns how many went away
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.byID)
	maps.DeleteFunc(m.byID, func(_ string, s *service.Session) bool {
		return s.LastAccessedAt.Before(cutoff)
	})
	return before - len(m.byID)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// freeIDLocked draws random IDs until one is unused
func (m *Manager) freeIDLocked() (string, error) {
	for range idAttempts {
		id := randomID()
		if m.byID[id] == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free id after %d attempts", ErrSessionAlreadyExists, idAttempts)
}

// randomID returns 4 lowercase hex characters
func randomID() string {
	var b [2]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func key(id string) string {
	return strings.ToLower(id)
}
