package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/blockyard/game/engine"
	"github.com/wricardo/blockyard/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrNoFreeSessionID      = errors.New("no free session ID")
)

// maxIDAttempts bounds the search for an unused generated ID
const maxIDAttempts = 64

// Manager keeps live sessions in memory and writes them through to an
// optional SessionPersistence. IDs are matched case-insensitively; the
// stored copy keeps the spelling the session was created with.
//
// Lock order is writeMu, then mu, then the session's own lock. Callers must
// not call into the manager from inside Session.Update or Session.View.
type Manager struct {
	writeMu     sync.Mutex
	mu          sync.RWMutex
	sessions    map[string]*service.Session
	persistence SessionPersistence
	now         func() time.Time
}

// NewManager creates a memory-only session manager
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a session manager backed by persistence.
// A nil persistence keeps sessions in memory only.
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
		now:         time.Now,
	}
}

func sessionKey(id string) string {
	return strings.ToLower(id)
}

// Create builds a world from config and registers it under id. An empty id
// is replaced by a fresh random one. IDs already taken in memory or in
// storage are refused.
func (m *Manager) Create(id, configName string, config *engine.WorldConfig) (*service.Session, error) {
	if id != "" && !validSessionID(id) {
		return nil, ErrInvalidSessionID
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	if id == "" {
		id, err = m.freshID()
	} else if m.taken(id) {
		err = ErrSessionAlreadyExists
	}
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	now := m.now()
	sess := &service.Session{
		ID:             id,
		ConfigName:     configName,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[sessionKey(id)] = sess
	m.mu.Unlock()

	m.persist(sess)
	return sess, nil
}

// Get returns a live session, loading it from storage when it is not in
// memory
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[sessionKey(id)]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}
	loaded, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}
	return m.adopt(loaded), nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, configName string, config *engine.WorldConfig) (*service.Session, error) {
	sess, err := m.Get(id)
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, configName, config)
	}
	return sess, err
}

// List returns the live sessions ordered by ID
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	m.mu.RUnlock()

	slices.SortFunc(result, func(a, b *service.Session) int {
		return strings.Compare(a.ID, b.ID)
	})
	return result
}

// Delete removes a session from memory and from storage
func (m *Manager) Delete(id string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	storedID := id
	sess, inMemory := m.sessions[sessionKey(id)]
	if inMemory {
		storedID = sess.ID
		delete(m.sessions, sessionKey(id))
	}

	if m.persistence != nil && m.persistence.Exists(storedID) {
		if err := m.persistence.Delete(storedID); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}
	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory drops a live session and leaves its stored copy alone
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionKey(id)]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionKey(id))
	return nil
}

// UpdateLastAccessed stamps a session with the current time and writes it
// through, so the access survives a restart
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	sess, ok := m.sessions[sessionKey(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.Touch(m.now())
	m.persist(sess)
	return nil
}

// Save writes one live session to storage. It is a no-op without persistence.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, ok := m.sessions[sessionKey(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	return m.write(sess)
}

// CleanupExpiredSessions drops sessions idle for longer than maxAge from
// memory. Stored copies are kept and reload on the next Get.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for key, sess := range m.sessions {
		if sess.LastAccess().Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LoadPersistedSessions brings every stored session into memory. Sessions
// that fail to load are logged and skipped.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loaded := 0
	for _, id := range ids {
		m.mu.RLock()
		_, live := m.sessions[sessionKey(id)]
		m.mu.RUnlock()
		if live {
			continue
		}

		sess, err := m.persistence.Load(id)
		if err != nil {
			log.Printf("Warning: Failed to load persisted session %s: %v", id, err)
			continue
		}
		if m.adopt(sess) == sess {
			loaded++
		}
	}

	if loaded > 0 {
		log.Printf("Loaded %d persisted sessions from storage", loaded)
	}
	return nil
}

// SaveAllSessions writes every live session to storage and reports every
// session that failed
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	var errs []error
	for _, sess := range m.List() {
		if err := m.write(sess); err != nil && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID, err))
		}
	}
	return errors.Join(errs...)
}

// adopt registers a session read from storage. When another caller loaded
// the same ID first, that session wins and is returned instead.
func (m *Manager) adopt(sess *service.Session) *service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[sessionKey(sess.ID)]; ok {
		return existing
	}
	m.sessions[sessionKey(sess.ID)] = sess
	return sess
}

// persist writes sess through to storage. Failures are logged; the live
// session stays authoritative.
func (m *Manager) persist(sess *service.Session) {
	if m.persistence == nil {
		return
	}
	if err := m.write(sess); err != nil && !errors.Is(err, ErrSessionNotFound) {
		log.Printf("Warning: Failed to persist session %s: %v", sess.ID, err)
	}
}

// write stores sess if it is still the live session for its ID. Writes are
// serialised and each one copies the world when it runs, so the last write
// always carries the newest state and a deleted session is never written
// back.
func (m *Manager) write(sess *service.Session) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	live := m.sessions[sessionKey(sess.ID)] == sess
	m.mu.RUnlock()
	if !live {
		return ErrSessionNotFound
	}
	return m.persistence.Save(sess)
}

// taken reports whether id is live or stored. The caller holds mu.
func (m *Manager) taken(id string) bool {
	if _, ok := m.sessions[sessionKey(id)]; ok {
		return true
	}
	return m.persistence != nil && m.persistence.Exists(id)
}

// freshID draws random 4-character IDs until one is free. The caller holds mu.
func (m *Manager) freshID() (string, error) {
	buf := make([]byte, 2)
	for range maxIDAttempts {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate session ID: %w", err)
		}
		if id := hex.EncodeToString(buf); !m.taken(id) {
			return id, nil
		}
	}
	return "", ErrNoFreeSessionID
}

// validSessionID accepts IDs that are safe to use as file names and URL
// path segments.
func validSessionID(id string) bool {
	if len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
