package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/blockyard/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidCommand  = errors.New("invalid command")
)

// GameService defines all world operations exposed to transports
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Actions
	Execute(ctx context.Context, sessionID string, cmd engine.Command) (*ActionResult, error)
	ExecuteBatch(ctx context.Context, sessionID string, cmds []engine.Command, stopOnFailure bool) (*BatchResult, error)
	ResetWorld(ctx context.Context, sessionID string) (*engine.WorldState, error)

	// World State
	GetWorldState(ctx context.Context, sessionID string) (*engine.WorldState, error)
	DescribeCell(ctx context.Context, sessionID string, x, y int) (*CellDescription, error)
	GetOverlaps(ctx context.Context, sessionID string) ([]engine.Overlap, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.WorldConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.WorldConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configName string, config *engine.WorldConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configName string, config *engine.WorldConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
	Count() int
}

// ConfigManager handles world configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.WorldConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.WorldConfig
	DefaultName() string
	SaveConfig(name string, config *engine.WorldConfig) error
}

// StateBroadcaster pushes world updates to live viewers
type StateBroadcaster interface {
	BroadcastState(sessionID string, state *engine.WorldState)
}

// ActionRecorder observes executed commands. RecordWorld with a nil state
// means the session was deleted.
type ActionRecorder interface {
	RecordAction(sessionID string, res engine.Result, elapsed time.Duration)
	RecordWorld(sessionID string, state *engine.WorldState)
	SetActiveSessions(n int)
}

// Session represents an active world session. The engine is not safe for
// concurrent use; go through Update, View or Snapshot once the session is
// shared.
type Session struct {
	ID             string
	ConfigName     string
	Engine         *engine.GameEngine
	Config         *engine.WorldConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Update runs fn with exclusive access to the engine and returns a copy of
// the world fn left behind
func (s *Session) Update(fn func(e *engine.GameEngine)) *engine.WorldState {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.Engine)
	return s.Engine.GetState().Clone()
}

// View runs fn with exclusive access to the engine. fn must not keep
// references into the live state.
func (s *Session) View(fn func(e *engine.GameEngine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.Engine)
}

// Snapshot returns a copy of the current world
func (s *Session) Snapshot() *engine.WorldState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.GetState().Clone()
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	s.LastAccessedAt = t
	s.mu.Unlock()
}

// LastAccess returns the time of the last recorded access
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastAccessedAt
}
