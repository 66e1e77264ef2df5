package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/blockyard/game/engine"
)

// gameServiceImpl implements the GameService interface. mu orders session
// creation and deletion against everything else; commands on one world are
// serialised by the session's own lock so different worlds run in parallel.
type gameServiceImpl struct {
	sessions    SessionManager
	configs     ConfigManager
	broadcaster StateBroadcaster
	recorder    ActionRecorder
	mu          sync.RWMutex
}

// Option configures optional collaborators of the service
type Option func(*gameServiceImpl)

// WithBroadcaster pushes every world change to b
func WithBroadcaster(b StateBroadcaster) Option {
	return func(s *gameServiceImpl) { s.broadcaster = b }
}

// WithRecorder reports every executed command to r
func WithRecorder(r ActionRecorder) Option {
	return func(s *gameServiceImpl) { s.recorder = r }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new world session from a named config, or the
// default config when the name is empty
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.WorldConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configName = s.configs.DefaultName()
	}

	session, err := s.sessions.Create("", configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.recorder != nil {
		s.recorder.SetActiveSessions(s.sessions.Count())
		s.recorder.RecordWorld(session.ID, session.Snapshot())
	}

	return sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return err
	}

	if s.recorder != nil {
		s.recorder.SetActiveSessions(s.sessions.Count())
		s.recorder.RecordWorld(sessionID, nil)
	}
	return nil
}

// Execute runs one command against a session's world
func (s *gameServiceImpl) Execute(ctx context.Context, sessionID string, cmd engine.Command) (*ActionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if cmd.Action == "" {
		return nil, fmt.Errorf("%w: action is required", ErrInvalidCommand)
	}

	var res engine.Result
	state := sess.Update(func(e *engine.GameEngine) {
		res = s.run(sess.ID, e, cmd)
	})

	s.afterChange(sess, state)

	return &ActionResult{
		Result:     res,
		WorldState: state,
		Events:     eventsFor(res),
	}, nil
}

// ExecuteBatch runs up to engine.MaxBulkActions commands in order
func (s *gameServiceImpl) ExecuteBatch(ctx context.Context, sessionID string, cmds []engine.Command, stopOnFailure bool) (*BatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: no commands given", ErrInvalidCommand)
	}

	result := &BatchResult{
		Requested: len(cmds),
		Success:   true,
		Results:   make([]engine.Result, 0, len(cmds)),
		Events:    make([]GameEvent, 0),
	}

	if len(cmds) > engine.MaxBulkActions {
		cmds = cmds[:engine.MaxBulkActions]
		result.Truncated = true
		result.Limit = engine.MaxBulkActions
	}

	state := sess.Update(func(e *engine.GameEngine) {
		result.StartWood = e.GetWood()
		for i, cmd := range cmds {
			if err := ctx.Err(); err != nil {
				result.Message = fmt.Sprintf("Stopped after %d commands: %v", result.Executed, err)
				return
			}
			res := s.run(sess.ID, e, cmd)
			result.Executed++
			result.Results = append(result.Results, res)
			result.Events = append(result.Events, eventsFor(res)...)

			if !res.Success {
				result.Success = false
				if result.StoppedOn == 0 {
					result.StoppedOn = i + 1
					result.StoppedReason = res.Reason
				}
				if stopOnFailure {
					result.Message = fmt.Sprintf("Stopped on command %d: %s", i+1, res.Message)
					return
				}
			}
		}
	})

	result.EndWood = state.Wood
	result.WorldState = state
	if result.Message == "" {
		result.Message = state.Message
	}

	s.afterChange(sess, state)

	return result, nil
}

// ResetWorld rebuilds a session's world from its config
func (s *gameServiceImpl) ResetWorld(ctx context.Context, sessionID string) (*engine.WorldState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Update(func(e *engine.GameEngine) { e.Reset() })
	s.afterChange(sess, state)

	return state, nil
}

// GetWorldState returns a copy of the current world of a session
func (s *gameServiceImpl) GetWorldState(ctx context.Context, sessionID string) (*engine.WorldState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// DescribeCell reports the occupants of a cell and the rule predicates on it
func (s *gameServiceImpl) DescribeCell(ctx context.Context, sessionID string, x, y int) (*CellDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	ws := sess.Snapshot()
	primary := ws.PrimaryOccupantAt(x, y)
	desc := &CellDescription{
		X:          x,
		Y:          y,
		InBounds:   ws.Grid.InBounds(x, y),
		Terrain:    ws.Grid.At(x, y),
		Occupants:  ws.OccupantsAt(x, y),
		Primary:    primary,
		Content:    ws.ContentOf(primary),
		Loadable:   ws.IsPositionLoadable(x, y),
		Unloadable: ws.IsPositionUnloadable(x, y),
		Surface:    ws.IsPositionSurface(x, y),
	}
	if desc.Occupants == nil {
		desc.Occupants = []engine.Occupant{}
	}

	// Path check for a loaded hook hanging in this cell
	for _, m := range ws.Machines {
		if m.IsCrane() && m.X == x && m.HookY == y && m.Hook.Loaded {
			blocked := y-1 < m.Y || ws.IsPathBlocked(y, y-1, x)
			desc.HookPath = &blocked
			break
		}
	}

	return desc, nil
}

// GetOverlaps returns the overlap report of a session's world
func (s *gameServiceImpl) GetOverlaps(ctx context.Context, sessionID string) ([]engine.Overlap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	overlaps := []engine.Overlap{}
	sess.View(func(e *engine.GameEngine) {
		overlaps = append(overlaps, e.GetOverlaps()...)
	})
	return overlaps, nil
}

// GetHistory returns paginated action history for a session
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var history []engine.HistoryEntry
	sess.View(func(e *engine.GameEngine) {
		for _, entry := range e.GetHistory() {
			switch opts.Filter {
			case "success":
				if !entry.Success {
					continue
				}
			case "failed":
				if entry.Success {
					continue
				}
			}
			history = append(history, entry)
		}
	})
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	actions := []engine.HistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			actions = append(actions, history[i])
		}
	} else if start < total {
		actions = append(actions, history[start:end]...)
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListConfigs returns available world configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific world configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.WorldConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a world configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.WorldConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// run executes one command; the caller holds the session lock
func (s *gameServiceImpl) run(sessionID string, e *engine.GameEngine, cmd engine.Command) engine.Result {
	start := time.Now()
	res := e.Execute(cmd)
	if s.recorder != nil {
		s.recorder.RecordAction(sessionID, res, time.Since(start))
	}

	status := "FAIL"
	if res.Success {
		status = "OK"
	}
	log.Printf("[ACTION] session=%s action=%s machine=%d status=%s reason=%s wood=%d",
		sessionID, cmd.Action, res.Machine, status, res.Reason, e.GetWood())
	return res
}

// afterChange persists the session, then publishes and measures state, a
// snapshot taken when the change finished. It must run without the session
// lock held.
func (s *gameServiceImpl) afterChange(sess *Session, state *engine.WorldState) {
	if err := s.sessions.Save(sess.ID); err != nil {
		log.Printf("Warning: Failed to persist session %s: %v", sess.ID, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastState(sess.ID, state)
	}
	if s.recorder != nil {
		s.recorder.RecordWorld(sess.ID, state)
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccess(),
		WorldState:     sess.Snapshot(),
		WorldConfig:    sess.Config,
	}
}

// eventsFor turns an engine result into the events a viewer cares about
func eventsFor(res engine.Result) []GameEvent {
	action := newEvent(EventAction, res.Message)
	action.Machine = res.Machine
	events := []GameEvent{action}

	if !res.Success {
		return events
	}

	if res.Created != 0 {
		ev := newEvent(EventMachineCreated, fmt.Sprintf("Machine %d built", res.Created))
		ev.Machine = res.Created
		events = append(events, ev)
	}
	if res.Demolished != 0 {
		ev := newEvent(EventMachineDemolished, fmt.Sprintf("Machine %d demolished", res.Demolished))
		ev.Machine = res.Demolished
		events = append(events, ev)
	}
	if res.WoodDelta != 0 {
		events = append(events, newEvent(EventWoodChanged, fmt.Sprintf("Wood %+d", res.WoodDelta)))
	}
	if res.TreeGrown != nil {
		ev := newEvent(EventTreeGrown, fmt.Sprintf("A tree grew at (%d,%d)", res.TreeGrown.X, res.TreeGrown.Y))
		pos := *res.TreeGrown
		ev.Position = &pos
		events = append(events, ev)
	}
	return events
}
