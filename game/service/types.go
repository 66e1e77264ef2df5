package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/blockyard/game/engine"
)

// SessionInfo provides information about a world session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	WorldState     *engine.WorldState  `json:"world_state"`
	WorldConfig    *engine.WorldConfig `json:"world_config"`
}

// ActionResult is the engine result for one command plus the world after it
type ActionResult struct {
	engine.Result
	WorldState *engine.WorldState `json:"world_state"`
	Events     []GameEvent        `json:"events"`
}

// BatchResult summarizes a sequence of commands run in one call
type BatchResult struct {
	Requested     int                `json:"requested"`
	Executed      int                `json:"executed"`
	Success       bool               `json:"success"`
	StoppedOn     int                `json:"stopped_on,omitempty"` // 1-based index of the failed command
	StoppedReason engine.Reason      `json:"stopped_reason,omitempty"`
	Truncated     bool               `json:"truncated,omitempty"`
	Limit         int                `json:"limit,omitempty"`
	StartWood     int                `json:"start_wood"`
	EndWood       int                `json:"end_wood"`
	Results       []engine.Result    `json:"results"`
	Events        []GameEvent        `json:"events"`
	WorldState    *engine.WorldState `json:"world_state"`
	Message       string             `json:"message,omitempty"`
}

// Event types emitted by the service
const (
	EventAction            = "action"
	EventTreeGrown         = "tree_grown"
	EventMachineCreated    = "machine_created"
	EventMachineDemolished = "machine_demolished"
	EventWoodChanged       = "wood_changed"
)

// GameEvent represents something that happened in a world
type GameEvent struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Machine   engine.MachineID `json:"machine,omitempty"`
	Position  *engine.Position `json:"position,omitempty"`
}

func newEvent(eventType, message string) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Order  string `json:"order"`  // "asc" or "desc"
	Filter string `json:"filter"` // "all", "success" or "failed"
}

// HistoryResponse contains paginated action history
type HistoryResponse struct {
	Actions      []engine.HistoryEntry `json:"actions"`
	TotalActions int                   `json:"total_actions"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
	HasNext      bool                  `json:"has_next"`
	HasPrevious  bool                  `json:"has_previous"`
}

// ConfigInfo provides information about a world configuration
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`
	Description  string `json:"description"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	StartingWood int    `json:"starting_wood"`
}

// CellDescription is everything known about one grid cell
type CellDescription struct {
	X          int               `json:"x"`
	Y          int               `json:"y"`
	InBounds   bool              `json:"in_bounds"`
	Terrain    engine.BlockKind  `json:"terrain"`
	Occupants  []engine.Occupant `json:"occupants"`
	Primary    engine.Occupant   `json:"primary"`
	Content    engine.BlockKind  `json:"content"`
	Loadable   bool              `json:"loadable"`
	Unloadable bool              `json:"unloadable"`
	Surface    bool              `json:"surface"`
	HookPath   *bool             `json:"hook_path_blocked,omitempty"`
}
