package engine

import (
	"fmt"
	"slices"
	"time"
)

// Engine provides the main interface for world operations
type Engine interface {
	// World state management
	GetState() *WorldState
	SetState(state *WorldState) error
	Reset() *WorldState
	GetWood() int
	GetOperationCount() int

	// Commands
	Execute(cmd Command) Result
	Select(id MachineID) Result

	// Queries
	OccupantsAt(x, y int) []Occupant
	GetMachines() []*Machine
	GetOverlaps() []Overlap

	// Configuration
	GetConfig() *WorldConfig
	SetConfig(config *WorldConfig) error

	// History
	GetHistory() []HistoryEntry
	GetLastAction() *HistoryEntry
}

// GameEngine implements the Engine interface for one world
type GameEngine struct {
	state  *WorldState
	config *WorldConfig
}

// NewEngine creates a new engine with the provided configuration
func NewEngine(config *WorldConfig) (*GameEngine, error) {
	if err := ValidateWorldConfig(config); err != nil {
		return nil, err
	}

	return &GameEngine{
		config: config,
		state:  InitWorldFromConfig(config, nil),
	}, nil
}

// NewEngineWithDefaults creates an engine running the classic world
func NewEngineWithDefaults() *GameEngine {
	config := DefaultWorldConfig()
	return &GameEngine{
		config: config,
		state:  InitWorldFromConfig(config, nil),
	}
}

// GetState returns the current world state
func (e *GameEngine) GetState() *WorldState {
	return e.state
}

// SetState replaces the world state (used for persistence loading). The rules
// come from the engine config and growth is reseeded from the config seed.
func (e *GameEngine) SetState(state *WorldState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Grid.Height() == 0 {
		return fmt.Errorf("state has an empty grid")
	}
	for _, m := range state.Machines {
		if m.IsCrane() && (m.HookY < m.Y || m.HookY >= state.Grid.Height()) {
			return fmt.Errorf("crane %d hook at row %d is outside [%d, %d)", m.ID, m.HookY, m.Y, state.Grid.Height())
		}
	}

	var rules *Rules
	var seed int64
	if e.config != nil {
		rules = e.config.Rules()
		seed = e.config.Seed
	}
	if seed != 0 {
		seed += int64(state.OperationCount)
	}
	state.bind(rules, NewRandom(seed))
	state.refresh()

	e.state = state
	return nil
}

// SetRandom overrides the random source used for tree growth
func (e *GameEngine) SetRandom(rng Random) {
	e.state.SetRandom(rng)
}

// Reset rebuilds the world from the config, keeping the cumulative history
func (e *GameEngine) Reset() *WorldState {
	prevHistory := e.state.History
	prevTotal := e.state.TotalActions

	e.state = InitWorldFromConfig(e.config, nil)

	e.state.History = prevHistory
	e.state.TotalActions = prevTotal
	e.state.CurrentActions = []HistoryEntry{}
	e.state.CurrentActionsCount = 0

	return e.state
}

// GetWood returns the wood in stock
func (e *GameEngine) GetWood() int {
	return e.state.Wood
}

// GetOperationCount returns the number of successful operations
func (e *GameEngine) GetOperationCount() int {
	return e.state.OperationCount
}

// Select makes a machine the target of subsequent commands
func (e *GameEngine) Select(id MachineID) Result {
	return e.Execute(Command{Action: ActionSelect, Machine: id})
}

// Execute runs one command against the world and records it in the history.
// A non-zero Command.Machine selects that machine first.
func (e *GameEngine) Execute(cmd Command) Result {
	res := e.dispatch(cmd)
	res.Action = cmd.Action

	e.state.Message = res.Message
	e.state.refresh()
	e.state.AddToHistory(cmd, res)

	return res
}

func (e *GameEngine) dispatch(cmd Command) Result {
	ws := e.state

	if !slices.Contains(Actions, cmd.Action) {
		return fail(CategoryCapability, ReasonUnknownAction, "Unknown action %q", cmd.Action)
	}

	if cmd.Machine != 0 {
		if ws.Machine(cmd.Machine) == nil {
			return fail(CategoryCapability, ReasonUnknownMachine, "No machine with id %d", cmd.Machine)
		}
		ws.Selected = cmd.Machine
	}

	switch cmd.Action {
	case ActionSelect:
		m := ws.SelectedMachine()
		if m == nil {
			return fail(CategoryCapability, ReasonNoSelection, "No machine selected")
		}
		res := Result{Success: true, Changed: true, Machine: m.ID,
			Message: fmt.Sprintf("Selected %s %d at (%d,%d)", m.Kind, m.ID, m.X, m.Y)}
		return res
	case ActionCreateVehicle:
		return ws.CreateVehicle(cmd.X, cmd.Y)
	case ActionCreateCrane:
		return ws.CreateCrane(cmd.X, cmd.Y)
	}

	m := ws.SelectedMachine()
	if m == nil {
		return fail(CategoryCapability, ReasonNoSelection, "No machine selected")
	}

	switch cmd.Action {
	case ActionMoveVehicle, ActionLoadVehicle, ActionUnloadVehicle,
		ActionDemolishVehicle, ActionSmartLoad, ActionSmartUnload:
		if !m.IsVehicle() {
			return fail(CategoryCapability, ReasonWrongMachine, "%s needs a vehicle, %s %d is selected", cmd.Action, m.Kind, m.ID)
		}
	case ActionMoveHook, ActionAttachHook, ActionDetachHook, ActionDemolishCrane:
		if !m.IsCrane() {
			return fail(CategoryCapability, ReasonWrongMachine, "%s needs a crane, %s %d is selected", cmd.Action, m.Kind, m.ID)
		}
	}

	switch cmd.Action {
	case ActionMoveVehicle:
		return ws.MoveVehicle(m, cmd.Direction)
	case ActionLoadVehicle:
		return ws.LoadVehicle(m, cmd.Direction)
	case ActionUnloadVehicle:
		return ws.UnloadVehicle(m, cmd.Direction)
	case ActionSmartLoad:
		return ws.SmartLoad(m)
	case ActionSmartUnload:
		return ws.SmartUnload(m, cmd.Reverse)
	case ActionDemolishVehicle:
		return ws.DemolishVehicle(m)
	case ActionMoveHook:
		return ws.MoveHook(m, cmd.Direction)
	case ActionAttachHook:
		return ws.AttachHook(m)
	case ActionDetachHook:
		return ws.DetachHook(m)
	case ActionDemolishCrane:
		return ws.DemolishCrane(m)
	}

	return fail(CategoryCapability, ReasonUnknownAction, "Unknown action %q", cmd.Action)
}

// ExecuteAll runs commands in order, returning every result
func (e *GameEngine) ExecuteAll(cmds []Command) []Result {
	results := make([]Result, 0, len(cmds))
	for _, cmd := range cmds {
		results = append(results, e.Execute(cmd))
	}
	return results
}

// OccupantsAt lists everything at a cell
func (e *GameEngine) OccupantsAt(x, y int) []Occupant {
	return e.state.OccupantsAt(x, y)
}

// GetMachines returns the machine registry in creation order
func (e *GameEngine) GetMachines() []*Machine {
	return e.state.Machines
}

// GetOverlaps returns the current overlap report
func (e *GameEngine) GetOverlaps() []Overlap {
	return e.state.DetectOverlaps()
}

// GetConfig returns the current world configuration
func (e *GameEngine) GetConfig() *WorldConfig {
	return e.config
}

// SetConfig sets a new world configuration and rebuilds the world
func (e *GameEngine) SetConfig(config *WorldConfig) error {
	if err := ValidateWorldConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = InitWorldFromConfig(config, nil)
	return nil
}

// GetHistory returns the complete action history
func (e *GameEngine) GetHistory() []HistoryEntry {
	return e.state.History
}

// GetLastAction returns the last recorded action, or nil if none
func (e *GameEngine) GetLastAction() *HistoryEntry {
	if len(e.state.History) == 0 {
		return nil
	}
	return &e.state.History[len(e.state.History)-1]
}

// AddToHistory appends an executed command to the history
func (ws *WorldState) AddToHistory(cmd Command, res Result) {
	ws.TotalActions++
	entry := HistoryEntry{
		Action:         cmd.Action,
		Machine:        res.Machine,
		Direction:      cmd.Direction,
		Success:        res.Success,
		Message:        res.Message,
		Wood:           ws.Wood,
		OperationCount: ws.OperationCount,
		Timestamp:      time.Now().Unix(),
		ActionNumber:   ws.TotalActions,
	}
	if entry.Machine == 0 {
		entry.Machine = ws.Selected
	}

	ws.History = append(ws.History, entry)
	if len(ws.History) > MaxHistory {
		ws.History = ws.History[len(ws.History)-MaxHistory:]
	}
	ws.CurrentActions = append(ws.CurrentActions, entry)
	ws.CurrentActionsCount++
}
