package engine

// BlockKind represents the terrain content of a single grid cell
type BlockKind string

const (
	Air   BlockKind = "air"
	Dirt  BlockKind = "dirt"
	Stone BlockKind = "stone"
	Tree  BlockKind = "tree"
	Wood  BlockKind = "wood"

	// Validation constants
	MinWorldWidth  = 5
	MaxWorldWidth  = 64
	MinWorldHeight = 5
	MaxWorldHeight = 48
	MaxHistory     = 1000
	MaxBulkActions = 50
)

// Solid reports whether the block can carry a machine standing on it
func (b BlockKind) Solid() bool {
	return b == Dirt || b == Stone
}

// Position represents x,y coordinates; y grows downward
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction names a one-cell step
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Opposite returns the reverse direction
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Up:
		return Down
	case Down:
		return Up
	}
	return d
}

// Horizontal reports whether the direction is left or right
func (d Direction) Horizontal() bool {
	return d == Left || d == Right
}

// Dx returns the x offset for a horizontal direction
func (d Direction) Dx() int {
	switch d {
	case Left:
		return -1
	case Right:
		return 1
	}
	return 0
}

// MachineID is a stable handle issued when a machine is built. IDs start at 1
// and are never reused within a world, so 0 means "no machine".
type MachineID int

// MachineKind distinguishes vehicles from cranes
type MachineKind string

const (
	KindVehicle MachineKind = "vehicle"
	KindCrane   MachineKind = "crane"
)

// Slot is a single cargo slot
type Slot struct {
	Loaded bool      `json:"loaded"`
	Block  BlockKind `json:"block,omitempty"`
}

// Empty reports whether nothing is carried
func (s Slot) Empty() bool {
	return !s.Loaded
}

// Put fills the slot. Air is treated as clearing it.
func (s *Slot) Put(b BlockKind) {
	if b == Air || b == "" {
		s.Clear()
		return
	}
	s.Loaded = true
	s.Block = b
}

// Take empties the slot and returns what it held
func (s *Slot) Take() BlockKind {
	b := s.Content()
	s.Clear()
	return b
}

// Clear empties the slot
func (s *Slot) Clear() {
	s.Loaded = false
	s.Block = ""
}

// Content returns the carried block, or Air when empty
func (s Slot) Content() BlockKind {
	if !s.Loaded {
		return Air
	}
	return s.Block
}

// Machine is either a vehicle or a crane. Vehicles use X, Y and Cargo; cranes
// use X, Y as the base position plus HookY, Base and Hook.
type Machine struct {
	ID    MachineID   `json:"id"`
	Kind  MachineKind `json:"kind"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Cargo Slot        `json:"cargo"`

	// Vehicle only
	LastMove Direction `json:"last_move,omitempty"`

	// Crane only
	HookY int  `json:"hook_y,omitempty"`
	Base  Slot `json:"base"`
	Hook  Slot `json:"hook"`
}

// IsVehicle reports whether the machine is a vehicle
func (m *Machine) IsVehicle() bool { return m.Kind == KindVehicle }

// IsCrane reports whether the machine is a crane
func (m *Machine) IsCrane() bool { return m.Kind == KindCrane }

// Position returns the vehicle position or the crane base position
func (m *Machine) Position() Position {
	return Position{X: m.X, Y: m.Y}
}

// HookPosition returns the crane hook cell
func (m *Machine) HookPosition() Position {
	return Position{X: m.X, Y: m.HookY}
}

// Content returns what the machine carries. For cranes the base wins over the hook.
func (m *Machine) Content() BlockKind {
	if m.IsCrane() {
		if m.Base.Loaded {
			return m.Base.Content()
		}
		return m.Hook.Content()
	}
	return m.Cargo.Content()
}

// CanAccept reports whether the machine has room for content
func (m *Machine) CanAccept() bool {
	if m.IsCrane() {
		return m.Base.Empty() && m.Hook.Empty()
	}
	return m.Cargo.Empty()
}

// Empty reports whether no slot on the machine holds cargo
func (m *Machine) Empty() bool {
	if m.IsCrane() {
		return m.Base.Empty() && m.Hook.Empty()
	}
	return m.Cargo.Empty()
}

// Command is a single inbound engine operation
type Command struct {
	Action    string    `json:"action"`
	Machine   MachineID `json:"machine,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	X         int       `json:"x,omitempty"`
	Y         int       `json:"y,omitempty"`
	Reverse   bool      `json:"reverse,omitempty"`
}

// Action names accepted by GameEngine.Execute
const (
	ActionSelect          = "select"
	ActionCreateVehicle   = "create_vehicle"
	ActionCreateCrane     = "create_crane"
	ActionMoveVehicle     = "move_vehicle"
	ActionMoveHook        = "move_hook"
	ActionLoadVehicle     = "load_vehicle"
	ActionUnloadVehicle   = "unload_vehicle"
	ActionAttachHook      = "attach_hook"
	ActionDetachHook      = "detach_hook"
	ActionDemolishVehicle = "demolish_vehicle"
	ActionDemolishCrane   = "demolish_crane"
	ActionSmartLoad       = "smart_load"
	ActionSmartUnload     = "smart_unload"
)

// Actions lists every action name in a stable order
var Actions = []string{
	ActionSelect,
	ActionCreateVehicle,
	ActionCreateCrane,
	ActionMoveVehicle,
	ActionMoveHook,
	ActionLoadVehicle,
	ActionUnloadVehicle,
	ActionAttachHook,
	ActionDetachHook,
	ActionDemolishVehicle,
	ActionDemolishCrane,
	ActionSmartLoad,
	ActionSmartUnload,
}

// OverlapKind tells which part of the machines coincide
type OverlapKind string

const (
	OverlapBase OverlapKind = "base"
	OverlapHook OverlapKind = "hook"
)

// Overlap records two machines sharing one cell
type Overlap struct {
	Kind     OverlapKind `json:"kind"`
	First    MachineID   `json:"first"`
	Second   MachineID   `json:"second"`
	Position Position    `json:"position"`
}

// WorldState represents the complete world state
type WorldState struct {
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Grid           Grid       `json:"grid"`
	Machines       []*Machine `json:"machines"`
	Wood           int        `json:"wood"`
	OperationCount int        `json:"operation_count"`
	Message        string     `json:"message"`
	Selected       MachineID  `json:"selected,omitempty"`
	NextMachineID  MachineID  `json:"next_machine_id"`
	ConfigName     string     `json:"config_name"`

	// History is cumulative across resets; CurrentActions only covers the
	// actions since the last reset.
	History             []HistoryEntry `json:"history"`
	TotalActions        int            `json:"total_actions"`
	CurrentActions      []HistoryEntry `json:"current_actions"`
	CurrentActionsCount int            `json:"current_actions_count"`

	// Computed views
	Overlaps  []Overlap `json:"overlaps,omitempty"`
	TreeCount int       `json:"tree_count"`

	rules *Rules
	rng   Random
}

// HistoryEntry represents one executed command
type HistoryEntry struct {
	Action         string    `json:"action"`
	Machine        MachineID `json:"machine,omitempty"`
	Direction      Direction `json:"direction,omitempty"`
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	Wood           int       `json:"wood"`
	OperationCount int       `json:"operation_count"`
	Timestamp      int64     `json:"timestamp"`
	ActionNumber   int       `json:"action_number"`
}
