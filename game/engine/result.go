package engine

import "fmt"

// FailureCategory groups rule failures
type FailureCategory string

const (
	CategoryNone       FailureCategory = ""
	CategoryBoundary   FailureCategory = "boundary"
	CategoryOccupancy  FailureCategory = "occupancy"
	CategoryCapability FailureCategory = "capability"
	CategorySafety     FailureCategory = "safety"
	CategoryResources  FailureCategory = "resources"
)

// Reason is a fine-grained failure code
type Reason string

const (
	ReasonOutOfBounds       Reason = "out_of_bounds"
	ReasonAboveBase         Reason = "above_base"
	ReasonPathBlocked       Reason = "path_blocked"
	ReasonTerrainUnsuitable Reason = "terrain_unsuitable"
	ReasonSlotFull          Reason = "slot_full"
	ReasonSlotEmpty         Reason = "slot_empty"
	ReasonNoSource          Reason = "no_source"
	ReasonNoDestination     Reason = "no_destination"
	ReasonVehicleAbove      Reason = "vehicle_above"
	ReasonVehicleInCell     Reason = "vehicle_in_cell"
	ReasonHookNotParked     Reason = "hook_not_parked"
	ReasonOccupied          Reason = "occupied"
	ReasonNoSurface         Reason = "no_surface"
	ReasonInsufficientWood  Reason = "insufficient_wood"
	ReasonNoSelection       Reason = "no_selection"
	ReasonWrongMachine      Reason = "wrong_machine"
	ReasonInvalidDirection  Reason = "invalid_direction"
	ReasonUnknownAction     Reason = "unknown_action"
	ReasonUnknownMachine    Reason = "unknown_machine"
)

// Result is what every engine operation reports back
type Result struct {
	Action   string          `json:"action"`
	Success  bool            `json:"success"`
	Changed  bool            `json:"changed"`
	Message  string          `json:"message"`
	Category FailureCategory `json:"category,omitempty"`
	Reason   Reason          `json:"reason,omitempty"`

	// Set by successful operations
	Machine    MachineID `json:"machine,omitempty"`
	WoodDelta  int       `json:"wood_delta,omitempty"`
	TreeGrown  *Position `json:"tree_grown,omitempty"`
	Created    MachineID `json:"created,omitempty"`
	Demolished MachineID `json:"demolished,omitempty"`
}

func succeed(msg string) Result {
	return Result{Success: true, Changed: true, Message: msg}
}

func fail(category FailureCategory, reason Reason, format string, args ...interface{}) Result {
	return Result{
		Success:  false,
		Category: category,
		Reason:   reason,
		Message:  fmt.Sprintf(format, args...),
	}
}
