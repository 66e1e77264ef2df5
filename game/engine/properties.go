package engine

// OccupantKind tags the variant held by an Occupant
type OccupantKind string

const (
	OccAir       OccupantKind = "air"
	OccTerrain   OccupantKind = "terrain"
	OccCraneBase OccupantKind = "crane_base"
	OccCraneHook OccupantKind = "crane_hook"
	OccVehicle   OccupantKind = "vehicle"
)

// Occupant is one thing found at a cell: a terrain block or a view of a
// machine part. Owner, Loaded and Cargo are only meaningful for machine parts.
type Occupant struct {
	Kind     OccupantKind `json:"kind"`
	Position Position     `json:"position"`
	Block    BlockKind    `json:"block,omitempty"`
	Owner    MachineID    `json:"owner,omitempty"`
	Loaded   bool         `json:"loaded"`
	Cargo    BlockKind    `json:"cargo,omitempty"`
}

// IsMachinePart reports whether the occupant is a view of a machine
func (o Occupant) IsMachinePart() bool {
	switch o.Kind {
	case OccCraneBase, OccCraneHook, OccVehicle:
		return true
	}
	return false
}

// IsContainer reports whether the occupant is structurally able to carry cargo
func IsContainer(o Occupant) bool {
	switch o.Kind {
	case OccVehicle, OccCraneBase, OccCraneHook:
		return true
	case OccTerrain, OccAir:
		return false
	}
	return false
}

// IsLoadable reports whether the occupant can serve as a cargo source
func IsLoadable(o Occupant) bool {
	switch o.Kind {
	case OccTerrain:
		return o.Block != Air
	case OccCraneBase, OccCraneHook, OccVehicle:
		return o.Loaded
	case OccAir:
		return false
	}
	return false
}

// IsSurface reports whether a vehicle can stand on the occupant
func IsSurface(o Occupant) bool {
	switch o.Kind {
	case OccTerrain:
		return o.Block.Solid()
	case OccCraneBase:
		return o.Loaded
	case OccCraneHook, OccVehicle, OccAir:
		return false
	}
	return false
}

// IsBlocking reports whether the occupant obstructs a hook by itself.
// Crane parts never do; crane obstruction is decided by IsPathBlocked.
func IsBlocking(o Occupant) bool {
	switch o.Kind {
	case OccTerrain:
		return o.Block != Air
	case OccVehicle:
		return o.Loaded
	case OccCraneBase, OccCraneHook, OccAir:
		return false
	}
	return false
}

// ContentOf returns what the occupant holds. A parked hook shares its base's
// cell, and there the base content wins over the hook content.
func (ws *WorldState) ContentOf(o Occupant) BlockKind {
	switch o.Kind {
	case OccTerrain:
		return o.Block
	case OccVehicle:
		if !o.Loaded {
			return Air
		}
		return o.Cargo
	case OccCraneBase, OccCraneHook:
		m := ws.Machine(o.Owner)
		if m == nil {
			if o.Loaded {
				return o.Cargo
			}
			return Air
		}
		if m.HookY == m.Y {
			return m.Content()
		}
		if o.Kind == OccCraneBase {
			return m.Base.Content()
		}
		return m.Hook.Content()
	}
	return Air
}

// CanAcceptContent reports whether the occupant can take cargo right now
func (ws *WorldState) CanAcceptContent(o Occupant) bool {
	switch o.Kind {
	case OccVehicle:
		return !o.Loaded
	case OccCraneBase, OccCraneHook:
		m := ws.Machine(o.Owner)
		return m != nil && m.CanAccept()
	}
	return false
}

// isUnloadedPart reports whether the occupant is an empty crane part of the
// given kinds
func isUnloadedPart(o Occupant, kinds ...OccupantKind) bool {
	if o.Loaded {
		return false
	}
	for _, k := range kinds {
		if o.Kind == k {
			return true
		}
	}
	return false
}
