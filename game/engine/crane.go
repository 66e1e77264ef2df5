package engine

import "fmt"

// MoveHook raises or lowers a crane hook by one row. The hook never rises
// above its base and a loaded hook cannot pass anything that blocks it.
func (ws *WorldState) MoveHook(c *Machine, dir Direction) Result {
	var newY int
	switch dir {
	case Up:
		newY = c.HookY - 1
	case Down:
		newY = c.HookY + 1
	default:
		return fail(CategoryCapability, ReasonInvalidDirection, "Hooks move up or down, not %q", dir)
	}

	if !ws.Grid.InBounds(c.X, newY) {
		return fail(CategoryBoundary, ReasonOutOfBounds, "Cannot move hook %s: edge of the world", dir)
	}
	if dir == Up && newY < c.Y {
		return fail(CategoryBoundary, ReasonAboveBase, "Cannot move hook above its base")
	}
	if c.Hook.Loaded && ws.pathBlockedFor(c.ID, c.HookY, newY, c.X) {
		return fail(CategoryOccupancy, ReasonPathBlocked, "Cannot move hook %s: path blocked", dir)
	}

	c.HookY = newY

	res := succeed(fmt.Sprintf("Crane %d hook moved %s to row %d", c.ID, dir, c.HookY))
	res.Machine = c.ID
	ws.tick(&res)
	return res
}

// AttachHook picks up whatever the hook cell holds: a loaded base first, then
// a loaded vehicle, then terrain
func (ws *WorldState) AttachHook(c *Machine) Result {
	if c.Hook.Loaded {
		return fail(CategoryCapability, ReasonSlotFull, "Crane %d hook is already carrying %s", c.ID, c.Hook.Block)
	}
	if ws.vehicleAt(c.X, c.HookY-1) != nil {
		return fail(CategorySafety, ReasonVehicleAbove, "Cannot attach: a vehicle stands above the hook")
	}

	var base, vehicle *Machine
	terrain := Air
	for _, o := range ws.OccupantsAt(c.X, c.HookY) {
		switch {
		case o.Kind == OccCraneBase && o.Loaded && base == nil:
			base = ws.Machine(o.Owner)
		case o.Kind == OccVehicle && o.Loaded && vehicle == nil:
			vehicle = ws.Machine(o.Owner)
		case o.Kind == OccTerrain:
			terrain = o.Block
		}
	}

	var content BlockKind
	var source string
	switch {
	case base != nil:
		content = base.Base.Take()
		source = fmt.Sprintf("crane %d base", base.ID)
	case vehicle != nil:
		content = vehicle.Cargo.Take()
		source = fmt.Sprintf("vehicle %d", vehicle.ID)
	case terrain != Air:
		content = terrain
		ws.Grid.Set(c.X, c.HookY, Air)
		source = "the ground"
	default:
		return fail(CategoryOccupancy, ReasonNoSource, "Nothing to attach at the hook")
	}

	c.Hook.Put(content)

	res := succeed(fmt.Sprintf("Crane %d hook picked up %s from %s", c.ID, content, source))
	res.Machine = c.ID
	ws.tick(&res)
	return res
}

// DetachHook releases the hook cargo into an empty base at the hook cell, or
// onto Air terrain
func (ws *WorldState) DetachHook(c *Machine) Result {
	if c.Hook.Empty() {
		return fail(CategoryCapability, ReasonSlotEmpty, "Crane %d hook has nothing to release", c.ID)
	}
	if ws.vehicleAt(c.X, c.HookY) != nil {
		return fail(CategorySafety, ReasonVehicleInCell, "Cannot release: a vehicle is at the hook")
	}

	var res Result
	if base := ws.emptyBaseAt(c.X, c.HookY); base != nil {
		content := c.Hook.Take()
		base.Base.Put(content)
		res = succeed(fmt.Sprintf("Crane %d hook released %s onto crane %d base", c.ID, content, base.ID))
	} else if ws.Grid.At(c.X, c.HookY) == Air {
		content := c.Hook.Take()
		ws.Grid.Set(c.X, c.HookY, content)
		res = succeed(fmt.Sprintf("Crane %d hook released %s at (%d,%d)", c.ID, content, c.X, c.HookY))
	} else {
		return fail(CategoryOccupancy, ReasonOccupied, "Cannot release: position occupied")
	}

	res.Machine = c.ID
	ws.tick(&res)
	return res
}
