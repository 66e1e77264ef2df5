package engine

import "fmt"

// MoveVehicle moves a vehicle one column left or right. A level move wins over
// climbing one block, which wins over dropping one block.
func (ws *WorldState) MoveVehicle(v *Machine, dir Direction) Result {
	if !dir.Horizontal() {
		return fail(CategoryCapability, ReasonInvalidDirection, "Vehicles move left or right, not %q", dir)
	}

	newX := v.X + dir.Dx()
	if !ws.Grid.InBounds(newX, v.Y) {
		return fail(CategoryBoundary, ReasonOutOfBounds, "Cannot move %s: edge of the world", dir)
	}

	newY, legal := ws.resolveVehicleStep(newX, v.Y)
	if !legal {
		return fail(CategoryOccupancy, ReasonTerrainUnsuitable, "Cannot move %s: terrain unsuitable", dir)
	}

	v.X, v.Y = newX, newY
	v.LastMove = dir

	res := succeed(fmt.Sprintf("Vehicle %d moved %s to (%d,%d)", v.ID, dir, v.X, v.Y))
	res.Machine = v.ID
	ws.tick(&res)
	return res
}

// CanMoveVehicle reports whether MoveVehicle would succeed, without mutating
func (ws *WorldState) CanMoveVehicle(v *Machine, dir Direction) bool {
	if !dir.Horizontal() {
		return false
	}
	newX := v.X + dir.Dx()
	if !ws.Grid.InBounds(newX, v.Y) {
		return false
	}
	_, legal := ws.resolveVehicleStep(newX, v.Y)
	return legal
}

// resolveVehicleStep returns the row a vehicle lands on when entering column x
// from row y
func (ws *WorldState) resolveVehicleStep(x, y int) (int, bool) {
	passable := func(o Occupant) bool {
		return isUnloadedPart(o, OccCraneHook, OccCraneBase)
	}

	// Level
	if ws.allOccupants(x, y, passable) && ws.anySurface(x, y+1) {
		return y, true
	}

	// Climb: only an empty hook may share the cell above the step
	if ws.anySurface(x, y) && ws.allOccupants(x, y-1, func(o Occupant) bool {
		return isUnloadedPart(o, OccCraneHook)
	}) {
		return y - 1, true
	}

	// Drop
	if ws.allOccupants(x, y+1, passable) && ws.anySurface(x, y+2) {
		return y + 1, true
	}

	return y, false
}

// LoadVehicle takes content from the neighbouring cell. A loaded crane base is
// preferred over terrain. Trees are harvested into wood instead of cargo.
func (ws *WorldState) LoadVehicle(v *Machine, dir Direction) Result {
	if !dir.Horizontal() {
		return fail(CategoryCapability, ReasonInvalidDirection, "Vehicles load left or right, not %q", dir)
	}
	if v.Cargo.Loaded {
		return fail(CategoryCapability, ReasonSlotFull, "Vehicle %d is already carrying %s", v.ID, v.Cargo.Block)
	}

	x, y := v.X+dir.Dx(), v.Y

	var content BlockKind
	var clearSource func()

	if base := ws.loadedBaseAt(x, y); base != nil {
		content = base.Base.Content()
		clearSource = base.Base.Clear
	} else if b := ws.Grid.At(x, y); ws.Grid.InBounds(x, y) && b != Air {
		content = b
		clearSource = func() { ws.Grid.Set(x, y, Air) }
	} else {
		return fail(CategoryOccupancy, ReasonNoSource, "Nothing to load on the %s", dir)
	}

	clearSource()

	var res Result
	if content == Tree {
		ws.Wood++
		res = succeed("Harvested a tree: +1 wood")
		res.WoodDelta = 1
	} else {
		v.Cargo.Put(content)
		res = succeed(fmt.Sprintf("Vehicle %d loaded %s", v.ID, content))
	}
	res.Machine = v.ID
	ws.tick(&res)
	return res
}

// UnloadVehicle drops the vehicle's cargo into the neighbouring cell. An empty
// crane base is preferred over Air terrain.
func (ws *WorldState) UnloadVehicle(v *Machine, dir Direction) Result {
	if !dir.Horizontal() {
		return fail(CategoryCapability, ReasonInvalidDirection, "Vehicles unload left or right, not %q", dir)
	}
	if v.Cargo.Empty() {
		return fail(CategoryCapability, ReasonSlotEmpty, "Vehicle %d has nothing to unload", v.ID)
	}

	x, y := v.X+dir.Dx(), v.Y

	var res Result
	if base := ws.emptyBaseAt(x, y); base != nil {
		content := v.Cargo.Take()
		base.Base.Put(content)
		res = succeed(fmt.Sprintf("Unloaded %s onto crane %d base", content, base.ID))
	} else if ws.Grid.InBounds(x, y) && ws.Grid.At(x, y) == Air {
		content := v.Cargo.Take()
		ws.Grid.Set(x, y, content)
		res = succeed(fmt.Sprintf("Unloaded %s at (%d,%d)", content, x, y))
	} else {
		return fail(CategoryOccupancy, ReasonNoDestination, "Cannot unload %s: position unavailable", dir)
	}

	res.Machine = v.ID
	ws.tick(&res)
	return res
}

// SmartLoad loads from the side the vehicle last moved toward, falling back to
// the other side when the first has nothing to offer
func (ws *WorldState) SmartLoad(v *Machine) Result {
	dir := preferredSide(v)
	res := ws.LoadVehicle(v, dir)
	if !res.Success && res.Reason == ReasonNoSource {
		res = ws.LoadVehicle(v, dir.Opposite())
	}
	return res
}

// SmartUnload unloads toward the last move direction, or away from it when
// reverse is set, falling back to the other side when there is no room
func (ws *WorldState) SmartUnload(v *Machine, reverse bool) Result {
	dir := preferredSide(v)
	if reverse {
		dir = dir.Opposite()
	}
	res := ws.UnloadVehicle(v, dir)
	if !res.Success && res.Reason == ReasonNoDestination {
		res = ws.UnloadVehicle(v, dir.Opposite())
	}
	return res
}

func preferredSide(v *Machine) Direction {
	if v.LastMove.Horizontal() {
		return v.LastMove
	}
	return Right
}

func (ws *WorldState) loadedBaseAt(x, y int) *Machine {
	for _, o := range ws.OccupantsAt(x, y) {
		if o.Kind == OccCraneBase && o.Loaded {
			return ws.Machine(o.Owner)
		}
	}
	return nil
}

func (ws *WorldState) emptyBaseAt(x, y int) *Machine {
	for _, o := range ws.OccupantsAt(x, y) {
		if o.Kind == OccCraneBase && !o.Loaded {
			return ws.Machine(o.Owner)
		}
	}
	return nil
}
