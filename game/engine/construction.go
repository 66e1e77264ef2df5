package engine

import "fmt"

// ResolvePlacement finds where a machine clicked at (x, y) would settle: the
// clicked Air cell dropped down until the cell below is no longer Air. The
// settled cell must rest on Dirt or Stone.
func (ws *WorldState) ResolvePlacement(x, y int) (Position, Result) {
	h := ws.Grid.Height()
	if !ws.Grid.InBounds(x, y) {
		return Position{}, fail(CategoryBoundary, ReasonOutOfBounds, "Cannot build outside the world at (%d,%d)", x, y)
	}
	if ws.Grid.At(x, y) != Air {
		return Position{}, fail(CategoryOccupancy, ReasonOccupied, "Cannot build inside %s at (%d,%d)", ws.Grid.At(x, y), x, y)
	}

	groundY := y
	for groundY < h-1 && ws.Grid.At(x, groundY+1) == Air {
		groundY++
	}

	if groundY >= h-1 || !ws.Grid.At(x, groundY+1).Solid() {
		return Position{}, fail(CategoryOccupancy, ReasonNoSurface, "No dirt or stone to build on below (%d,%d)", x, y)
	}

	for _, m := range ws.Machines {
		if m.X == x && m.Y == groundY {
			return Position{}, fail(CategoryOccupancy, ReasonOccupied, "A machine already stands at (%d,%d)", x, groundY)
		}
	}

	return Position{X: x, Y: groundY}, Result{Success: true}
}

// CreateVehicle builds a vehicle at the resolved placement and selects it
func (ws *WorldState) CreateVehicle(x, y int) Result {
	return ws.build(KindVehicle, x, y)
}

// CreateCrane builds a crane with its hook parked at the base and selects it
func (ws *WorldState) CreateCrane(x, y int) Result {
	return ws.build(KindCrane, x, y)
}

func (ws *WorldState) build(kind MachineKind, x, y int) Result {
	cost := ws.cost(kind)
	if ws.Wood < cost {
		return fail(CategoryResources, ReasonInsufficientWood, "Not enough wood to build a %s: need %d, have %d", kind, cost, ws.Wood)
	}

	pos, res := ws.ResolvePlacement(x, y)
	if !res.Success {
		return res
	}

	m := &Machine{Kind: kind, X: pos.X, Y: pos.Y}
	if kind == KindCrane {
		m.HookY = pos.Y
	}
	ws.addMachine(m)
	ws.Wood -= cost
	ws.Selected = m.ID

	res = succeed(fmt.Sprintf("Built %s %d at (%d,%d) for %d wood", kind, m.ID, pos.X, pos.Y, cost))
	res.Machine = m.ID
	res.Created = m.ID
	res.WoodDelta = -cost
	return res
}

// DemolishVehicle removes an empty vehicle and refunds its cost
func (ws *WorldState) DemolishVehicle(v *Machine) Result {
	if v.Cargo.Loaded {
		return fail(CategoryCapability, ReasonSlotFull, "Unload vehicle %d before demolishing it", v.ID)
	}
	return ws.demolish(v)
}

// DemolishCrane removes a crane whose hook is parked at the base and whose
// slots are empty, refunding its cost
func (ws *WorldState) DemolishCrane(c *Machine) Result {
	if c.HookY != c.Y {
		return fail(CategoryCapability, ReasonHookNotParked, "Raise crane %d hook to its base before demolishing it", c.ID)
	}
	if !c.Empty() {
		return fail(CategoryCapability, ReasonSlotFull, "Empty crane %d before demolishing it", c.ID)
	}
	return ws.demolish(c)
}

func (ws *WorldState) demolish(m *Machine) Result {
	refund := ws.cost(m.Kind)
	ws.removeMachine(m.ID)
	ws.Wood += refund
	ws.Selected = 0

	res := succeed(fmt.Sprintf("Demolished %s %d, refunded %d wood", m.Kind, m.ID, refund))
	res.Machine = m.ID
	res.Demolished = m.ID
	res.WoodDelta = refund
	return res
}

func (ws *WorldState) cost(kind MachineKind) int {
	rules := ws.Rules()
	if kind == KindCrane {
		return rules.CraneCost
	}
	return rules.VehicleCost
}
