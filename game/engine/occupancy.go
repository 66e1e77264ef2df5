package engine

// OccupantsAt lists everything at (x, y): the terrain block when it is not
// Air, then one view per machine part in registry order. For a crane the hook
// view precedes the base view.
func (ws *WorldState) OccupantsAt(x, y int) []Occupant {
	if !ws.Grid.InBounds(x, y) {
		return nil
	}

	pos := Position{X: x, Y: y}
	var occupants []Occupant

	if b := ws.Grid.At(x, y); b != Air {
		occupants = append(occupants, Occupant{Kind: OccTerrain, Position: pos, Block: b})
	}

	for _, m := range ws.Machines {
		if m.X != x {
			continue
		}
		switch m.Kind {
		case KindCrane:
			if m.HookY == y {
				occupants = append(occupants, Occupant{
					Kind: OccCraneHook, Position: pos, Owner: m.ID,
					Loaded: m.Hook.Loaded, Cargo: m.Hook.Content(),
				})
			}
			if m.Y == y {
				occupants = append(occupants, Occupant{
					Kind: OccCraneBase, Position: pos, Owner: m.ID,
					Loaded: m.Base.Loaded, Cargo: m.Base.Content(),
				})
			}
		case KindVehicle:
			if m.Y == y {
				occupants = append(occupants, Occupant{
					Kind: OccVehicle, Position: pos, Owner: m.ID,
					Loaded: m.Cargo.Loaded, Cargo: m.Cargo.Content(),
				})
			}
		}
	}

	return occupants
}

var primaryOrder = []OccupantKind{OccCraneHook, OccCraneBase, OccVehicle, OccTerrain}

// PrimaryOccupantAt collapses the cell to a single occupant using the
// priority hook > base > vehicle > terrain > Air
func (ws *WorldState) PrimaryOccupantAt(x, y int) Occupant {
	occupants := ws.OccupantsAt(x, y)
	for _, kind := range primaryOrder {
		for _, o := range occupants {
			if o.Kind == kind {
				return o
			}
		}
	}
	return Occupant{Kind: OccAir, Position: Position{X: x, Y: y}, Block: Air}
}

// IsPositionLoadable reports whether the primary occupant can give cargo
func (ws *WorldState) IsPositionLoadable(x, y int) bool {
	return IsLoadable(ws.PrimaryOccupantAt(x, y))
}

// IsPositionUnloadable reports whether the primary occupant can take cargo:
// Air, or an empty machine part
func (ws *WorldState) IsPositionUnloadable(x, y int) bool {
	if !ws.Grid.InBounds(x, y) {
		return false
	}
	o := ws.PrimaryOccupantAt(x, y)
	switch o.Kind {
	case OccAir:
		return true
	case OccCraneBase, OccCraneHook, OccVehicle:
		return !o.Loaded
	}
	return false
}

// IsPositionSurface reports whether the primary occupant can carry a vehicle
func (ws *WorldState) IsPositionSurface(x, y int) bool {
	return IsSurface(ws.PrimaryOccupantAt(x, y))
}

// anySurface reports whether any occupant at (x, y) is a surface
func (ws *WorldState) anySurface(x, y int) bool {
	for _, o := range ws.OccupantsAt(x, y) {
		if IsSurface(o) {
			return true
		}
	}
	return false
}

// allOccupants reports whether every occupant at (x, y) satisfies keep. An
// empty cell passes; a cell outside the grid does not.
func (ws *WorldState) allOccupants(x, y int, keep func(Occupant) bool) bool {
	if !ws.Grid.InBounds(x, y) {
		return false
	}
	for _, o := range ws.OccupantsAt(x, y) {
		if !keep(o) {
			return false
		}
	}
	return true
}

// vehicleAt returns the first vehicle at (x, y)
func (ws *WorldState) vehicleAt(x, y int) *Machine {
	for _, m := range ws.Machines {
		if m.IsVehicle() && m.X == x && m.Y == y {
			return m
		}
	}
	return nil
}

// Machine returns the machine with the given ID, or nil
func (ws *WorldState) Machine(id MachineID) *Machine {
	if id == 0 {
		return nil
	}
	for _, m := range ws.Machines {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// SelectedMachine returns the selected machine, or nil
func (ws *WorldState) SelectedMachine() *Machine {
	return ws.Machine(ws.Selected)
}
