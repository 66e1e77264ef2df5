package engine

// IsPathBlocked reports whether a loaded hook starting at (x, fromY) may not
// travel to toY. The moving crane is the first crane whose hook sits at
// (x, fromY). The start cell is never inspected.
func (ws *WorldState) IsPathBlocked(fromY, toY, x int) bool {
	var mover MachineID
	for _, m := range ws.Machines {
		if m.IsCrane() && m.X == x && m.HookY == fromY {
			mover = m.ID
			break
		}
	}
	return ws.pathBlockedFor(mover, fromY, toY, x)
}

func (ws *WorldState) pathBlockedFor(mover MachineID, fromY, toY, x int) bool {
	if fromY == toY {
		return false
	}

	step := 1
	if toY < fromY {
		step = -1
	}

	for y := fromY + step; ; y += step {
		if ws.cellBlocksHook(mover, x, y) {
			return true
		}
		if y == toY {
			break
		}
	}
	return false
}

func (ws *WorldState) cellBlocksHook(mover MachineID, x, y int) bool {
	if !ws.Grid.InBounds(x, y) {
		return true
	}

	for _, o := range ws.OccupantsAt(x, y) {
		switch o.Kind {
		case OccTerrain:
			return true
		case OccCraneHook:
			if o.Owner != mover && o.Loaded {
				return true
			}
		case OccCraneBase:
			if o.Loaded {
				return true
			}
		case OccVehicle:
			if IsBlocking(o) {
				return true
			}
		}
	}
	return false
}
