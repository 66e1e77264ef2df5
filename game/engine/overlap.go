package engine

// DetectOverlaps reports machines anchored on the same cell and hooks sharing
// a cell with another hook or with a vehicle
func (ws *WorldState) DetectOverlaps() []Overlap {
	var overlaps []Overlap

	for i, a := range ws.Machines {
		for _, b := range ws.Machines[i+1:] {
			if a.X == b.X && a.Y == b.Y {
				overlaps = append(overlaps, Overlap{
					Kind: OverlapBase, First: a.ID, Second: b.ID, Position: a.Position(),
				})
			}
		}
	}

	for i, a := range ws.Machines {
		if !a.IsCrane() {
			continue
		}
		hook := a.HookPosition()
		for j, b := range ws.Machines {
			if i == j || b.X != hook.X {
				continue
			}
			switch {
			case b.IsCrane() && j > i && b.HookY == hook.Y:
				overlaps = append(overlaps, Overlap{Kind: OverlapHook, First: a.ID, Second: b.ID, Position: hook})
			case b.IsVehicle() && b.Y == hook.Y:
				overlaps = append(overlaps, Overlap{Kind: OverlapHook, First: a.ID, Second: b.ID, Position: hook})
			}
		}
	}

	return overlaps
}
