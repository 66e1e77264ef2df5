package engine

import "math"

// TreeGrownMessage is appended to the result message when a tree sprouts
const TreeGrownMessage = "A new tree has grown!"

// GrowthChance returns the probability of a tree sprouting with the given
// number of trees already standing
func (g GrowthConfig) GrowthChance(trees int) float64 {
	return math.Min(g.BaseChance+g.PerTreeChance*float64(trees), g.MaxChance)
}

// GrowthCandidates lists the cells where a tree could sprout, column by column
func (ws *WorldState) GrowthCandidates() []Position {
	radius := ws.Rules().Growth.Radius
	w, h := ws.Grid.Width(), ws.Grid.Height()

	var candidates []Position
	for x := 0; x < w; x++ {
		for y := 1; y < h-1; y++ {
			if ws.machinePartAt(x, y) {
				continue
			}
			if ws.Grid.At(x, y) != Air || ws.Grid.At(x, y+1) != Dirt {
				continue
			}
			if !ws.openSky(x, y) {
				continue
			}
			if !ws.treeWithin(x, y, radius) {
				continue
			}
			candidates = append(candidates, Position{X: x, Y: y})
		}
	}
	return candidates
}

// tryGrowTree rolls once for a new tree
func (ws *WorldState) tryGrowTree() (Position, bool) {
	chance := ws.Rules().Growth.GrowthChance(ws.Grid.Count(Tree))
	candidates := ws.GrowthCandidates()
	if len(candidates) == 0 {
		return Position{}, false
	}
	if ws.rng == nil {
		ws.rng = NewRandom(0)
	}
	if ws.rng.Float64() >= chance {
		return Position{}, false
	}

	pos := candidates[ws.rng.Intn(len(candidates))]
	ws.Grid.Set(pos.X, pos.Y, Tree)
	return pos, true
}

func (ws *WorldState) machinePartAt(x, y int) bool {
	for _, o := range ws.OccupantsAt(x, y) {
		if o.IsMachinePart() {
			return true
		}
	}
	return false
}

func (ws *WorldState) openSky(x, y int) bool {
	for above := 0; above < y; above++ {
		if ws.Grid.At(x, above) != Air {
			return false
		}
	}
	return true
}

func (ws *WorldState) treeWithin(x, y, radius int) bool {
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if ws.Grid.InBounds(x+dx, y+dy) && ws.Grid.At(x+dx, y+dy) == Tree {
				return true
			}
		}
	}
	return false
}
