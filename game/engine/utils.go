package engine

import (
	"fmt"
	"sort"
	"strings"
)

// ChebyshevDistance returns the king-move distance between two positions
func ChebyshevDistance(from, to Position) int {
	dx := abs(from.X - to.X)
	dy := abs(from.Y - to.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// CountBlocks tallies every block kind in the grid
func CountBlocks(grid Grid) map[BlockKind]int {
	counts := make(map[BlockKind]int)
	for _, row := range grid {
		for _, cell := range row {
			counts[cell]++
		}
	}
	return counts
}

// BuildableColumns lists the columns where a machine dropped from the top row
// would land on dirt or stone
func BuildableColumns(ws *WorldState) []Position {
	var spots []Position
	for x := 0; x < ws.Grid.Width(); x++ {
		if pos, res := ws.ResolvePlacement(x, 0); res.Success {
			spots = append(spots, pos)
		}
	}
	return spots
}

// ReachablePositions walks the vehicle movement rules from v's position and
// returns every cell the vehicle could drive to, ordered by column. The world
// is not modified.
func ReachablePositions(ws *WorldState, v *Machine) []Position {
	start := v.Position()
	seen := map[Position]bool{start: true}
	queue := []Position{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dir := range []Direction{Left, Right} {
			x := cur.X + dir.Dx()
			if !ws.Grid.InBounds(x, cur.Y) {
				continue
			}
			y, legal := ws.resolveVehicleStep(x, cur.Y)
			next := Position{X: x, Y: y}
			if !legal || seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}

	out := make([]Position, 0, len(seen))
	for pos := range seen {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// RenderASCII draws the world with one character per cell. Machines are drawn
// over terrain: V/v loaded/empty vehicle, C/c crane base, H/h hook.
func RenderASCII(ws *WorldState) string {
	var sb strings.Builder
	for y := 0; y < ws.Grid.Height(); y++ {
		for x := 0; x < ws.Grid.Width(); x++ {
			sb.WriteRune(cellSymbol(ws.PrimaryOccupantAt(x, y)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellSymbol(o Occupant) rune {
	pick := func(loaded, empty rune) rune {
		if o.Loaded {
			return loaded
		}
		return empty
	}
	switch o.Kind {
	case OccCraneHook:
		return pick('H', 'h')
	case OccCraneBase:
		return pick('C', 'c')
	case OccVehicle:
		return pick('V', 'v')
	case OccTerrain:
		return o.Block.Symbol()
	}
	return '.'
}

// DescribeMachine returns a one-line summary of a machine
func DescribeMachine(m *Machine) string {
	if m.IsCrane() {
		return fmt.Sprintf("crane %d base (%d,%d) [%s] hook row %d [%s]",
			m.ID, m.X, m.Y, slotLabel(m.Base), m.HookY, slotLabel(m.Hook))
	}
	return fmt.Sprintf("vehicle %d at (%d,%d) [%s]", m.ID, m.X, m.Y, slotLabel(m.Cargo))
}

func slotLabel(s Slot) string {
	if s.Empty() {
		return "empty"
	}
	return string(s.Block)
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
