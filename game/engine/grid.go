package engine

import (
	"fmt"
	"strings"
)

// Grid holds terrain rows indexed as Grid[y][x]
type Grid [][]BlockKind

// NewGrid creates a grid filled with Air
func NewGrid(width, height int) Grid {
	grid := make(Grid, height)
	for y := range grid {
		grid[y] = make([]BlockKind, width)
		for x := range grid[y] {
			grid[y][x] = Air
		}
	}
	return grid
}

// Width returns the number of columns
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height returns the number of rows
func (g Grid) Height() int {
	return len(g)
}

// InBounds reports whether (x, y) lies inside the grid
func (g Grid) InBounds(x, y int) bool {
	return y >= 0 && y < len(g) && x >= 0 && x < len(g[y])
}

// At returns the block at (x, y), or Air outside the grid
func (g Grid) At(x, y int) BlockKind {
	if !g.InBounds(x, y) {
		return Air
	}
	return g[y][x]
}

// Set writes a block; writes outside the grid are ignored
func (g Grid) Set(x, y int, b BlockKind) {
	if !g.InBounds(x, y) {
		return
	}
	g[y][x] = b
}

// Count returns how many cells hold the given block
func (g Grid) Count(b BlockKind) int {
	count := 0
	for _, row := range g {
		for _, cell := range row {
			if cell == b {
				count++
			}
		}
	}
	return count
}

// Clone returns a deep copy
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for y, row := range g {
		out[y] = append([]BlockKind(nil), row...)
	}
	return out
}

var layoutBlocks = map[rune]BlockKind{
	'.': Air,
	'D': Dirt,
	'S': Stone,
	'T': Tree,
	'W': Wood,
}

var blockSymbols = map[BlockKind]rune{
	Air:   '.',
	Dirt:  'D',
	Stone: 'S',
	Tree:  'T',
	Wood:  'W',
}

// ParseBlock converts a layout character into a block kind
func ParseBlock(c rune) (BlockKind, bool) {
	b, ok := layoutBlocks[c]
	return b, ok
}

// Symbol returns the layout character of a block kind
func (b BlockKind) Symbol() rune {
	if r, ok := blockSymbols[b]; ok {
		return r
	}
	return '?'
}

// GridFromLayout builds a grid from layout rows
func GridFromLayout(layout []string) (Grid, error) {
	grid := make(Grid, len(layout))
	for y, row := range layout {
		grid[y] = make([]BlockKind, 0, len(row))
		for x, c := range row {
			b, ok := ParseBlock(c)
			if !ok {
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", c, y+1, x+1)
			}
			grid[y] = append(grid[y], b)
		}
	}
	return grid, nil
}

// Layout renders the grid back into layout rows
func (g Grid) Layout() []string {
	rows := make([]string, len(g))
	for y, row := range g {
		var sb strings.Builder
		for _, cell := range row {
			sb.WriteRune(cell.Symbol())
		}
		rows[y] = sb.String()
	}
	return rows
}
