// Command analyze prints quick, human-readable heuristics about world config
// files. It summarizes dimensions and stock, counts trees, lists where trees
// can grow and how likely growth is, and shows which trees the starting
// vehicles can actually drive up to.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/blockyard/game/engine"
)

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
			matches, _ := filepath.Glob(filepath.Join("configs", pattern))
			files = append(files, matches...)
		}
		sort.Strings(files)
	}

	failed := false
	for _, configFile := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(configFile))
		if err := analyzeConfig(os.Stdout, configFile); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func analyzeConfig(w io.Writer, path string) error {
	config, err := engine.LoadWorldConfig(path)
	if err != nil {
		return err
	}

	seed := config.Seed
	if seed == 0 {
		seed = 1
	}
	ws := engine.InitWorldFromConfig(config, engine.NewRandom(seed))
	growth := config.Growth

	fmt.Fprintf(w, "Name: %s\n", config.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", config.Width, config.Height)
	fmt.Fprintf(w, "Starting Wood: %d (vehicle %d, crane %d)\n", config.StartingWood, config.VehicleCost, config.CraneCost)

	trees := treePositions(ws.Grid)
	fmt.Fprintf(w, "Trees: %d\n", len(trees))

	// Growth
	candidates := ws.GrowthCandidates()
	chance := growth.GrowthChance(len(trees))
	fmt.Fprintf(w, "Growth: every %d ops, chance %.0f%% now (max %.0f%%), radius %d\n",
		growth.Interval, chance*100, growth.MaxChance*100, growth.Radius)
	fmt.Fprintf(w, "Growth Candidates: %d\n", len(candidates))
	if len(candidates) == 0 {
		fmt.Fprintf(w, "⚠️  WARNING: no cell can grow a tree; wood is limited to the starting stock and existing trees\n")
	} else if chance > 0 {
		fmt.Fprintf(w, "   Expected ops per new tree: ~%.0f\n", float64(growth.Interval)/chance)
	}

	// Placement
	buildable := engine.BuildableColumns(ws)
	fmt.Fprintf(w, "Buildable Columns: %d of %d\n", len(buildable), config.Width)

	// Which trees can a vehicle reach?
	if len(ws.Machines) == 0 {
		fmt.Fprintf(w, "⚠️  WARNING: no starting vehicles\n")
		return nil
	}

	reachable := make(map[engine.Position]bool)
	for _, v := range ws.Machines {
		cells := engine.ReachablePositions(ws, v)
		fmt.Fprintf(w, "Vehicle %d at (%d, %d): %d reachable cells\n", v.ID, v.X, v.Y, len(cells))
		for _, c := range cells {
			reachable[c] = true
		}
	}

	var unreachable []engine.Position
	for _, tree := range trees {
		if !harvestable(tree, reachable) {
			unreachable = append(unreachable, tree)
		}
	}

	if len(unreachable) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d trees cannot be harvested by the starting vehicles\n", len(unreachable))
		for i, p := range unreachable {
			if i < 5 {
				fmt.Fprintf(w, "   Unreachable tree: (%d, %d)\n", p.X, p.Y)
			}
		}
		if len(unreachable) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(unreachable)-5)
		}
	} else {
		fmt.Fprintf(w, "✅ Every tree is next to a cell a starting vehicle can reach\n")
	}
	return nil
}

func treePositions(grid engine.Grid) []engine.Position {
	var trees []engine.Position
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			if grid.At(x, y) == engine.Tree {
				trees = append(trees, engine.Position{X: x, Y: y})
			}
		}
	}
	return trees
}

// harvestable reports whether a vehicle can stand beside the tree
func harvestable(tree engine.Position, reachable map[engine.Position]bool) bool {
	for _, dx := range []int{-1, 1} {
		if reachable[engine.Position{X: tree.X + dx, Y: tree.Y}] {
			return true
		}
	}
	return false
}
