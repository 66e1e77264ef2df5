package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/blockyard/game/engine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestAnalyzeConfig(t *testing.T) {
	path := writeConfig(t, `{
		"name": "split",
		"description": "Two fields split by a wall",
		"width": 9,
		"height": 6,
		"starting_wood": 1,
		"layout": [
			"....S....",
			"....S....",
			"....S....",
			".T..S..T.",
			"DDDDSDDDD",
			"SSSSSSSSS"
		],
		"vehicles": [{"x": 3, "y": 3}],
		"growth": {"interval": 4, "base_chance": 0.25, "per_tree_chance": 0.25, "max_chance": 0.8, "radius": 2},
		"seed": 5
	}`)

	var buf bytes.Buffer
	if err := analyzeConfig(&buf, path); err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Name: split",
		"Grid Size: 9 x 6",
		"Trees: 2",
		"chance 75% now (max 80%)",
		"Expected ops per new tree: ~5",
		"Vehicle 1 at (3, 3): 2 reachable cells",
		"1 trees cannot be harvested",
		"Unreachable tree: (7, 3)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestAnalyzeConfig_InvalidFile(t *testing.T) {
	var buf bytes.Buffer
	if err := analyzeConfig(&buf, writeConfig(t, `{"name": ""}`)); err == nil {
		t.Error("Expected error for invalid config")
	}
	if err := analyzeConfig(&buf, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestTreePositions(t *testing.T) {
	grid, err := engine.GridFromLayout([]string{
		"T....",
		"...T.",
	})
	if err != nil {
		t.Fatalf("GridFromLayout failed: %v", err)
	}

	trees := treePositions(grid)
	if len(trees) != 2 || trees[0] != (engine.Position{X: 0, Y: 0}) || trees[1] != (engine.Position{X: 3, Y: 1}) {
		t.Errorf("Unexpected trees %v", trees)
	}
}

func TestHarvestable(t *testing.T) {
	reachable := map[engine.Position]bool{{X: 2, Y: 3}: true}

	tests := []struct {
		tree engine.Position
		want bool
	}{
		{engine.Position{X: 3, Y: 3}, true},
		{engine.Position{X: 1, Y: 3}, true},
		{engine.Position{X: 4, Y: 3}, false},
		{engine.Position{X: 3, Y: 2}, false},
	}

	for _, tt := range tests {
		if got := harvestable(tt.tree, reachable); got != tt.want {
			t.Errorf("harvestable(%v) = %v, want %v", tt.tree, got, tt.want)
		}
	}
}
