package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTestConfig() *WorldConfig {
	config := &WorldConfig{
		Name:         "test_world",
		Description:  "Small world for tests",
		Width:        8,
		Height:       6,
		StartingWood: 3,
		VehicleCost:  1,
		CraneCost:    2,
		Layout:       append([]string(nil), flatLayout...),
		InitialTrees: 2,
		Vehicles:     []Position{{X: 1, Y: 3}},
		Growth:       DefaultGrowthConfig(),
		Seed:         7,
	}
	config.Messages.Welcome = "Welcome to test!"
	return config
}

func TestValidateWorldConfig(t *testing.T) {
	if err := ValidateWorldConfig(DefaultWorldConfig()); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if err := ValidateWorldConfig(createTestConfig()); err != nil {
		t.Fatalf("Test config should be valid: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(c *WorldConfig)
		wantErr string
	}{
		{"missing name", func(c *WorldConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *WorldConfig) { c.Description = "" }, "description is required"},
		{"too narrow", func(c *WorldConfig) { c.Width = 3 }, "width must be between"},
		{"too tall", func(c *WorldConfig) { c.Height = 100 }, "height must be between"},
		{"negative wood", func(c *WorldConfig) { c.StartingWood = -1 }, "starting_wood"},
		{"free cranes", func(c *WorldConfig) { c.CraneCost = 0 }, "must be positive"},
		{"missing row", func(c *WorldConfig) { c.Layout = c.Layout[:5] }, "layout must have 6 rows"},
		{"short row", func(c *WorldConfig) { c.Layout[2] = "..." }, "row 3 must have 8 characters"},
		{"bad character", func(c *WorldConfig) { c.Layout[0] = "...X...." }, "invalid character 'X'"},
		{"vehicle outside", func(c *WorldConfig) { c.Vehicles = []Position{{X: 9, Y: 3}} }, "outside the world"},
		{"vehicle in dirt", func(c *WorldConfig) { c.Vehicles = []Position{{X: 1, Y: 4}} }, "inside dirt"},
		{"vehicle floating", func(c *WorldConfig) { c.Vehicles = []Position{{X: 1, Y: 1}} }, "no dirt or stone below"},
		{"zero interval", func(c *WorldConfig) { c.Growth.Interval = 0 }, "growth.interval"},
		{"chance above one", func(c *WorldConfig) { c.Growth.MaxChance = 1.5 }, "growth.max_chance"},
		{"too many trees", func(c *WorldConfig) { c.InitialTrees = 8 }, "only 7 columns"},
		{"name with spaces", func(c *WorldConfig) { c.Name = "Test World" }, "config validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			tt.mutate(config)
			err := ValidateWorldConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseWorldConfig_YAML(t *testing.T) {
	data := []byte(`
name: yaml_world
description: Loaded from yaml
width: 8
height: 6
starting_wood: 4
layout:
  - "........"
  - "........"
  - "........"
  - "........"
  - "DDDDDDDD"
  - "SSSSSSSS"
vehicles:
  - {x: 2, y: 3}
`)
	config, err := ParseWorldConfig("world.yaml", data)
	if err != nil {
		t.Fatalf("Failed to parse yaml: %v", err)
	}
	if config.Name != "yaml_world" || config.StartingWood != 4 {
		t.Errorf("Unexpected config: %+v", config)
	}
	if config.VehicleCost != DefaultVehicleCost || config.CraneCost != DefaultCraneCost {
		t.Errorf("Expected default costs, got %d/%d", config.VehicleCost, config.CraneCost)
	}
	if config.Growth != DefaultGrowthConfig() {
		t.Errorf("Expected default growth, got %+v", config.Growth)
	}
	if err := ValidateWorldConfig(config); err != nil {
		t.Errorf("Parsed yaml config should be valid: %v", err)
	}
}

func TestApplyDefaults_Growth(t *testing.T) {
	def := DefaultGrowthConfig()
	tests := []struct {
		name string
		in   GrowthConfig
		want GrowthConfig
	}{
		{"unset", GrowthConfig{}, def},
		{
			name: "only interval",
			in:   GrowthConfig{Interval: 6},
			want: GrowthConfig{Interval: 6, BaseChance: def.BaseChance, PerTreeChance: def.PerTreeChance, MaxChance: def.MaxChance, Radius: def.Radius},
		},
		{
			name: "tree-driven growth keeps a zero base",
			in:   GrowthConfig{Interval: 5, PerTreeChance: 0.1, MaxChance: 0.5, Radius: 1},
			want: GrowthConfig{Interval: 5, PerTreeChance: 0.1, MaxChance: 0.5, Radius: 1},
		},
		{
			name: "missing radius and ceiling",
			in:   GrowthConfig{Interval: 3, BaseChance: 0.3},
			want: GrowthConfig{Interval: 3, BaseChance: 0.3, MaxChance: def.MaxChance, Radius: def.Radius},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			config.Growth = tt.in
			config.ApplyDefaults()
			if config.Growth != tt.want {
				t.Errorf("Growth = %+v, want %+v", config.Growth, tt.want)
			}
			if config.Growth.GrowthChance(4) <= 0 {
				t.Errorf("Regrowth should stay possible, chance is %v", config.Growth.GrowthChance(4))
			}
			if err := ValidateWorldConfig(config); err != nil {
				t.Errorf("Config should validate: %v", err)
			}
		})
	}
}

func TestParseWorldConfig_PartialGrowth(t *testing.T) {
	docs := map[string]string{
		"partial.json": `{
			"name": "partial",
			"description": "growth with only an interval",
			"layout": [".....", ".....", ".....", "DDDDD", "SSSSS"],
			"growth": {"interval": 7}
		}`,
		"partial.yaml": `
name: partial
description: growth with only an interval
layout: [".....", ".....", ".....", "DDDDD", "SSSSS"]
growth:
  interval: 7
`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			config, err := ParseWorldConfig(name, []byte(doc))
			if err != nil {
				t.Fatalf("Failed to parse: %v", err)
			}
			want := DefaultGrowthConfig()
			want.Interval = 7
			if config.Growth != want {
				t.Errorf("Growth = %+v, want %+v", config.Growth, want)
			}
			if config.Width != 5 || config.Height != 5 {
				t.Errorf("Size should come from the layout, got %dx%d", config.Width, config.Height)
			}
		})
	}
}

func TestParseWorldConfig_RejectsBadDocuments(t *testing.T) {
	const layout = `"layout": [".....", ".....", ".....", "DDDDD", "SSSSS"]`
	tests := []struct {
		name    string
		file    string
		doc     string
		wantErr string
	}{
		{
			name:    "misspelled growth key",
			file:    "w.json",
			doc:     `{"name": "w", "description": "d", ` + layout + `, "growth": {"interval": 5, "base_chanse": 0.4}}`,
			wantErr: "base_chanse",
		},
		{
			name:    "unknown top-level key",
			file:    "w.json",
			doc:     `{"name": "w", "description": "d", ` + layout + `, "colour": "green"}`,
			wantErr: "colour",
		},
		{
			name:    "unknown vehicle key",
			file:    "w.json",
			doc:     `{"name": "w", "description": "d", ` + layout + `, "vehicles": [{"x": 1, "y": 2, "z": 0}]}`,
			wantErr: "'z'",
		},
		{
			name:    "zero growth radius",
			file:    "w.json",
			doc:     `{"name": "w", "description": "d", ` + layout + `, "growth": {"interval": 5, "radius": 0}}`,
			wantErr: "radius",
		},
		{
			name:    "missing layout",
			file:    "w.json",
			doc:     `{"name": "w", "description": "d"}`,
			wantErr: "layout",
		},
		{
			name: "misspelled yaml key",
			file: "w.yaml",
			doc: `name: w
description: d
startng_wood: 3
layout: [".....", ".....", ".....", "DDDDD", "SSSSS"]
`,
			wantErr: "startng_wood",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorldConfig(tt.file, []byte(tt.doc))
			if err == nil {
				t.Fatal("Expected the document to be rejected")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadWorldConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.json")
	data := `{
		"name": "small",
		"description": "json world",
		"width": 5,
		"height": 5,
		"starting_wood": 1,
		"layout": [".....", ".....", ".....", "DDDDD", "SSSSS"],
		"vehicles": [{"x": 0, "y": 2}]
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadWorldConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Width != 5 || len(config.Vehicles) != 1 {
		t.Errorf("Unexpected config: %+v", config)
	}

	if _, err := LoadWorldConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := LoadWorldConfig(bad); err == nil {
		t.Error("Expected error for malformed file")
	}
}

func TestInitWorldFromConfig(t *testing.T) {
	t.Run("classic world", func(t *testing.T) {
		ws := InitWorldFromConfig(DefaultWorldConfig(), NewRandom(42))

		if ws.Grid.Width() != DefaultWidth || ws.Grid.Height() != DefaultHeight {
			t.Fatalf("Expected %dx%d, got %dx%d", DefaultWidth, DefaultHeight, ws.Grid.Width(), ws.Grid.Height())
		}
		for x := 0; x < DefaultWidth; x++ {
			if ws.Grid.At(x, DefaultHeight-1) != Stone {
				t.Errorf("Expected stone at bottom row x=%d", x)
			}
			if ws.Grid.At(x, DefaultHeight-2) != Dirt {
				t.Errorf("Expected dirt above stone x=%d", x)
			}
		}

		trees := 0
		for x := 0; x < DefaultWidth; x++ {
			if ws.Grid.At(x, DefaultHeight-3) == Tree {
				trees++
				if x == 1 {
					t.Error("Tree planted in the vehicle column")
				}
			}
		}
		if trees != DefaultInitialTrees || ws.TreeCount != DefaultInitialTrees {
			t.Errorf("Expected %d trees, got %d (count %d)", DefaultInitialTrees, trees, ws.TreeCount)
		}

		if len(ws.Machines) != 1 {
			t.Fatalf("Expected one vehicle, got %d machines", len(ws.Machines))
		}
		v := ws.Machines[0]
		if !v.IsVehicle() || v.X != 1 || v.Y != DefaultHeight-3 || v.Cargo.Loaded {
			t.Errorf("Unexpected starting vehicle: %s", DescribeMachine(v))
		}
		if ws.Wood != DefaultStartingWood || ws.Selected != v.ID {
			t.Errorf("Expected wood %d and vehicle selected, got wood %d selected %d", DefaultStartingWood, ws.Wood, ws.Selected)
		}
		if ws.OperationCount != 0 || ws.NextMachineID != 2 {
			t.Errorf("Unexpected counters: ops %d next id %d", ws.OperationCount, ws.NextMachineID)
		}
	})

	t.Run("same seed same trees", func(t *testing.T) {
		a := InitWorldFromConfig(createTestConfig(), NewRandom(7))
		b := InitWorldFromConfig(createTestConfig(), NewRandom(7))
		if strings.Join(a.Grid.Layout(), "\n") != strings.Join(b.Grid.Layout(), "\n") {
			t.Error("Worlds built from the same seed should match")
		}
	})
}

func TestGridLayoutRoundTrip(t *testing.T) {
	grid, err := GridFromLayout(groveLayout)
	if err != nil {
		t.Fatalf("Failed to parse layout: %v", err)
	}
	got := grid.Layout()
	for i := range groveLayout {
		if got[i] != groveLayout[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], groveLayout[i])
		}
	}
	if grid.Count(Tree) != 1 || grid.Count(Stone) != 9 {
		t.Errorf("Unexpected counts: trees %d stone %d", grid.Count(Tree), grid.Count(Stone))
	}
	if grid.At(-1, 0) != Air || grid.InBounds(8, 0) {
		t.Error("Out of bounds cells should read as air")
	}
}
