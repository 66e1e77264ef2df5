package engine

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth        = 20
	DefaultHeight       = 10
	DefaultStartingWood = 2
	DefaultVehicleCost  = 1
	DefaultCraneCost    = 2
	DefaultInitialTrees = 4
)

// GrowthConfig tunes tree regrowth
type GrowthConfig struct {
	Interval      int     `json:"interval" yaml:"interval"`
	BaseChance    float64 `json:"base_chance" yaml:"base_chance"`
	PerTreeChance float64 `json:"per_tree_chance" yaml:"per_tree_chance"`
	MaxChance     float64 `json:"max_chance" yaml:"max_chance"`
	Radius        int     `json:"radius" yaml:"radius"`
}

// DefaultGrowthConfig returns the classic regrowth settings
func DefaultGrowthConfig() GrowthConfig {
	return GrowthConfig{
		Interval:      10,
		BaseChance:    0.2,
		PerTreeChance: 0.05,
		MaxChance:     0.8,
		Radius:        2,
	}
}

func (g *GrowthConfig) applyDefaults() {
	def := DefaultGrowthConfig()
	if g.Interval == 0 {
		g.Interval = def.Interval
	}
	if g.Radius == 0 {
		g.Radius = def.Radius
	}
	if g.MaxChance == 0 {
		g.MaxChance = def.MaxChance
	}
	if g.BaseChance == 0 && g.PerTreeChance == 0 {
		g.BaseChance = def.BaseChance
		g.PerTreeChance = def.PerTreeChance
	}
}

// WorldConfig represents a world definition loaded from JSON or YAML
type WorldConfig struct {
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description" yaml:"description"`
	Width        int          `json:"width" yaml:"width"`
	Height       int          `json:"height" yaml:"height"`
	StartingWood int          `json:"starting_wood" yaml:"starting_wood"`
	VehicleCost  int          `json:"vehicle_cost" yaml:"vehicle_cost"`
	CraneCost    int          `json:"crane_cost" yaml:"crane_cost"`
	Layout       []string     `json:"layout" yaml:"layout"`
	InitialTrees int          `json:"initial_trees" yaml:"initial_trees"`
	Vehicles     []Position   `json:"vehicles" yaml:"vehicles"`
	Growth       GrowthConfig `json:"growth" yaml:"growth"`
	Seed         int64        `json:"seed" yaml:"seed"`
	Messages     struct {
		Welcome string `json:"welcome" yaml:"welcome"`
	} `json:"messages" yaml:"messages"`
}

// Rules extracts the runtime tunables from the config
func (c *WorldConfig) Rules() *Rules {
	return &Rules{
		VehicleCost: c.VehicleCost,
		CraneCost:   c.CraneCost,
		Growth:      c.Growth,
	}
}

// ApplyDefaults fills costs and growth settings left at zero. A growth
// setting whose zero value would switch regrowth off counts as unset.
func (c *WorldConfig) ApplyDefaults() {
	if c.VehicleCost == 0 {
		c.VehicleCost = DefaultVehicleCost
	}
	if c.CraneCost == 0 {
		c.CraneCost = DefaultCraneCost
	}
	c.Growth.applyDefaults()
	if c.Width == 0 && len(c.Layout) > 0 {
		c.Width = len(c.Layout[0])
	}
	if c.Height == 0 {
		c.Height = len(c.Layout)
	}
}

// DefaultWorldConfig returns the classic world: stone floor, a dirt row above
// it, one vehicle at (1, height-3) and four trees
func DefaultWorldConfig() *WorldConfig {
	layout := make([]string, DefaultHeight)
	for y := range layout {
		switch y {
		case DefaultHeight - 1:
			layout[y] = strings.Repeat("S", DefaultWidth)
		case DefaultHeight - 2:
			layout[y] = strings.Repeat("D", DefaultWidth)
		default:
			layout[y] = strings.Repeat(".", DefaultWidth)
		}
	}

	config := &WorldConfig{
		Name:         "classic",
		Description:  "Open plain over a dirt and stone floor with a single vehicle",
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		StartingWood: DefaultStartingWood,
		VehicleCost:  DefaultVehicleCost,
		CraneCost:    DefaultCraneCost,
		Layout:       layout,
		InitialTrees: DefaultInitialTrees,
		Vehicles:     []Position{{X: 1, Y: DefaultHeight - 3}},
		Growth:       DefaultGrowthConfig(),
	}
	config.Messages.Welcome = "Welcome! Harvest trees for wood and build vehicles and cranes."
	return config
}

//go:embed world.schema.json
var worldSchemaJSON []byte

var (
	worldSchemaOnce sync.Once
	worldSchema     *jsonschema.Schema
	worldSchemaErr  error
)

func compiledWorldSchema() (*jsonschema.Schema, error) {
	worldSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("world.schema.json", bytes.NewReader(worldSchemaJSON)); err != nil {
			worldSchemaErr = err
			return
		}
		worldSchema, worldSchemaErr = compiler.Compile("world.schema.json")
	})
	return worldSchema, worldSchemaErr
}

// ValidateDocument checks a decoded config document against the embedded
// JSON schema. Unknown keys and wrongly typed values are rejected here.
func ValidateDocument(doc interface{}) error {
	schema, err := compiledWorldSchema()
	if err != nil {
		return fmt.Errorf("config validation: schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// ValidateSchema checks a config built in code against the embedded JSON
// schema, by way of its JSON form
func ValidateSchema(config *WorldConfig) error {
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return ValidateDocument(doc)
}

// ValidateWorldConfig validates a world configuration for correctness
func ValidateWorldConfig(config *WorldConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.Width < MinWorldWidth || config.Width > MaxWorldWidth {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinWorldWidth, MaxWorldWidth, config.Width)
	}
	if config.Height < MinWorldHeight || config.Height > MaxWorldHeight {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinWorldHeight, MaxWorldHeight, config.Height)
	}

	if config.StartingWood < 0 {
		return fmt.Errorf("config validation: starting_wood cannot be negative, got %d", config.StartingWood)
	}
	if config.VehicleCost < 1 || config.CraneCost < 1 {
		return fmt.Errorf("config validation: vehicle_cost and crane_cost must be positive")
	}

	if len(config.Layout) != config.Height {
		return fmt.Errorf("config validation: layout must have %d rows to match height, got %d", config.Height, len(config.Layout))
	}
	for i, row := range config.Layout {
		if len(row) != config.Width {
			return fmt.Errorf("config validation: row %d must have %d characters to match width, got %d", i+1, config.Width, len(row))
		}
	}
	grid, err := GridFromLayout(config.Layout)
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	for i, v := range config.Vehicles {
		if !grid.InBounds(v.X, v.Y) {
			return fmt.Errorf("config validation: vehicle %d at (%d, %d) is outside the world", i+1, v.X, v.Y)
		}
		if grid.At(v.X, v.Y) != Air {
			return fmt.Errorf("config validation: vehicle %d at (%d, %d) is inside %s", i+1, v.X, v.Y, grid.At(v.X, v.Y))
		}
		if !grid.At(v.X, v.Y+1).Solid() {
			return fmt.Errorf("config validation: vehicle %d at (%d, %d) has no dirt or stone below", i+1, v.X, v.Y)
		}
	}

	g := config.Growth
	if g.Interval < 1 {
		return fmt.Errorf("config validation: growth.interval must be at least 1, got %d", g.Interval)
	}
	if g.Radius < 1 {
		return fmt.Errorf("config validation: growth.radius must be at least 1, got %d", g.Radius)
	}
	for name, p := range map[string]float64{
		"base_chance":     g.BaseChance,
		"per_tree_chance": g.PerTreeChance,
		"max_chance":      g.MaxChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("config validation: growth.%s must be between 0 and 1, got %g", name, p)
		}
	}

	if config.InitialTrees < 0 {
		return fmt.Errorf("config validation: initial_trees cannot be negative, got %d", config.InitialTrees)
	}
	if spots := len(treeColumns(grid, config.Vehicles)); config.InitialTrees > spots {
		return fmt.Errorf("config validation: initial_trees is %d but only %d columns can hold a tree", config.InitialTrees, spots)
	}

	return ValidateSchema(config)
}

// ParseWorldConfig decodes a config document and checks it against the
// schema before filling defaults. YAML is used for .yaml and .yml names, JSON
// otherwise.
func ParseWorldConfig(name string, data []byte) (*WorldConfig, error) {
	var config WorldConfig
	var doc interface{}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		// the schema validator wants JSON values, not yaml.v3's ints
		normalized, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
		if err := json.Unmarshal(normalized, &doc); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}

	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	return &config, nil
}

// LoadWorldConfig loads and validates a world configuration file
func LoadWorldConfig(filename string) (*WorldConfig, error) {
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := ParseWorldConfig(configPath, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateWorldConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// InitWorldFromConfig creates a new world state from the configuration
func InitWorldFromConfig(config *WorldConfig, rng Random) *WorldState {
	if config == nil {
		config = DefaultWorldConfig()
	}
	if rng == nil {
		rng = NewRandom(config.Seed)
	}

	grid, err := GridFromLayout(config.Layout)
	if err != nil || len(grid) == 0 {
		grid = NewGrid(config.Width, config.Height)
	}

	ws := &WorldState{
		Grid:           grid,
		Machines:       []*Machine{},
		Wood:           config.StartingWood,
		Message:        config.Messages.Welcome,
		ConfigName:     config.Name,
		NextMachineID:  1,
		History:        []HistoryEntry{},
		CurrentActions: []HistoryEntry{},
	}
	ws.bind(config.Rules(), rng)

	for _, pos := range config.Vehicles {
		ws.addMachine(&Machine{Kind: KindVehicle, X: pos.X, Y: pos.Y})
	}
	if len(ws.Machines) > 0 {
		ws.Selected = ws.Machines[0].ID
	}

	plantInitialTrees(grid, config.Vehicles, config.InitialTrees, rng)
	ws.refresh()

	return ws
}

// treeColumns returns the cells where an initial tree may be planted: the Air
// cell above each column's topmost block when that block is Dirt, skipping
// columns holding a starting vehicle
func treeColumns(grid Grid, vehicles []Position) []Position {
	occupied := make(map[int]bool, len(vehicles))
	for _, v := range vehicles {
		occupied[v.X] = true
	}

	var spots []Position
	for x := 0; x < grid.Width(); x++ {
		if occupied[x] {
			continue
		}
		for y := 0; y < grid.Height(); y++ {
			if grid.At(x, y) == Air {
				continue
			}
			if grid.At(x, y) == Dirt && y > 0 {
				spots = append(spots, Position{X: x, Y: y - 1})
			}
			break
		}
	}
	return spots
}

func plantInitialTrees(grid Grid, vehicles []Position, count int, rng Random) {
	spots := treeColumns(grid, vehicles)
	for i := 0; i < count && len(spots) > 0; i++ {
		idx := rng.Intn(len(spots))
		pos := spots[idx]
		spots = append(spots[:idx], spots[idx+1:]...)
		grid.Set(pos.X, pos.Y, Tree)
	}
}
