// Package validate checks world config files and prints a short census of
// each world. It checks:
//   - JSON or YAML structure against the embedded world schema
//   - Grid consistency and allowed characters (. D S T W)
//   - Starting vehicles placed on air with support below
//   - Costs, growth chances and room for the initial trees
//   - Drivability: which columns each starting vehicle can reach
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/blockyard/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds what made the file invalid, Info the census of a valid one and
// Warnings anything odd but legal.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// File loads and validates a single world config file
func File(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	config, err := engine.ParseWorldConfig(filePath, data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid document: %v", err))
		return result
	}

	if err := engine.ValidateWorldConfig(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	census(config, &result)
	return result
}

// census builds the world once and reports what a fresh session starts with
func census(config *engine.WorldConfig, result *ValidationResult) {
	seed := config.Seed
	if seed == 0 {
		seed = 1
	}
	ws := engine.InitWorldFromConfig(config, engine.NewRandom(seed))
	counts := engine.CountBlocks(ws.Grid)

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Grid: %dx%d", config.Width, config.Height),
		fmt.Sprintf("✓ Blocks: dirt %d, stone %d, wood %d", counts[engine.Dirt], counts[engine.Stone], counts[engine.Wood]),
		fmt.Sprintf("✓ Trees: %d in layout + %d random", strings.Count(strings.Join(config.Layout, ""), "T"), config.InitialTrees),
		fmt.Sprintf("✓ Wood: %d (vehicle %d, crane %d)", config.StartingWood, config.VehicleCost, config.CraneCost),
		fmt.Sprintf("✓ Buildable columns: %d", len(engine.BuildableColumns(ws))),
	)

	if len(ws.Machines) == 0 {
		result.Warnings = append(result.Warnings, "No starting vehicles")
		if config.StartingWood < config.VehicleCost {
			result.Warnings = append(result.Warnings, "No vehicle and not enough wood to build one")
		}
	}

	for _, v := range ws.Machines {
		reach := engine.ReachablePositions(ws, v)
		if len(reach) == 1 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Vehicle %d at (%d,%d) cannot move", v.ID, v.X, v.Y))
			continue
		}
		result.Info = append(result.Info, fmt.Sprintf("✓ Vehicle %d reaches columns %d-%d (%d cells)",
			v.ID, reach[0].X, reach[len(reach)-1].X, len(reach)))
	}
}

// Dir validates every .json, .yaml and .yml file in dir, sorted by name
func Dir(dir string) ([]ValidationResult, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("error finding config files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Report prints a concise report and returns true when every file is valid
func Report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠ "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No configuration files found")
	case allValid:
		fmt.Fprintln(w, "✅ All configurations are valid!")
	default:
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
