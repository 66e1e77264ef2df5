package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validWorld = `{
	"name": "test-world",
	"description": "Test configuration",
	"width": 6,
	"height": 5,
	"starting_wood": 2,
	"layout": [
		"......",
		"......",
		"......",
		"DDDDDD",
		"SSSSSS"
	],
	"initial_trees": 0,
	"vehicles": [{"x": 1, "y": 2}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func hasLine(lines []string, substr string) bool {
	for _, line := range lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestFile_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.json", validWorld)

	result := File(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "test.json" {
		t.Errorf("Expected file name test.json, got %s", result.File)
	}

	for _, want := range []string{
		"Name: test-world",
		"Grid: 6x5",
		"Trees: 0 in layout + 0 random",
		"Vehicle 1 reaches columns 0-5 (6 cells)",
	} {
		if !hasLine(result.Info, want) {
			t.Errorf("Expected info %q, got %v", want, result.Info)
		}
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
}

func TestFile_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.yaml", `
name: yaml-world
description: From YAML
width: 5
height: 5
layout:
  - "....."
  - "....."
  - "....."
  - "DDDDD"
  - "SSSSS"
vehicles:
  - { x: 0, y: 2 }
`)

	result := File(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
}

func TestFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "broken json",
			content: `{"name": "test", invalid json}`,
			want:    "Invalid document",
		},
		{
			name:    "row width mismatch",
			content: strings.Replace(validWorld, `"DDDDDD"`, `"DDDDD"`, 1),
			want:    "row 4 must have 6 characters",
		},
		{
			name:    "illegal character",
			content: strings.Replace(validWorld, `"DDDDDD"`, `"DDXDDD"`, 1),
			want:    "/layout/3",
		},
		{
			name:    "vehicle in the air",
			content: strings.Replace(validWorld, `{"x": 1, "y": 2}`, `{"x": 1, "y": 0}`, 1),
			want:    "no dirt or stone below",
		},
		{
			name:    "name with spaces",
			content: strings.Replace(validWorld, `"test-world"`, `"Test World"`, 1),
			want:    "name",
		},
		{
			name:    "misspelled key",
			content: strings.Replace(validWorld, `"starting_wood"`, `"startng_wood"`, 1),
			want:    "startng_wood",
		},
		{
			name:    "too many trees",
			content: strings.Replace(validWorld, `"initial_trees": 0`, `"initial_trees": 9`, 1),
			want:    "initial_trees is 9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := File(writeFile(t, t.TempDir(), "bad.json", tt.content))
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			if !hasLine(result.Errors, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestFile_Missing(t *testing.T) {
	result := File(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !hasLine(result.Errors, "Failed to read file") {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
}

func TestFile_StuckVehicle(t *testing.T) {
	// vehicle sits in a one-wide shaft two blocks deep
	content := strings.NewReplacer(
		`"......",
		"......",
		"......",`, `"......",
		"SS.SSS",
		"SS.SSS",`,
		`{"x": 1, "y": 2}`, `{"x": 2, "y": 2}`,
	).Replace(validWorld)

	result := File(writeFile(t, t.TempDir(), "stuck.json", content))
	if !result.Valid {
		t.Fatalf("Expected valid config, got %v", result.Errors)
	}
	if !hasLine(result.Warnings, "Vehicle 1 at (2,2) cannot move") {
		t.Errorf("Expected stuck warning, got %v", result.Warnings)
	}
}

func TestFile_NoVehicles(t *testing.T) {
	content := strings.NewReplacer(
		`"vehicles": [{"x": 1, "y": 2}]`, `"vehicles": []`,
		`"starting_wood": 2`, `"starting_wood": 0`,
	).Replace(validWorld)

	result := File(writeFile(t, t.TempDir(), "empty.json", content))
	if !result.Valid {
		t.Fatalf("Expected valid config, got %v", result.Errors)
	}
	if !hasLine(result.Warnings, "not enough wood") {
		t.Errorf("Expected wood warning, got %v", result.Warnings)
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", validWorld)
	writeFile(t, dir, "a.json", `{}`)
	writeFile(t, dir, "notes.txt", "ignored")

	results, err := Dir(dir)
	if err != nil {
		t.Fatalf("Dir failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].File != "a.json" || results[0].Valid {
		t.Errorf("Expected a.json first and invalid, got %+v", results[0])
	}
	if results[1].File != "b.json" || !results[1].Valid {
		t.Errorf("Expected b.json valid, got %+v", results[1])
	}
}

func TestShippedConfigs(t *testing.T) {
	results, err := Dir("../configs")
	if err != nil {
		t.Fatalf("Dir failed: %v", err)
	}
	if len(results) == 0 {
		t.Skip("no configs directory")
	}
	for _, r := range results {
		if !r.Valid {
			t.Errorf("%s is invalid: %v", r.File, r.Errors)
		}
	}
}

func TestReport(t *testing.T) {
	results := []ValidationResult{
		{File: "good.json", Valid: true, Info: []string{"✓ Name: good"}},
		{File: "bad.json", Errors: []string{"width must be between 5 and 64"}, Warnings: []string{"odd"}},
	}

	var buf bytes.Buffer
	if Report(&buf, results) {
		t.Error("Expected Report to return false")
	}

	out := buf.String()
	for _, want := range []string{"✅ VALID", "✓ Name: good", "❌ INVALID", "❌ width must be", "⚠ odd", "Some configurations have errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in report:\n%s", want, out)
		}
	}

	buf.Reset()
	if !Report(&buf, results[:1]) {
		t.Error("Expected Report to return true")
	}
	if !strings.Contains(buf.String(), "All configurations are valid") {
		t.Errorf("Unexpected report:\n%s", buf.String())
	}
}
