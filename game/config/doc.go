// Package config loads world configurations for the blockyard server.
//
// Worlds live as files in a config directory, one per world, in JSON
// (.json) or YAML (.yaml, .yml). The file name without its extension is the
// config identifier used when creating sessions. Every file is decoded with
// engine.ParseWorldConfig and checked with engine.ValidateWorldConfig, which
// also applies the embedded JSON schema; files that fail are skipped when
// listing and rejected when loaded by name.
//
// A world config defines:
//   - the grid size and a layout of rows using . (air), D (dirt), S (stone),
//     T (tree) and W (wood)
//   - starting wood and the vehicle and crane construction costs
//   - the starting vehicles and the number of trees planted at random
//   - the tree growth tunables and an optional random seed
//
// Loaded configs are cached. "classic" is the default; when no such file
// exists the first valid config becomes the default, and with none at all
// the built-in classic world from engine.DefaultWorldConfig is used.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	quarry, err := manager.LoadConfig("quarry")
//	configs, err := manager.ListConfigs()
package config
