// Package engine provides the world rules for Blockyard.
//
// The engine package implements:
//   - A fixed-size terrain grid of air, dirt, stone, tree and wood blocks
//   - Vehicles and cranes with single cargo slots
//   - Occupancy queries combining terrain and machine parts at a cell
//   - Vehicle movement with climbing and dropping, hook movement with path checks
//   - Loading, unloading, attaching and detaching cargo
//   - Wood accounting, construction, demolition and tree regrowth
//
// Core Types:
//
// WorldState holds the grid, the machine registry, the wood stock and the
// counters. GameEngine owns one WorldState and its WorldConfig and implements
// the Engine interface. Every operation returns a Result; failed operations
// leave the world untouched apart from the status message.
//
// Usage:
//
//	config, err := engine.LoadWorldConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res := gameEngine.Execute(engine.Command{Action: engine.ActionMoveVehicle, Machine: 1, Direction: engine.Right})
//	fmt.Println(res.Message)
//
// World Rules:
//
// Y grows downward. A vehicle needs dirt, stone or a loaded crane base below
// it and can climb or drop one block per move. A crane hook never rises above
// its base; while loaded it cannot pass terrain or loaded machine parts.
// Every tenth successful operation may sprout a tree near an existing one.
package engine
