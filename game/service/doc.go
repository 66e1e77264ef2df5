// Package service provides the business logic layer for Blockyard worlds.
//
// The service package implements:
//   - Multi-session world management
//   - Command execution, single and batched
//   - Cell inspection and overlap reporting
//   - Paginated action history
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager loads and saves world configurations.
// StateBroadcaster and ActionRecorder are optional observers that receive
// every world change (the WebSocket hub and the Prometheus metrics).
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the rules engine. Each session owns its own engine and a mutex that
// serializes commands on it, so engine code never needs locking. Every
// WorldState the service hands out is a copy taken under that mutex.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithBroadcaster(hub))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Execute(ctx, info.ID, engine.Command{
//		Action:    engine.ActionMoveVehicle,
//		Machine:   1,
//		Direction: engine.Right,
//	})
//
// Rule failures are reported in the result (Success=false with a category
// and reason); returned errors are reserved for unknown sessions, unknown
// configs and malformed commands.
package service
