// Package mcp exposes Blockyard to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API of a running server, so agents and browsers share the same
// sessions and the same broadcasts.
//
// Tools:
//   - create_session, get_session, list_sessions, list_configs
//   - world_state: ASCII map with a column ruler, machines and wood
//   - act: one command, or a "commands" batch with stop_on_failure
//   - describe_cell, overlaps, history, reset_world
//   - game_instructions: the full rules text
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
