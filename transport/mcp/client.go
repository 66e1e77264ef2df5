package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/blockyard/game/engine"
	"github.com/wricardo/blockyard/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Blockyard",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Blockyard - MCP Interface

This is a thin client that proxies all requests to the REST API server.

THE WORLD:
A side-view grid of air, dirt, stone, trees and wood. Vehicles drive along
the ground and carry one block. Cranes stand on the ground and lower a hook
down their column to dig and drop blocks. Harvesting a tree gives wood;
wood pays for new vehicles and cranes.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions / list_configs
- world_state: ASCII map plus machines and wood
- act: run one command or a batch of commands
- describe_cell: occupants and load/unload/surface flags of one cell
- overlaps: machines sharing a cell
- history: past actions with paging and a success filter
- reset_world: rebuild the world from its config
- game_instructions: full rules

NOTE: The 'intent' parameter on act serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func commandProps() map[string]interface{} {
	return map[string]interface{}{
		"action": map[string]interface{}{
			"type":        "string",
			"enum":        engine.Actions,
			"description": "Action to perform",
		},
		"machine": map[string]interface{}{
			"type":        "integer",
			"description": "Machine ID (optional; defaults to the selected machine)",
		},
		"direction": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"left", "right", "up", "down"},
			"description": "Direction for moves, loads and unloads",
		},
		"x": map[string]interface{}{
			"type":        "integer",
			"description": "Column for create actions",
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": "Row for create actions",
		},
		"reverse": map[string]interface{}{
			"type":        "boolean",
			"description": "Smart unload: drop the other way round",
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new world session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the world config to use (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active world sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available world configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	// World operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "world_state",
		Description: "Get the current world as an ASCII map with machines and wood",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleWorldState)

	actProps := commandProps()
	actProps["session_id"] = sessionProp()
	actProps["commands"] = map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type":       "object",
			"properties": commandProps(),
			"required":   []string{"action"},
		},
		"description": fmt.Sprintf("Run several commands in order instead of one (max %d)", engine.MaxBulkActions),
	}
	actProps["stop_on_failure"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Stop a batch at the first failed command (default true)",
	}
	actProps["reset"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Reset the world first",
	}
	actProps["intent"] = map[string]interface{}{
		"type":        "string",
		"description": "Brief explanation of the intent behind this action (serves as a rubber duck to help explain your reasoning)",
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "act",
		Description: "Run a command (move_vehicle, load_vehicle, unload_vehicle, move_hook, attach_hook, create_crane, ...) or a batch of commands",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: actProps,
			Required:   []string{"session_id"},
		},
	}, c.handleAct)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one grid cell: terrain, machines, and whether it can be loaded from, unloaded into or stood on",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the cell (0-based, left to right)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the cell (0-based, top to bottom)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "overlaps",
		Description: "List machines that share a cell",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleOverlaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "history",
		Description: "Get action history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"filter": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"all", "success", "failed"},
					"description": "Only successful or only failed actions",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_world",
		Description: "Rebuild the world from its config",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules of the world",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// Argument helpers; JSON numbers arrive as float64

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func boolArg(args map[string]interface{}, key string) (bool, bool) {
	b, ok := args[key].(bool)
	return b, ok
}

// commandFromArgs builds a command from tool arguments
func commandFromArgs(args map[string]interface{}) engine.Command {
	cmd := engine.Command{
		Action:    stringArg(args, "action"),
		Direction: engine.Direction(stringArg(args, "direction")),
	}
	if id, ok := intArg(args, "machine"); ok {
		cmd.Machine = engine.MachineID(id)
	}
	cmd.X, _ = intArg(args, "x")
	cmd.Y, _ = intArg(args, "y")
	cmd.Reverse, _ = boolArg(args, "reverse")
	return cmd
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]string{}
	if configName := stringArg(args, "config_name"); configName != "" {
		body["config_id"] = configName
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.WorldState != nil {
		result += "\n" + formatWorldState(session.WorldState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		wood := 0
		if s.WorldState != nil {
			wood = s.WorldState.Wood
		}
		fmt.Fprintf(&sb, "- %s (Config: %s, Wood: %d, Created: %s)\n",
			s.ID, s.ConfigName, wood, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&sb, "• %s (config_name: %s)\n  %s\n  Grid: %dx%d, Starting wood: %d\n\n",
			config.Name, config.ConfigID, config.Description, config.Width, config.Height, config.StartingWood)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleWorldState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var state engine.WorldState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatWorldState(&state)), nil
}

func (c *Client) handleAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = stringArg(args, "intent")

	body := map[string]interface{}{}
	if reset, _ := boolArg(args, "reset"); reset {
		body["reset"] = true
	}

	if raw, ok := args["commands"].([]interface{}); ok && len(raw) > 0 {
		cmds := make([]engine.Command, 0, len(raw))
		for i, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("command %d is not an object", i+1)), nil
			}
			cmds = append(cmds, commandFromArgs(m))
		}
		body["commands"] = cmds
		if stop, ok := boolArg(args, "stop_on_failure"); ok {
			body["stop_on_failure"] = stop
		}

		var result service.BatchResult
		if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "actions"), body, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatBatchResult(sessionID, &result)), nil
	}

	cmd := commandFromArgs(args)
	if cmd.Action == "" {
		return mcp.NewToolResultError("either action or commands is required"), nil
	}
	data, _ := json.Marshal(cmd)
	json.Unmarshal(data, &body)

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "actions"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var cell service.CellDescription
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "cells", fmt.Sprint(x), fmt.Sprint(y)), nil, &cell); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCell(&cell)), nil
}

func (c *Client) handleOverlaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var response struct {
		Count    int              `json:"count"`
		Overlaps []engine.Overlap `json:"overlaps"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "overlaps"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No machines share a cell."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overlaps (%d):\n", response.Count)
	for _, o := range response.Overlaps {
		fmt.Fprintf(&sb, "- %s: machines %d and %d at (%d,%d)\n", o.Kind, o.First, o.Second, o.Position.X, o.Position.Y)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if filter := stringArg(args, "filter"); filter != "" {
		params.Set("filter", filter)
	}

	path := sessionPath(sessionID, "history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var response struct {
		Message string             `json:"message"`
		State   *engine.WorldState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := response.Message
	if response.State != nil {
		result += "\n\n" + formatWorldState(response.State)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Blockyard - Complete Instructions

THE WORLD:
The grid is seen from the side. Row 0 is the sky; rows grow downward. Every
cell holds one block: air (.), dirt (D), stone (S), tree (T) or wood (W).
Machines sit on top of the terrain.

MAP LEGEND:
• . air   D dirt   S stone   T tree   W wood
• V / v  vehicle carrying a block / empty
• C / c  crane base holding a block / empty
• H / h  crane hook holding a block / empty

VEHICLES:
• move_vehicle left/right: drive one column. A vehicle stays level on solid
  ground or a loaded crane base, climbs one block, or drops into a hole. Two
  blocks high is a wall.
• load_vehicle <dir>: pick up the block next to the vehicle (trees become wood).
• unload_vehicle <dir>: put the carried block into an empty neighbour.
• smart_load / smart_unload: pick the first sensible neighbour automatically.

CRANES:
• A crane has a base on the ground and a hook that moves up and down its
  column. The hook can never rise above its base.
• move_hook up/down: one row at a time. A loaded hook or base of another
  crane in the way blocks the hook.
• attach_hook: the hook digs the block under it. detach_hook: it drops its block.
• The base can hold one block too; dropping onto your own base fills it.

WOOD:
• Harvesting a tree adds wood. Vehicles cost 1 wood, cranes 2 (per world).
• create_vehicle / create_crane x y: the machine falls from (x, y) until it
  lands on something solid. demolish_vehicle / demolish_crane on an empty
  machine refunds its cost.
• select machine: make a machine the target of later commands.
• Trees regrow near other trees every few successful operations.

FAILURES:
A refused command changes nothing. The reply names a category (boundary,
occupancy, capability, safety, resources) and a reason such as
terrain_unsuitable, path_blocked, slot_full or insufficient_wood.

TIPS:
• Use describe_cell before loading or unloading to see what is really there.
• Use act with "commands" to run up to 50 steps; it stops on the first
  failure unless stop_on_failure is false.
• Use history with filter=failed to review mistakes.`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nLast accessed: %s\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if session.WorldState != nil {
		result += "\n" + formatWorldState(session.WorldState)
	}
	return result
}

// formatWorldState renders the map with a column ruler, then machines and stock
func formatWorldState(state *engine.WorldState) string {
	var sb strings.Builder

	width := state.Grid.Width()
	sb.WriteString("    ")
	for x := 0; x < width; x++ {
		sb.WriteByte(byte('0' + x%10))
	}
	sb.WriteByte('\n')

	for y, row := range strings.Split(strings.TrimSuffix(engine.RenderASCII(state), "\n"), "\n") {
		fmt.Fprintf(&sb, "%3d %s\n", y, row)
	}

	fmt.Fprintf(&sb, "\nWood: %d | Trees: %d | Operations: %d\n",
		state.Wood, state.Grid.Count(engine.Tree), state.OperationCount)

	if len(state.Machines) == 0 {
		sb.WriteString("Machines: none\n")
	} else {
		sb.WriteString("Machines:\n")
		for _, m := range state.Machines {
			marker := " "
			if m.ID == state.Selected {
				marker = "*"
			}
			fmt.Fprintf(&sb, " %s %s\n", marker, engine.DescribeMachine(m))
		}
	}

	if len(state.Overlaps) > 0 {
		fmt.Fprintf(&sb, "Overlaps: %d (use the overlaps tool)\n", len(state.Overlaps))
	}
	if state.Message != "" {
		fmt.Fprintf(&sb, "Message: %s\n", state.Message)
	}
	return sb.String()
}

func formatResultLine(res engine.Result) string {
	if res.Success {
		line := fmt.Sprintf("✓ %s: %s", res.Action, res.Message)
		if res.WoodDelta != 0 {
			line += fmt.Sprintf(" (wood %+d)", res.WoodDelta)
		}
		if res.TreeGrown != nil {
			line += fmt.Sprintf(" [a tree grew at (%d,%d)]", res.TreeGrown.X, res.TreeGrown.Y)
		}
		return line
	}
	return fmt.Sprintf("✗ %s failed [%s/%s]: %s", res.Action, res.Category, res.Reason, res.Message)
}

func formatActionResult(result *service.ActionResult) string {
	out := formatResultLine(result.Result) + "\n"
	if result.WorldState != nil {
		out += "\n" + formatWorldState(result.WorldState)
	}
	return out
}

func formatBatchResult(sessionID string, result *service.BatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch on session %s: executed %d/%d", sessionID, result.Executed, result.Requested)
	if result.Truncated {
		fmt.Fprintf(&sb, " (truncated to %d)", result.Limit)
	}
	sb.WriteByte('\n')

	for i, res := range result.Results {
		fmt.Fprintf(&sb, "%2d. %s\n", i+1, formatResultLine(res))
	}

	if result.StoppedOn > 0 {
		fmt.Fprintf(&sb, "First failure: command %d (%s)\n", result.StoppedOn, result.StoppedReason)
	}
	fmt.Fprintf(&sb, "Wood: %d -> %d\n", result.StartWood, result.EndWood)

	if result.WorldState != nil {
		sb.WriteString("\n" + formatWorldState(result.WorldState))
	}
	return sb.String()
}

func formatCell(cell *service.CellDescription) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cell at position (%d, %d):\n", cell.X, cell.Y)
	if !cell.InBounds {
		sb.WriteString("Outside the world.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Terrain: %s\n", cell.Terrain)
	fmt.Fprintf(&sb, "Content: %s\n", cell.Content)
	if len(cell.Occupants) == 0 {
		sb.WriteString("Occupants: none\n")
	} else {
		sb.WriteString("Occupants:\n")
		for _, o := range cell.Occupants {
			sb.WriteString("  - " + describeOccupant(o) + "\n")
		}
	}
	fmt.Fprintf(&sb, "Primary: %s\n", describeOccupant(cell.Primary))
	fmt.Fprintf(&sb, "Loadable: %v | Unloadable: %v | Surface: %v\n", cell.Loadable, cell.Unloadable, cell.Surface)
	if cell.HookPath != nil {
		fmt.Fprintf(&sb, "Hook path from selected crane blocked: %v\n", *cell.HookPath)
	}
	return sb.String()
}

func describeOccupant(o engine.Occupant) string {
	switch o.Kind {
	case engine.OccTerrain:
		return fmt.Sprintf("terrain %s", o.Block)
	case engine.OccAir:
		return "air"
	default:
		state := "empty"
		if o.Loaded {
			state = "holding " + string(o.Cargo)
		}
		return fmt.Sprintf("%s of machine %d (%s)", o.Kind, o.Owner, state)
	}
}

func formatHistory(history *service.HistoryResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Action History (Page %d/%d, Total: %d actions)\n\n",
		history.Page, history.TotalPages, history.TotalActions)

	for _, a := range history.Actions {
		status := "✓"
		if !a.Success {
			status = "✗"
		}
		fmt.Fprintf(&sb, "#%d %s %s", a.ActionNumber, status, a.Action)
		if a.Machine != 0 {
			fmt.Fprintf(&sb, " machine=%d", a.Machine)
		}
		if a.Direction != "" {
			fmt.Fprintf(&sb, " %s", a.Direction)
		}
		fmt.Fprintf(&sb, " wood=%d: %s\n", a.Wood, a.Message)
	}

	if history.HasNext {
		sb.WriteString("\n(more on the next page)\n")
	}
	return sb.String()
}
