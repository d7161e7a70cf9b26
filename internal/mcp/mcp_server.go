// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Vertimeter MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Vertimeter Jump Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: analyze_jump ---
	s.AddTool(mcp.NewTool("analyze_jump",
		mcp.WithDescription("Measure vertical jumps in a pose landmark file (jsonl, csv, parquet or mediapipe json)."),
		mcp.WithString("path", mcp.Description("Path to the landmark file."), mcp.Required()),
		mcp.WithNumber("known_height", mcp.Description("Real-world nose-to-heel height of the athlete."), mcp.Min(0)),
		mcp.WithString("unit", mcp.Description("Unit of the known height and reported heights."), mcp.Enum("cm", "m")),
		mcp.WithNumber("frame_rate", mcp.Description("Frames per second of the source video."), mcp.Min(0)),
		mcp.WithString("trigger", mcp.Description("Which feet must leave the ground to start a jump."), mcp.Enum("both_feet", "single_foot")),
		mcp.WithString("contact", mcp.Description("Landmark used as the ground contact point."), mcp.Enum("ankle", "foot_index")),
		mcp.WithBoolean("include_trace", mcp.Description("Include the per-frame height trace."), mcp.DefaultBool(false)),
	), h.handleAnalyzeJump)

	// --- 2. Tool: find_peaks ---
	s.AddTool(mcp.NewTool("find_peaks",
		mcp.WithDescription("Find the local maxima of a numeric trace, such as an exported height trace."),
		mcp.WithArray("values", mcp.Description("The trace values in order."), mcp.WithNumberItems(), mcp.Required()),
		mcp.WithNumber("tolerance", mcp.Description("How much a value must exceed a neighbor to count as higher."), mcp.Min(0), mcp.DefaultNumber(0)),
		mcp.WithBoolean("merge_plateaus", mcp.Description("Report a flat top as one peak."), mcp.DefaultBool(false)),
	), h.handleFindPeaks)

	// --- 3. Tool: flight_time_height ---
	s.AddTool(mcp.NewTool("flight_time_height",
		mcp.WithDescription("Convert a flight time in seconds into a jump height."),
		mcp.WithNumber("flight_time", mcp.Description("Seconds between take-off and landing."), mcp.Required()),
		mcp.WithString("unit", mcp.Description("Unit of the returned height."), mcp.Enum("cm", "m")),
	), h.handleFlightTimeHeight)

	// --- 4. Tool: simulate_jump ---
	s.AddTool(mcp.NewTool("simulate_jump",
		mcp.WithDescription("Generate a synthetic jump session and measure it with the configured parameters."),
		mcp.WithNumber("jumps", mcp.Description("Number of jumps to perform."), mcp.Min(0), mcp.Max(maxToolJumps)),
		mcp.WithNumber("flight_time", mcp.Description("Flight time of every jump in seconds."), mcp.Max(maxToolFlightTime)),
		mcp.WithNumber("apex_rise", mcp.Description("Normalized rise of the body at the apex.")),
		mcp.WithNumber("jitter", mcp.Description("Max normalized noise per coordinate.")),
		mcp.WithNumber("seed", mcp.Description("Random seed for the noise.")),
	), h.handleSimulateJump)

	return s
}

// StartMCPServer starts the Vertimeter MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
