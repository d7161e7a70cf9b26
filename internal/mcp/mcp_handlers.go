package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/huangsam/vertimeter/core"
	"github.com/huangsam/vertimeter/core/engine"
	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/internal/synth"
	"github.com/huangsam/vertimeter/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// Limits for simulate_jump requests.
const (
	maxToolJumps      = 1000
	maxToolFlightTime = 5.0
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// peaksResult is the find_peaks response.
type peaksResult struct {
	Samples int           `json:"samples"`
	Peaks   []schema.Peak `json:"peaks"`
}

// flightHeightResult is the flight_time_height response.
type flightHeightResult struct {
	FlightTime float64           `json:"flight_time"`
	Height     float64           `json:"height"`
	Unit       schema.LengthUnit `json:"unit"`
	Label      string            `json:"label"`
}

// applySessionOverrides copies the optional session arguments onto params.
func applySessionOverrides(request mcp.CallToolRequest, params *schema.SessionParams) {
	if v := request.GetFloat("known_height", 0); v > 0 {
		params.KnownHeight = v
	}
	if u := request.GetString("unit", ""); u != "" {
		params.Unit = schema.LengthUnit(u)
	}
	if v := request.GetFloat("frame_rate", 0); v > 0 {
		params.FrameRate = v
	}
	if t := request.GetString("trigger", ""); t != "" {
		params.Trigger = schema.TriggerMode(t)
	}
	if c := request.GetString("contact", ""); c != "" {
		params.Contact = schema.ContactPoint(c)
	}
}

func jsonResult(data any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(data, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleAnalyzeJump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("path", "")
	cfg.InputFormat = schema.AutoInput
	applySessionOverrides(request, &cfg.Session)

	if cfg.InputPath == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	if err := engine.ValidateParams(cfg.Session); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid session parameters: %v", err)), nil
	}

	summary, err := core.GetSessionResult(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	return jsonResult(schema.EnrichSession(summary, request.GetBool("include_trace", false))), nil
}

func (h *toolHandler) handleFindPeaks(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values := request.GetFloatSlice("values", nil)
	if len(values) == 0 {
		return mcp.NewToolResultError("values must be a non-empty array of numbers"), nil
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mcp.NewToolResultError(fmt.Sprintf("value %d is not finite", i)), nil
		}
	}
	tolerance := request.GetFloat("tolerance", 0)
	if tolerance < 0 {
		return mcp.NewToolResultError("tolerance cannot be negative"), nil
	}

	peaks := engine.FindPeaks(values, engine.PeakOptions{
		Tolerance:     tolerance,
		MergePlateaus: request.GetBool("merge_plateaus", false),
	})
	if peaks == nil {
		peaks = []schema.Peak{}
	}
	return jsonResult(peaksResult{Samples: len(values), Peaks: peaks}), nil
}

func (h *toolHandler) handleFlightTimeHeight(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flightTime := request.GetFloat("flight_time", 0)
	if !(flightTime > 0) || math.IsInf(flightTime, 0) {
		return mcp.NewToolResultError("flight_time must be a positive number of seconds"), nil
	}
	unit := h.baseCfg.Session.Unit
	if u := request.GetString("unit", ""); u != "" {
		unit = schema.LengthUnit(u)
	}
	if _, ok := schema.ValidLengthUnits[unit]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown unit %q", unit)), nil
	}

	height := engine.NewHeightEstimator(unit).FromFlightTime(flightTime)
	return jsonResult(flightHeightResult{
		FlightTime: flightTime,
		Height:     height,
		Unit:       unit,
		Label:      schema.GetPlainLabel(height, unit),
	}), nil
}

func (h *toolHandler) handleSimulateJump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sim := synth.DefaultConfig()
	sim.Jumps = request.GetInt("jumps", sim.Jumps)
	sim.FlightTime = request.GetFloat("flight_time", sim.FlightTime)
	sim.ApexRise = request.GetFloat("apex_rise", sim.ApexRise)
	sim.Jitter = request.GetFloat("jitter", sim.Jitter)
	if sim.Jumps > maxToolJumps {
		return mcp.NewToolResultError(fmt.Sprintf("jumps must be at most %d", maxToolJumps)), nil
	}
	if sim.FlightTime > maxToolFlightTime {
		return mcp.NewToolResultError(fmt.Sprintf("flight_time must be at most %g seconds", maxToolFlightTime)), nil
	}
	if seed := request.GetInt("seed", 0); seed > 0 {
		sim.Seed = uint64(seed)
	}
	params := h.baseCfg.Session
	sim.FrameRate = params.FrameRate
	sim.Width, sim.Height = params.FrameWidth, params.FrameHeight

	summary, err := core.SimulateSession(ctx, sim, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("simulation failed: %v", err)), nil
	}
	return jsonResult(schema.EnrichSession(summary, false)), nil
}
