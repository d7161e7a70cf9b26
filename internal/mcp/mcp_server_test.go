package mcp_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/internal/landmarks"
	mcp_internal "github.com/huangsam/vertimeter/internal/mcp"
	"github.com/huangsam/vertimeter/internal/synth"
	"github.com/huangsam/vertimeter/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *server.MCPServer {
	baseCfg := &contract.Config{
		InputFormat: schema.AutoInput,
		Session:     schema.DefaultSessionParams(),
		Output:      schema.JSONOut,
		Precision:   2,
	}
	// Without a manager the handlers run without cache or history.
	return mcp_internal.NewMCPServer(baseCfg, nil)
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newServer()

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"analyze_jump missing path", "analyze_jump", map[string]any{}, "path is required"},
		{"analyze_jump bad unit", "analyze_jump", map[string]any{"path": "x.jsonl", "unit": "ft"}, "invalid session parameters"},
		{"analyze_jump missing file", "analyze_jump", map[string]any{"path": "does-not-exist.jsonl"}, "analysis failed"},
		{"find_peaks empty", "find_peaks", map[string]any{"values": []any{}}, "non-empty"},
		{"find_peaks negative tolerance", "find_peaks", map[string]any{"values": []any{1.0, 2.0, 1.0}, "tolerance": -1.0}, "tolerance"},
		{"flight_time_height zero", "flight_time_height", map[string]any{"flight_time": 0.0}, "positive"},
		{"flight_time_height bad unit", "flight_time_height", map[string]any{"flight_time": 0.5, "unit": "ft"}, "unknown unit"},
		{"simulate_jump bad flight", "simulate_jump", map[string]any{"flight_time": -1.0}, "simulation failed"},
		{"simulate_jump huge jumps", "simulate_jump", map[string]any{"jumps": float64(1 << 60)}, "at most"},
		{"simulate_jump long flight", "simulate_jump", map[string]any{"flight_time": 1e9}, "at most"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, text(res), tt.want)
		})
	}
}

func TestMCPServerHandlers_FindPeaks(t *testing.T) {
	s := newServer()
	res := call(t, s, "find_peaks", map[string]any{
		"values": []any{0.0, 1.0, 3.0, 1.0, 0.0, 2.0, 0.0},
	})
	require.False(t, res.IsError, text(res))

	var got struct {
		Samples int           `json:"samples"`
		Peaks   []schema.Peak `json:"peaks"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(res)), &got))
	assert.Equal(t, 7, got.Samples)
	require.Len(t, got.Peaks, 2)
	assert.Equal(t, 2, got.Peaks[0].Index)
	assert.Equal(t, 3.0, got.Peaks[0].Value)
	assert.Equal(t, 5, got.Peaks[1].Index)
}

func TestMCPServerHandlers_FlightTimeHeight(t *testing.T) {
	s := newServer()

	t.Run("default unit", func(t *testing.T) {
		res := call(t, s, "flight_time_height", map[string]any{"flight_time": 0.5})
		require.False(t, res.IsError, text(res))

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(text(res)), &got))
		assert.InDelta(t, 30.65625, got["height"], 1e-9)
		assert.Equal(t, "cm", got["unit"])
		assert.Equal(t, schema.AverageRating, got["label"])
	})

	t.Run("meters", func(t *testing.T) {
		res := call(t, s, "flight_time_height", map[string]any{"flight_time": 0.5, "unit": "m"})
		require.False(t, res.IsError, text(res))

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(text(res)), &got))
		assert.InDelta(t, 0.3065625, got["height"], 1e-9)
	})
}

func TestMCPServerHandlers_SimulateJump(t *testing.T) {
	s := newServer()
	res := call(t, s, "simulate_jump", map[string]any{"jumps": 2.0})
	require.False(t, res.IsError, text(res))

	var got schema.EnrichedSession
	require.NoError(t, json.Unmarshal([]byte(text(res)), &got))
	assert.Equal(t, "synthetic", got.Source)
	assert.Len(t, got.Events, 2)
	assert.Empty(t, got.Trace)
	for _, e := range got.Events {
		assert.NotEmpty(t, e.Label)
	}
}

func TestMCPServerHandlers_AnalyzeJump(t *testing.T) {
	sim := synth.DefaultConfig()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, landmarks.WriteFile(path, schema.AutoInput, synth.Generate(sim)))

	s := newServer()

	t.Run("without trace", func(t *testing.T) {
		res := call(t, s, "analyze_jump", map[string]any{"path": path})
		require.False(t, res.IsError, text(res))

		var got schema.EnrichedSession
		require.NoError(t, json.Unmarshal([]byte(text(res)), &got))
		assert.Equal(t, path, got.Source)
		assert.Len(t, got.Events, sim.Jumps)
		assert.Empty(t, got.Trace)
	})

	t.Run("with trace in meters", func(t *testing.T) {
		res := call(t, s, "analyze_jump", map[string]any{
			"path":          path,
			"unit":          "m",
			"known_height":  1.5,
			"include_trace": true,
		})
		require.False(t, res.IsError, text(res))

		var got schema.EnrichedSession
		require.NoError(t, json.Unmarshal([]byte(text(res)), &got))
		assert.Equal(t, schema.Meters, got.Unit)
		assert.NotEmpty(t, got.Trace)
		assert.Len(t, got.Events, sim.Jumps)
	})
}
