package cmd

import (
	"github.com/huangsam/vertimeter/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Vertimeter MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents measure jumps via standard tools.

Tools:
  analyze_jump       - Measure jumps in a landmark file
  find_peaks         - Find peaks in a numeric trace
  flight_time_height - Convert a flight time into a height
  simulate_jump      - Measure a synthetic session

The session flags set the defaults every tool starts from.`,
	Args: cobra.NoArgs,
	// Progress logs go to stderr, so stdout stays free for the protocol.
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
