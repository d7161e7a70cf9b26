package cmd

import (
	"github.com/huangsam/vertimeter/core"
	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/internal/synth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analyzeCmd measures every jump in a landmark file.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <landmark-file>",
	Short: "Detect jumps in a landmark file and measure their heights.",
	Long: `Stream a pose landmark file through the jump engine.

The first usable frame calibrates pixels to real-world units from the known
height of the athlete. Every following frame drives the take-off and landing
state machine, and each completed jump is reported with:
- Take-off and landing frames and timestamps
- Flight time and the height derived from it
- Peak displacement height from the calibrated scale

Supported inputs: JSONL, CSV, Parquet and MediaPipe JSON exports.
Pressing Ctrl+C stops the stream and still reports the jumps seen so far.

Examples:
  # Measure a session with a 172 cm athlete at 60 fps
  vertimeter analyze session.jsonl --known-height 172 --frame-rate 60

  # Trigger on a single foot and log every jump as it lands
  vertimeter analyze session.csv --trigger single_foot -v

  # Export the height trace and a chart alongside JSON output
  vertimeter analyze session.parquet --output json --trace-file trace.csv --chart trace.html`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run session analysis", err)
		}
	},
}

// calibrateCmd reports the scale factor of the first calibratable frame.
var calibrateCmd = &cobra.Command{
	Use:   "calibrate <landmark-file>",
	Short: "Compute the pixel-to-unit scale from the first usable frame.",
	Long: `Find the first frame where the nose and both ankles are visible and
compute the scale factor between pixels and the configured unit.

Use this to check a recording before a full analysis:
- Confirm the athlete is fully in frame
- Compare the scale across camera setups

Examples:
  # Calibrate against a 1.80 m athlete
  vertimeter calibrate session.jsonl --known-height 1.8 --unit m

  # Wait until every tracked landmark has been visible for one second
  vertimeter calibrate session.jsonl --require-body-in-frame --body-in-frame-hold 1`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCalibrate(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot calibrate", err)
		}
	},
}

// peaksCmd finds peaks in an exported height trace.
var peaksCmd = &cobra.Command{
	Use:   "peaks <trace-file>",
	Short: "Find the local maxima of an exported height trace.",
	Long: `Read a trace CSV written by 'analyze --trace-file' and report its peaks.

Each peak is an interior sample strictly higher than both neighbors.
Use --peak-tolerance to ignore jitter and --merge-plateaus to report a
flat top once.

Examples:
  vertimeter peaks trace.csv
  vertimeter peaks trace.csv --peak-tolerance 0.5 --merge-plateaus --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePeaks(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot find peaks", err)
		}
	},
}

// simulateCmd writes a synthetic landmark file.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate a synthetic landmark stream of standing jumps.",
	Long: `Generate pose frames of an athlete performing standing vertical jumps.

The frame rate and frame size come from the session flags. The output format
follows the extension of --output-file (.jsonl, .csv, .json, .parquet);
without a file, JSONL is written to stdout.

Examples:
  # Five jumps with 0.5 s of flight each
  vertimeter simulate --jumps 5 --flight-time 0.5 --output-file session.jsonl

  # Pipe a noisy stream into an analysis
  vertimeter simulate --jitter 0.002 --output-file noisy.parquet
  vertimeter analyze noisy.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSimulate(rootCtx, simulateConfig(), cfg.OutputFile, cfg.InputFormat); err != nil {
			contract.LogFatal("Cannot simulate session", err)
		}
	},
}

// simulateConfig builds the synthetic session from flags and session params.
func simulateConfig() synth.Config {
	sim := synth.DefaultConfig()
	sim.FrameRate = cfg.Session.FrameRate
	sim.Width = cfg.Session.FrameWidth
	sim.Height = cfg.Session.FrameHeight
	sim.Jumps = viper.GetInt("jumps")
	sim.LeadIn = viper.GetInt("lead-in")
	sim.FlightTime = viper.GetFloat64("flight-time")
	sim.ApexRise = viper.GetFloat64("apex-rise")
	sim.Jitter = viper.GetFloat64("jitter")
	sim.Seed = viper.GetUint64("seed")
	return sim
}
