// Package cmd defines the command-line interface for vertimeter.
package cmd

import (
	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(peaksCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Session parameters
	pf := rootCmd.PersistentFlags()
	pf.Float64("known-height", schema.DefaultKnownHeight, "Real-world nose-to-heel height of the athlete")
	pf.String("unit", string(schema.Centimeters), "Unit of the known height and reported heights: cm or m")
	pf.Float64("frame-rate", schema.DefaultFrameRate, "Frames per second of the source video")
	pf.Float64("take-off-threshold", schema.DefaultTakeOffThreshold, "Normalized rise above the ankle baseline that counts as leaving the ground")
	pf.Float64("landing-threshold", schema.DefaultLandingThreshold, "Normalized rise below which a foot counts as back on the ground")
	pf.String("trigger", string(schema.BothFeet), "Take-off trigger: both_feet or single_foot")
	pf.String("displacement", string(schema.SignedDisplacement), "Displacement mode: signed or unsigned")
	pf.String("contact", string(schema.AnkleContact), "Ground contact landmark: ankle or foot_index")
	pf.String("trace-policy", string(schema.DisplacementTrace), "Height trace values: displacement or flight_time")
	pf.Int("frame-width", schema.DefaultFrameWidth, "Frame width in pixels")
	pf.Int("frame-height", schema.DefaultFrameHeight, "Frame height in pixels")
	pf.Float64("min-visibility", schema.DefaultMinVisibility, "Minimum landmark visibility to trust a landmark (0 to 1)")
	pf.Float64("height-correction", schema.DefaultHeightCorrection, "Factor from nose-to-heel height to full standing height")
	pf.Bool("require-body-in-frame", false, "Skip calibration until every tracked landmark is visible")
	pf.Float64("body-in-frame-hold", schema.DefaultBodyInFrameHold, "Seconds the body must stay in frame before calibrating")
	pf.Bool("merge-plateaus", false, "Report a flat-topped peak once")
	pf.Float64("peak-tolerance", 0, "How much a value must exceed a neighbor to count as a peak")

	// Input, output and stores
	pf.String("input-format", string(schema.AutoInput), "Landmark file format: auto or jsonl or csv or mediapipe or parquet")
	pf.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	pf.String("output-file", "", "Optional path to write output to")
	pf.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	pf.Int("width", 0, "Terminal width override (0 = auto-detect)")
	pf.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	pf.BoolP("verbose", "v", false, "Log every jump and recoverable frame problem")
	pf.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	pf.String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	pf.String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	pf.String("history-backend", "", "Session history backend: sqlite or mysql or postgresql or none")
	pf.String("history-db-connect", "", "Database connection string for session history (must differ from cache-db-connect)")
	pf.String("config", "", "Path to config file")
	if err := viper.BindPFlags(pf); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of analyzeCmd to Viper
	analyzeCmd.Flags().String("trace-file", "", "Write the per-frame height trace to this CSV file")
	analyzeCmd.Flags().String("chart", "", "Render the height trace to this .png or .html file")
	analyzeCmd.Flags().Bool("include-trace", false, "Keep the per-frame trace in JSON output")
	if err := viper.BindPFlags(analyzeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analyze flags", err)
	}

	// Bind all flags of simulateCmd to Viper
	simulateCmd.Flags().Int("jumps", 3, "Number of jumps to perform")
	simulateCmd.Flags().Int("lead-in", 15, "Grounded frames before, between and after jumps")
	simulateCmd.Flags().Float64("flight-time", 0.4, "Flight time of every jump in seconds")
	simulateCmd.Flags().Float64("apex-rise", 0.12, "Normalized rise of the body at the apex")
	simulateCmd.Flags().Float64("jitter", 0, "Max normalized noise per coordinate")
	simulateCmd.Flags().Uint64("seed", 1, "Random seed for the noise")
	if err := viper.BindPFlags(simulateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding simulate flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
