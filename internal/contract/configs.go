package contract

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/vertimeter/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 2
	MaxPrecision     = 4
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a session.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath   string
	InputFormat schema.InputFormat
	Session     schema.SessionParams

	Precision    int
	Output       schema.OutputMode
	OutputFile   string
	TraceFile    string
	ChartFile    string
	IncludeTrace bool
	Width        int // Terminal width override (0 = auto-detect)
	Verbose      bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Session parameters ---
	KnownHeight        float64 `mapstructure:"known-height"`
	Unit               string  `mapstructure:"unit"`
	FrameRate          float64 `mapstructure:"frame-rate"`
	TakeOffThreshold   float64 `mapstructure:"take-off-threshold"`
	LandingThreshold   float64 `mapstructure:"landing-threshold"`
	Trigger            string  `mapstructure:"trigger"`
	Displacement       string  `mapstructure:"displacement"`
	Contact            string  `mapstructure:"contact"`
	TracePolicy        string  `mapstructure:"trace-policy"`
	FrameWidth         int     `mapstructure:"frame-width"`
	FrameHeight        int     `mapstructure:"frame-height"`
	MinVisibility      float64 `mapstructure:"min-visibility"`
	HeightCorrection   float64 `mapstructure:"height-correction"`
	RequireBodyInFrame bool    `mapstructure:"require-body-in-frame"`
	BodyInFrameHold    float64 `mapstructure:"body-in-frame-hold"`
	MergePlateaus      bool    `mapstructure:"merge-plateaus"`
	PeakTolerance      float64 `mapstructure:"peak-tolerance"`

	// --- Output parameters ---
	InputFormat  string `mapstructure:"input-format"`
	Precision    int    `mapstructure:"precision"`
	Output       string `mapstructure:"output"`
	OutputFile   string `mapstructure:"output-file"`
	TraceFile    string `mapstructure:"trace-file"`
	Chart        string `mapstructure:"chart"`
	IncludeTrace bool   `mapstructure:"include-trace"`
	Width        int    `mapstructure:"width"`
	Color        string `mapstructure:"color"`
	Verbose      bool   `mapstructure:"verbose"`

	// --- Store parameters ---
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSessionParams(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveInputPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.TraceFile = input.TraceFile
	cfg.IncludeTrace = input.IncludeTrace
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.InputFormat = schema.InputFormat(strings.ToLower(input.InputFormat))
	if cfg.InputFormat == "" {
		cfg.InputFormat = schema.AutoInput
	}
	if _, ok := schema.ValidInputFormats[cfg.InputFormat]; !ok {
		return fmt.Errorf("invalid input format '%s'. must be auto, jsonl, csv, mediapipe, parquet", input.InputFormat)
	}

	cfg.ChartFile = input.Chart
	if cfg.ChartFile != "" {
		switch strings.ToLower(filepath.Ext(cfg.ChartFile)) {
		case ".png", ".html":
		default:
			return fmt.Errorf("chart file must end in .png or .html (received %q)", cfg.ChartFile)
		}
	}
	return nil
}

// processSessionParams validates the engine parameters and stores them on cfg.Session.
func processSessionParams(cfg *Config, input *ConfigRawInput) error {
	p := schema.SessionParams{
		KnownHeight:        input.KnownHeight,
		Unit:               schema.LengthUnit(strings.ToLower(input.Unit)),
		FrameRate:          input.FrameRate,
		TakeOffThreshold:   input.TakeOffThreshold,
		LandingThreshold:   input.LandingThreshold,
		Trigger:            schema.TriggerMode(strings.ToLower(input.Trigger)),
		Displacement:       schema.DisplacementMode(strings.ToLower(input.Displacement)),
		Contact:            schema.ContactPoint(strings.ToLower(input.Contact)),
		TracePolicy:        schema.TracePolicy(strings.ToLower(input.TracePolicy)),
		FrameWidth:         input.FrameWidth,
		FrameHeight:        input.FrameHeight,
		MinVisibility:      input.MinVisibility,
		HeightCorrection:   input.HeightCorrection,
		RequireBodyInFrame: input.RequireBodyInFrame,
		BodyInFrameHold:    input.BodyInFrameHold,
		MergePlateaus:      input.MergePlateaus,
		PeakTolerance:      input.PeakTolerance,
	}

	positives := []struct {
		flag  string
		value float64
	}{
		{"known-height", p.KnownHeight},
		{"frame-rate", p.FrameRate},
		{"take-off-threshold", p.TakeOffThreshold},
		{"landing-threshold", p.LandingThreshold},
		{"height-correction", p.HeightCorrection},
	}
	for _, v := range positives {
		if !(v.value > 0) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%s must be a positive number (received %v)", v.flag, v.value)
		}
	}
	if p.FrameWidth <= 0 || p.FrameHeight <= 0 {
		return fmt.Errorf("frame-width and frame-height must be greater than 0 (received %dx%d)", p.FrameWidth, p.FrameHeight)
	}
	if p.BodyInFrameHold < 0 || math.IsInf(p.BodyInFrameHold, 0) || math.IsNaN(p.BodyInFrameHold) {
		return fmt.Errorf("body-in-frame-hold must be a number of seconds >= 0 (received %v)", p.BodyInFrameHold)
	}
	if p.MinVisibility < 0 || p.MinVisibility > 1 {
		return fmt.Errorf("min-visibility must be between 0 and 1 (received %v)", p.MinVisibility)
	}
	if p.PeakTolerance < 0 {
		return fmt.Errorf("peak-tolerance must be >= 0 (received %v)", p.PeakTolerance)
	}

	if _, ok := schema.ValidLengthUnits[p.Unit]; !ok {
		return fmt.Errorf("invalid unit '%s'. must be cm, m", input.Unit)
	}
	if _, ok := schema.ValidTriggerModes[p.Trigger]; !ok {
		return fmt.Errorf("invalid trigger '%s'. must be both_feet, single_foot", input.Trigger)
	}
	if _, ok := schema.ValidDisplacementModes[p.Displacement]; !ok {
		return fmt.Errorf("invalid displacement '%s'. must be signed, unsigned", input.Displacement)
	}
	if _, ok := schema.ValidContactPoints[p.Contact]; !ok {
		return fmt.Errorf("invalid contact '%s'. must be ankle, foot_index", input.Contact)
	}
	if _, ok := schema.ValidTracePolicies[p.TracePolicy]; !ok {
		return fmt.Errorf("invalid trace policy '%s'. must be displacement, flight_time", input.TracePolicy)
	}

	if p.TakeOffThreshold <= p.LandingThreshold {
		LogWarn("hysteresis band", fmt.Errorf("take-off threshold %v is not above landing threshold %v", p.TakeOffThreshold, p.LandingThreshold))
	}

	cfg.Session = p
	return nil
}

// resolveInputPath makes the landmark path absolute and checks that it exists.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	if input.InputPathStr == "" {
		cfg.InputPath = ""
		return nil
	}
	absPath, err := filepath.Abs(input.InputPathStr)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("cannot read landmark file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("landmark path %q is a directory", input.InputPathStr)
	}
	cfg.InputPath = filepath.Clean(absPath)
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
