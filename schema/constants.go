package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// InputFormat represents the encoding of a landmark stream on disk.
	InputFormat string

	// FlightState is the ground contact classification of the current frame.
	FlightState string

	// TriggerMode decides how many feet must clear the take-off threshold.
	TriggerMode string

	// DisplacementMode decides whether displacement is direction-aware.
	DisplacementMode string

	// ContactPoint selects the landmark pair used as ground contact.
	ContactPoint string

	// TracePolicy selects which estimate populates the per-frame trace.
	TracePolicy string

	// LengthUnit is the unit of the known height and of every reported height.
	LengthUnit string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All landmark input formats supported.
const (
	AutoInput      InputFormat = "auto" // default, resolved from the file extension
	JSONLInput     InputFormat = "jsonl"
	CSVInput       InputFormat = "csv"
	MediapipeInput InputFormat = "mediapipe"
	ParquetInput   InputFormat = "parquet"
)

// Flight states.
const (
	Grounded FlightState = "grounded" // initial
	Airborne FlightState = "airborne"
)

// Take-off trigger modes.
const (
	BothFeet   TriggerMode = "both_feet" // default
	SingleFoot TriggerMode = "single_foot"
)

// Displacement comparison modes.
const (
	SignedDisplacement   DisplacementMode = "signed" // default, rising only
	UnsignedDisplacement DisplacementMode = "unsigned"
)

// Ground contact landmark pairs.
const (
	AnkleContact     ContactPoint = "ankle" // default
	FootIndexContact ContactPoint = "foot_index"
)

// Trace population policies.
const (
	DisplacementTrace TracePolicy = "displacement" // default
	FlightTimeTrace   TracePolicy = "flight_time"
)

// Length units.
const (
	Centimeters LengthUnit = "cm" // default
	Meters      LengthUnit = "m"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidInputFormats lists all valid landmark input formats.
var ValidInputFormats = map[InputFormat]struct{}{
	AutoInput:      {},
	JSONLInput:     {},
	CSVInput:       {},
	MediapipeInput: {},
	ParquetInput:   {},
}

// ValidTriggerModes lists all valid take-off trigger modes.
var ValidTriggerModes = map[TriggerMode]struct{}{
	BothFeet:   {},
	SingleFoot: {},
}

// ValidDisplacementModes lists all valid displacement modes.
var ValidDisplacementModes = map[DisplacementMode]struct{}{
	SignedDisplacement:   {},
	UnsignedDisplacement: {},
}

// ValidContactPoints lists all valid contact landmark pairs.
var ValidContactPoints = map[ContactPoint]struct{}{
	AnkleContact:     {},
	FootIndexContact: {},
}

// ValidTracePolicies lists all valid trace policies.
var ValidTracePolicies = map[TracePolicy]struct{}{
	DisplacementTrace: {},
	FlightTimeTrace:   {},
}

// ValidLengthUnits lists all valid length units.
var ValidLengthUnits = map[LengthUnit]struct{}{
	Centimeters: {},
	Meters:      {},
}

// Landmarks returns the left and right landmark names for the contact point.
func (c ContactPoint) Landmarks() (left, right LandmarkName) {
	if c == FootIndexContact {
		return LeftFootIndex, RightFootIndex
	}
	return LeftAnkle, RightAnkle
}

// PerMeter returns how many units make up one meter.
func (u LengthUnit) PerMeter() float64 {
	if u == Meters {
		return 1
	}
	return 100
}
