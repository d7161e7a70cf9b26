package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"
)

// Table names for session history.
const (
	sessionRunsTable = "vertimeter_session_runs"
	jumpEventsTable  = "vertimeter_jump_events"
)

// historyTables lists the history tables in dependency order.
var historyTables = []string{sessionRunsTable, jumpEventsTable}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore opens the history database and applies pending migrations.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db, backend); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

func (hs *HistoryStoreImpl) table(name string) string {
	return quoteTableName(name, hs.backend)
}

// BeginRun creates a new session run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, sessionID, source string, configParams map[string]any) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	unit := string(schema.Centimeters)
	if u, ok := configParams["unit"].(string); ok && u != "" {
		unit = u
	}

	ph := strings.Join(placeholders(hs.backend, 5), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (session_id, source, start_time, unit, config_params) VALUES (%s)`,
		hs.table(sessionRunsTable), ph)
	args := []any{sessionID, source, formatTime(startTime, hs.backend), unit, string(configJSON)}

	var runID int64
	if hs.backend == schema.PostgreSQLBackend {
		err = hs.db.QueryRow(query+" RETURNING run_id", args...).Scan(&runID)
	} else {
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert session run: %w", err)
	}
	return runID, nil
}

// EndRun stores the completion data of a session run.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, summary schema.SessionSummary) error {
	if hs.disabled() {
		return nil
	}

	ph := placeholders(hs.backend, 1)[0]
	row := hs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, hs.table(sessionRunsTable), ph), runID)
	start := timeScanner{backend: hs.backend}
	if err := row.Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	var durationMs int64
	if startTime != nil {
		durationMs = endTime.Sub(*startTime).Milliseconds()
	}

	var scale *float64
	if summary.Calibration != nil {
		scale = &summary.Calibration.ScaleFactor
	}

	phs := placeholders(hs.backend, 8)
	query := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, frames_processed = %s, jump_count = %s,
		max_height = %s, scale_factor = %s, unit = %s WHERE run_id = %s`,
		hs.table(sessionRunsTable), phs[0], phs[1], phs[2], phs[3], phs[4], phs[5], phs[6], phs[7])
	_, err = hs.db.Exec(query,
		formatTime(endTime, hs.backend), durationMs, summary.FramesProcessed, len(summary.Events),
		summary.MaxHeight, scale, string(summary.Unit), runID)
	if err != nil {
		return fmt.Errorf("failed to update session run: %w", err)
	}
	return nil
}

// RecordJumpEvent stores one completed jump of a run.
func (hs *HistoryStoreImpl) RecordJumpEvent(runID int64, event schema.JumpEvent) error {
	if hs.disabled() {
		return nil
	}

	ph := strings.Join(placeholders(hs.backend, 10), ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, sequence, take_off_frame, landing_frame, take_off_time, landing_time,
		                flight_time, height_estimate, displacement_apex, unit)
		VALUES (%s)
	`, hs.table(jumpEventsTable), ph)
	_, err := hs.db.Exec(query,
		runID, event.Sequence, event.TakeOffFrame, event.LandingFrame, event.TakeOffTime, event.LandingTime,
		event.FlightTime, event.HeightEstimate, event.DisplacementApex, string(event.Unit))
	if err != nil {
		return fmt.Errorf("failed to insert jump event %d: %w", event.Sequence, err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	runs := hs.table(sessionRunsTable)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: hs.backend}
		query := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs)
		if err := hs.db.QueryRow(query).Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if t, err := last.value(); err != nil {
			return status, err
		} else if t != nil {
			status.LastRunTime = *t
		}

		oldest := timeScanner{backend: hs.backend}
		query = fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs)
		if err := hs.db.QueryRow(query).Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if t, err := oldest.value(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestRunTime = *t
		}

		query = fmt.Sprintf("SELECT COALESCE(SUM(frames_processed), 0), COALESCE(SUM(jump_count), 0), COALESCE(MAX(max_height), 0) FROM %s", runs)
		if err := hs.db.QueryRow(query).Scan(&status.TotalFrames, &status.TotalJumps, &status.BestHeight); err != nil {
			return status, fmt.Errorf("failed to get run totals: %w", err)
		}
	}

	for _, table := range historyTables {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllSessionRuns retrieves all session runs ordered by ID.
func (hs *HistoryStoreImpl) GetAllSessionRuns() ([]schema.SessionRunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, session_id, source, start_time, end_time, run_duration_ms, frames_processed,
		jump_count, max_height, scale_factor, unit, config_params FROM %s ORDER BY run_id`, hs.table(sessionRunsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query session runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SessionRunRecord
	for rows.Next() {
		var record schema.SessionRunRecord
		start := timeScanner{backend: hs.backend}
		end := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, &record.SessionID, &record.Source, start.dest(), end.dest(),
			&record.RunDurationMs, &record.FramesProcessed, &record.JumpCount, &record.MaxHeight,
			&record.ScaleFactor, &record.Unit, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan session run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session runs: %w", err)
	}
	return results, nil
}

// GetAllJumpEvents retrieves all jump events ordered by run and sequence.
func (hs *HistoryStoreImpl) GetAllJumpEvents() ([]schema.JumpEventRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, sequence, take_off_frame, landing_frame, take_off_time, landing_time,
		flight_time, height_estimate, displacement_apex, unit FROM %s ORDER BY run_id, sequence`, hs.table(jumpEventsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query jump events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.JumpEventRecord
	for rows.Next() {
		var r schema.JumpEventRecord
		if err := rows.Scan(&r.RunID, &r.Sequence, &r.TakeOffFrame, &r.LandingFrame, &r.TakeOffTime, &r.LandingTime,
			&r.FlightTime, &r.HeightEstimate, &r.DisplacementApex, &r.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan jump event: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jump events: %w", err)
	}
	return results, nil
}
