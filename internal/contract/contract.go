// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/vertimeter/schema"
)

// FrameSource is a finite, forward-only stream of pose frames.
// Next returns io.EOF once the stream is exhausted; frames are never replayed.
type FrameSource interface {
	Next(ctx context.Context) (schema.PoseFrame, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetCacheStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking session runs and their jump events.
type HistoryStore interface {
	// BeginRun creates a new session run and returns its unique ID
	BeginRun(startTime time.Time, sessionID, source string, configParams map[string]any) (int64, error)

	// EndRun updates the session run with completion data
	EndRun(runID int64, endTime time.Time, summary schema.SessionSummary) error

	// RecordJumpEvent stores one completed jump of a run
	RecordJumpEvent(runID int64, event schema.JumpEvent) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
