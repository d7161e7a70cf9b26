package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"
)

// historyStore returns the configured history store, or nil when tracking is off.
func historyStore(mgr contract.CacheManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}

// cacheStore returns the configured result cache, or nil when caching is off.
func cacheStore(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetCacheStore()
}

// beginHistory opens a history run and stores its ID in the returned context.
func beginHistory(ctx context.Context, mgr contract.CacheManager, start time.Time, sessionID string, cfg *contract.Config) context.Context {
	store := historyStore(mgr)
	if store == nil {
		return ctx
	}
	runID, err := store.BeginRun(start, sessionID, cfg.InputPath, cfg.Session.ToMap())
	if err != nil {
		contract.LogWarn("History tracking initialization failed", err)
		return ctx
	}
	if runID <= 0 {
		return ctx
	}
	return withHistoryRunID(ctx, runID)
}

// recordJump stores one event under the run held by ctx.
func recordJump(ctx context.Context, mgr contract.CacheManager, event schema.JumpEvent) {
	store := historyStore(mgr)
	runID, ok := getHistoryRunID(ctx)
	if store == nil || !ok {
		return
	}
	if err := store.RecordJumpEvent(runID, event); err != nil {
		contract.LogWarn(fmt.Sprintf("History tracking failed for jump %d", event.Sequence), err)
	}
}

// endHistory finalizes the run held by ctx with the session summary.
func endHistory(ctx context.Context, mgr contract.CacheManager, summary schema.SessionSummary) {
	store := historyStore(mgr)
	runID, ok := getHistoryRunID(ctx)
	if store == nil || !ok {
		return
	}
	if err := store.EndRun(runID, time.Now(), summary); err != nil {
		contract.LogWarn("Failed to finalize history tracking", err)
	}
}
