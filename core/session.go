package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/vertimeter/core/engine"
	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/internal/landmarks"
	"github.com/huangsam/vertimeter/schema"
)

// GetSessionResult measures the landmark file named by cfg and returns the session summary.
// A cached summary for the same file content and parameters is reused when available.
// Every run, cached or not, is recorded in the history store when one is configured.
func GetSessionResult(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.SessionSummary, error) {
	if cfg.InputPath == "" {
		return schema.SessionSummary{}, errors.New("a landmark file is required")
	}
	if !shouldSuppressHeader(ctx) {
		logSessionHeader(cfg)
	}

	store := cacheStore(mgr)
	key, keyErr := "", error(nil)
	if store != nil {
		key, keyErr = generateCacheKey(cfg)
		if keyErr != nil {
			contract.LogWarn("Cannot compute cache key", keyErr)
		} else if cached := checkCacheHit(store, key); cached != nil {
			return replayCached(ctx, cfg, mgr, *cached), nil
		}
	}

	summary, err := runSession(ctx, cfg, mgr)
	if err != nil {
		return summary, err
	}
	if store != nil && keyErr == nil && !summary.Cancelled {
		storeResult(store, key, summary)
	}
	return summary, nil
}

// runSession streams the landmark file through a fresh engine session.
func runSession(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.SessionSummary, error) {
	src, err := landmarks.Open(cfg.InputPath, cfg.InputFormat)
	if err != nil {
		return schema.SessionSummary{}, err
	}
	defer func() { _ = src.Close() }()

	if err := engine.ValidateParams(cfg.Session); err != nil {
		return schema.SessionSummary{}, err
	}

	sessionID := uuid.NewString()
	ctx = beginHistory(ctx, mgr, time.Now(), sessionID, cfg)
	opts := append([]engine.Option{engine.WithSessionID(sessionID)}, sessionOptions(ctx, cfg, mgr)...)
	session, err := engine.NewSession(cfg.Session, opts...)
	if err != nil {
		return schema.SessionSummary{}, err
	}

	summary, err := session.Run(ctx, src)
	endHistory(ctx, mgr, summary)
	if err != nil {
		return summary, fmt.Errorf("session stopped early: %w", err)
	}
	return summary, nil
}

// sessionOptions wires engine callbacks into logging and history tracking.
func sessionOptions(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) []engine.Option {
	quiet := shouldSuppressHeader(ctx)
	opts := []engine.Option{engine.WithSource(cfg.InputPath)}
	if cfg.Verbose && !quiet {
		opts = append(opts, engine.WithNotifier(func(err error) {
			contract.LogWarn("Session notice", err)
		}))
	}
	opts = append(opts, engine.WithJumpHandler(func(e schema.JumpEvent) {
		recordJump(ctx, mgr, e)
		if cfg.Verbose && !quiet {
			contract.LogInfo("🦘 Jump %d: %.2f %s (flight %.3fs)", e.Sequence, e.HeightEstimate, e.Unit, e.FlightTime)
		}
	}))
	return opts
}

// replayCached turns a cached summary into a new run with its own session ID.
func replayCached(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, summary schema.SessionSummary) schema.SessionSummary {
	summary.SessionID = uuid.NewString()
	summary.Source = cfg.InputPath
	summary.Cached = true

	ctx = beginHistory(ctx, mgr, time.Now(), summary.SessionID, cfg)
	for _, e := range summary.Events {
		recordJump(ctx, mgr, e)
	}
	endHistory(ctx, mgr, summary)
	return summary
}

// logSessionHeader prints the session parameters before a run.
func logSessionHeader(cfg *contract.Config) {
	p := cfg.Session
	contract.LogInfo("🔎 Measuring jumps in %s", cfg.InputPath)
	contract.LogInfo("   known height %g %s, %g fps, trigger %s, contact %s, thresholds %g/%g",
		p.KnownHeight, p.Unit, p.FrameRate, p.Trigger, p.Contact, p.TakeOffThreshold, p.LandingThreshold)
	if engine.InvertedBand(p) {
		contract.LogInfo("   ⚠️ take-off threshold is not above the landing threshold")
	}
}
