package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/vertimeter/internal/contract"
	"github.com/huangsam/vertimeter/schema"
)

// currentCacheVersion defines the version of the cached summary layout
const currentCacheVersion = 1

// cacheTTL is how long a cached session summary stays valid.
const cacheTTL = 7 * 24 * time.Hour

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.SessionSummary {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}
	var result schema.SessionSummary
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

// storeResult writes a summary to the cache. Failures only cost a future recomputation.
func storeResult(store contract.CacheStore, key string, summary schema.SessionSummary) {
	summary.Cached = false
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Failed to cache session result", err)
	}
}

// generateCacheKey creates a unique key from the landmark file content and every session parameter,
// so a cached summary is only reused for an identical computation.
func generateCacheKey(cfg *contract.Config) (string, error) {
	contentHash, err := hashFile(cfg.InputPath)
	if err != nil {
		return "", err
	}
	params, err := json.Marshal(cfg.Session)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:%s:%s:%d", contentHash, cfg.InputFormat, params, currentCacheVersion)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}

// hashFile returns the hex sha256 of the file content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
