package core

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/huangsam/defectset/internal/contract"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL bounds how long a cached log is trusted.
const cacheTTL = 7 * 24 * time.Hour

// cachedCommitLog returns the repository log, served from the activity store
// when an entry for the current HEAD exists.
func cachedCommitLog(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) ([]byte, error) {
	var activity contract.CacheStore
	if mgr != nil {
		activity = mgr.GetActivityStore()
	}
	if activity == nil {
		return client.GetCommitLog(ctx, cfg.RepoPath)
	}

	key, err := generateCacheKey(ctx, cfg, client)
	if err != nil {
		// Without a HEAD hash the entry could be stale, so skip the cache entirely
		return client.GetCommitLog(ctx, cfg.RepoPath)
	}
	if data := checkCacheHit(activity, key); data != nil {
		contract.Log.WithField("key", key[:12]).Debug("commit log cache hit")
		return data, nil
	}

	out, err := client.GetCommitLog(ctx, cfg.RepoPath)
	if err != nil {
		return nil, err
	}
	if err := activity.Set(key, out, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Cannot store commit log in cache", err)
	}
	return out, nil
}

// checkCacheHit returns the cached payload when it is current, nil otherwise.
func checkCacheHit(activity contract.CacheStore, key string) []byte {
	data, version, ts, err := activity.Get(key)
	if err != nil || version != currentCacheVersion {
		return nil
	}
	if time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}
	return data
}

// generateCacheKey derives the cache key from the repository path and HEAD.
func generateCacheKey(ctx context.Context, cfg *contract.Config, client contract.GitClient) (string, error) {
	repoHash, err := client.GetRepoHash(ctx, cfg.RepoPath)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:%s:%s", cfg.RepoPath, contract.CommitLogFormat, repoHash)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}
