// Package lock provides the advisory content lock released before the
// importer or archiver rewrites a scholarship an editor may be holding open.
package lock

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/du-marcomm/scholarship-sync/internal/config"
)

// EditLock releases advisory edit locks on scholarships.
type EditLock interface {
	// Release drops any lock held on the scholarship. Releasing an unheld
	// lock is a no-op.
	Release(ctx context.Context, scholarshipID int64) error
}

type redisEditLock struct {
	rdb *redis.Client
}

// NewRedisEditLock returns an EditLock backed by Redis keys.
func NewRedisEditLock(rdb *redis.Client) EditLock {
	return &redisEditLock{rdb: rdb}
}

func (l *redisEditLock) Release(ctx context.Context, scholarshipID int64) error {
	return l.rdb.Del(ctx, config.CacheKey.ScholarshipLockKey(scholarshipID)).Err()
}

type noopEditLock struct{}

// NewNoopEditLock returns an EditLock that does nothing, for deployments
// without a lock backend and for tests.
func NewNoopEditLock() EditLock {
	return noopEditLock{}
}

func (noopEditLock) Release(context.Context, int64) error { return nil }
