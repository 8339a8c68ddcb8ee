package utils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClient wraps the shared redis connection. Redis is a fast path
// only; every caller must fall back to postgres when a key is missing
// or redis is down.
type RedisClient struct {
	inner *redis.Client
}

const (
	// Daily selections are immutable per date; keep them for two days so
	// late-timezone stragglers still hit the cache.
	dailyNuggetTTL = 48 * time.Hour
	// Session seeds live as long as a browsing session plausibly does.
	sessionSeedTTL = 24 * time.Hour
)

func GetRedisClient() *RedisClient {
	return &RedisClient{
		inner: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
			Password: os.Getenv("REDIS_PASSWD"),
			DB:       0, // use default DB
		})}
}

func DailyNuggetKey(date time.Time) string {
	return fmt.Sprintf("daily_nugget_%s", date.UTC().Format("2006-01-02"))
}

func SessionSeedKey(sessionId string) string {
	return fmt.Sprintf("shuffle_seed_%s", sessionId)
}

// GetDailyNugget returns the cached nugget id for the date, or "" on
// miss or error.
func (r *RedisClient) GetDailyNugget(ctx context.Context, date time.Time) string {
	id, err := r.inner.Get(ctx, DailyNuggetKey(date)).Result()
	if err != nil {
		return ""
	}
	return id
}

// CacheDailyNugget stores the selection for the date unless another
// writer already did; first writer wins, matching the postgres memo.
func (r *RedisClient) CacheDailyNugget(ctx context.Context, date time.Time, nuggetId string) error {
	return r.inner.SetNX(ctx, DailyNuggetKey(date), nuggetId, dailyNuggetTTL).Err()
}

// GetOrCreateSessionSeed returns the shuffle seed bound to the session,
// creating it from the proposed value on first use. Concurrent first
// requests converge on one seed via SetNX.
func (r *RedisClient) GetOrCreateSessionSeed(ctx context.Context, sessionId string, proposed int64) (int64, error) {
	key := SessionSeedKey(sessionId)
	if err := r.inner.SetNX(ctx, key, proposed, sessionSeedTTL).Err(); err != nil {
		return 0, err
	}
	stored, err := r.inner.Get(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(stored, 10, 64)
}
