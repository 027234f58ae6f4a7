package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

// InitRedis points Rdb at the server. An unreachable server is only logged:
// every helper here degrades to a cache miss.
func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", redisAddress).Msg("[redis] ping failed, continuing without cache hits")
		return
	}
	log.Info().Str("addr", redisAddress).Msg("[redis] connected")
}

func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if err := Rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("[redis] failed to set key")
	}
}

// DisplayETagKey is where the last served ETag of a masjid's display lives.
func DisplayETagKey(code string) string {
	return fmt.Sprintf("display:%s:etag", code)
}

// InvalidateDisplay drops the cached display ETag so the next poll rebuilds.
func InvalidateDisplay(ctx context.Context, code string) {
	if Rdb == nil {
		return
	}
	key := DisplayETagKey(code)
	if err := Rdb.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("code", code).Str("etag_key", key).
			Msg("[redis] failed to invalidate display ETag cache")
		return
	}
	log.Debug().Str("code", code).Str("etag_key", key).Msg("[redis] invalidated display ETag cache")
}

// DisplayETag returns the ETag last served for code, if still cached.
func DisplayETag(ctx context.Context, code string) (string, bool) {
	if Rdb == nil {
		return "", false
	}
	etag, err := Rdb.Get(ctx, DisplayETagKey(code)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("code", code).Msg("[redis] failed to read display ETag")
		}
		return "", false
	}
	return etag, true
}

// StoreDisplayETag remembers etag for code for ttl.
func StoreDisplayETag(ctx context.Context, code, etag string, ttl time.Duration) {
	if Rdb == nil {
		return
	}
	Set(ctx, DisplayETagKey(code), etag, ttl)
}
