package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	logger "github.com/omniful/go_commons/log"
)

// cache is a JSON read-through cache. A nil client turns every call into a
// miss so repositories work without Redis.
type cache struct {
	redis *redis.Client
}

func (c cache) get(ctx context.Context, key string, dest interface{}) bool {
	if c.redis == nil {
		return false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c cache) set(ctx context.Context, key string, value interface{}, ttlSeconds int) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		logger.Error(fmt.Sprintf("redis set %s failed: %v", key, err))
	}
}

func (c cache) del(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		logger.Error(fmt.Sprintf("redis del %v failed: %v", keys, err))
	}
}
