// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisKey = "copyscape:throttle"

	defaultPollInterval = 50 * time.Millisecond
)

// RedisLimiter hands out request slots through a shared redis key, so that
// several processes using the same account keep to a single rate.
// A slot is taken with SET NX PX; the key expiring frees the next slot.
type RedisLimiter struct {
	rdb      *redis.Client
	key      string
	interval time.Duration
	owner    string
}

func NewRedisLimiter(rdb *redis.Client, key string, interval time.Duration) *RedisLimiter {
	if key == "" {
		key = DefaultRedisKey
	}
	if interval <= 0 {
		interval = Interval
	}
	return &RedisLimiter{
		rdb:      rdb,
		key:      key,
		interval: interval,
		owner:    uuid.NewString(),
	}
}

func (l *RedisLimiter) Wait(ctx context.Context) error {
	for {
		ok, err := l.rdb.SetNX(ctx, l.key, l.owner, l.interval).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire request slot: %w", err)
		}
		if ok {
			return nil
		}

		wait, err := l.rdb.PTTL(ctx, l.key).Result()
		if err != nil {
			return fmt.Errorf("failed to read request slot ttl: %w", err)
		}
		// -1 and -2 signal a key without expiry or a key that vanished
		if wait <= 0 {
			wait = defaultPollInterval
		}
		slog.Debug("waiting for request slot", "key", l.key, "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
