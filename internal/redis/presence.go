package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:" // presence:{email} -> last heartbeat, expiring key

// MarkOnline records a presence heartbeat for identity. The key expires after
// ttl, so a client that stops heartbeating drops offline on its own.
func MarkOnline(identity string, ttl time.Duration) error {
	return client.Set(ctx, presenceKeyPrefix+identity,
		time.Now().UnixMilli(), ttl).Err()
}

// IsOnline reports whether identity has an unexpired presence heartbeat.
func IsOnline(identity string) (bool, error) {
	err := client.Get(ctx, presenceKeyPrefix+identity).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
