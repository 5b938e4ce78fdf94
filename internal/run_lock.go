package internal

import (
	"net"

	"github.com/2beens/workoutlog/internal/config"
	"github.com/2beens/workoutlog/internal/workout"
	"github.com/2beens/workoutlog/internal/workout/runlock"

	"github.com/go-redis/redis/v8"
)

// NewRunLocker builds the redis client and the run lock shared by the cli and
// the server, so both serialize on the same key. Both are nil when redis is
// not configured. The client is owned by the caller.
func NewRunLocker(cfg *config.Config, redisPassword string) (*redis.Client, workout.RunLocker) {
	if !cfg.RedisEnabled() {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: redisPassword,
		DB:       0, // use default DB
	})
	return rdb, runlock.New(rdb, runlock.DefaultKey, cfg.RunLockTTL.Duration)
}
