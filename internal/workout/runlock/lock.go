// Package runlock serializes workout runs across processes with a redis key.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/workoutlog/internal/workout"
	"github.com/2beens/workoutlog/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL = 2 * time.Minute
	DefaultKey = "workoutlog||run-lock"
)

// deletes the key only while it still holds our token
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// extends the key only while it still holds our token
const renewScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

var ErrLockLost = errors.New("run lock expired or taken over")

type Locker struct {
	redisClient *redis.Client
	key         string
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit testing)
	RandStringFunc func(s int) (string, error)
}

func New(redisClient *redis.Client, key string, ttl time.Duration) *Locker {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{
		redisClient:    redisClient,
		key:            key,
		ttl:            ttl,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Lock takes the run lock. It fails with workout.ErrRunInProgress when the
// key is held by someone else. The returned func releases the lock.
func (l *Locker) Lock(ctx context.Context) (func(ctx context.Context) error, error) {
	token, err := l.RandStringFunc(24)
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	acquired, err := l.redisClient.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("set lock key: %w", err)
	}
	if !acquired {
		return nil, workout.ErrRunInProgress
	}
	log.Debugf("run lock %s acquired for %s", l.key, l.ttl)

	// the key is renewed every ttl/3 until released, so a run may outlive the ttl
	// as long as this process is alive
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		l.keepAlive(token, done)
	}()

	var stopOnce sync.Once
	return func(ctx context.Context) error {
		stopOnce.Do(func() {
			close(done)
			<-stopped
		})
		return l.release(ctx, token)
	}, nil
}

func (l *Locker) keepAlive(token string, done <-chan struct{}) {
	interval := l.ttl / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			renewed, err := l.renew(ctx, token)
			cancel()
			if err != nil {
				log.Warnf("run lock %s: %s", l.key, err)
				continue
			}
			if !renewed {
				log.Errorf("run lock %s: %s", l.key, ErrLockLost)
				return
			}
		}
	}
}

func (l *Locker) renew(ctx context.Context, token string) (bool, error) {
	renewed, err := l.redisClient.Eval(ctx, renewScript, []string{l.key}, token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("renew lock: %w", err)
	}
	return renewed == 1, nil
}

func (l *Locker) release(ctx context.Context, token string) error {
	deleted, err := l.redisClient.Eval(ctx, releaseScript, []string{l.key}, token).Int64()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if deleted == 0 {
		return ErrLockLost
	}
	return nil
}
