package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"adsync/internal/domain"
)

// MemorySyncLock is an in-process domain.SyncLock keyed by connection id.
type MemorySyncLock struct {
	held  map[string]bool
	mutex sync.Mutex
}

func NewMemorySyncLock() *MemorySyncLock {
	return &MemorySyncLock{held: make(map[string]bool)}
}

func (l *MemorySyncLock) Acquire(ctx context.Context, connectionID string) (func(), error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.held[connectionID] {
		return nil, &domain.SyncBusyError{ConnectionID: connectionID}
	}
	l.held[connectionID] = true

	return func() {
		l.mutex.Lock()
		defer l.mutex.Unlock()
		delete(l.held, connectionID)
	}, nil
}

// RedisSyncLock is a Redis-backed advisory lock for deployments running
// more than one process. SET NX with a TTL guards against a crashed
// holder wedging the connection forever; release only deletes the key
// when the stored token still matches this holder.
type RedisSyncLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSyncLock(client *redis.Client, ttl time.Duration) *RedisSyncLock {
	return &RedisSyncLock{client: client, ttl: ttl}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisSyncLock) Acquire(ctx context.Context, connectionID string) (func(), error) {
	key := "sync:lock:" + connectionID
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "lock", Err: err}
	}
	if !ok {
		return nil, &domain.SyncBusyError{ConnectionID: connectionID}
	}

	return func() {
		releaseScript.Run(context.Background(), l.client, []string{key}, token)
	}, nil
}
