package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRedis answers SET NX and the release script from a map. Any other
// command panics on the nil embedded Cmdable.
type memRedis struct {
	redis.Cmdable

	mu     sync.Mutex
	kv     map[string]string
	ttl    map[string]time.Duration
	shas   []string
	setErr error
}

func newMemRedis() *memRedis {
	return &memRedis{kv: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memRedis) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return redis.NewBoolResult(false, m.setErr)
	}
	if _, ok := m.kv[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.kv[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memRedis) EvalSha(_ context.Context, sha string, keys []string, args ...interface{}) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shas = append(m.shas, sha)
	if v, ok := m.kv[keys[0]]; ok && v == fmt.Sprint(args[0]) {
		delete(m.kv, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestAcquireIsExclusive(t *testing.T) {
	t.Parallel()
	rdb := newMemRedis()
	l := NewLocker(rdb, "")

	lk, err := l.Acquire(context.Background(), "cycle", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, rdb.kv, "versionwatch:lock:cycle")
	assert.Equal(t, time.Minute, rdb.ttl["versionwatch:lock:cycle"])

	_, err = l.Acquire(context.Background(), "cycle", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, lk.Release(context.Background()))
	assert.Empty(t, rdb.kv)
	assert.Equal(t, []string{releaseScript.Hash()}, rdb.shas)

	again, err := l.Acquire(context.Background(), "cycle", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, lk.token, again.token)
}

func TestReleaseLeavesTakenOverLock(t *testing.T) {
	t.Parallel()
	rdb := newMemRedis()
	l := NewLocker(rdb, "test")

	lk, err := l.Acquire(context.Background(), "cycle", time.Second)
	require.NoError(t, err)

	// the key expired and another replica took it
	rdb.kv["test:cycle"] = "someone-else"

	require.NoError(t, lk.Release(context.Background()))
	assert.Equal(t, "someone-else", rdb.kv["test:cycle"])
}

func TestAcquireBackendError(t *testing.T) {
	t.Parallel()
	rdb := newMemRedis()
	rdb.setErr = errors.New("dial tcp: connection refused")

	_, err := NewLocker(rdb, "").Acquire(context.Background(), "cycle", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
	assert.ErrorIs(t, err, rdb.setErr)
}
