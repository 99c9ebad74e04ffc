package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/session"
)

func countingFactory(created *atomic.Int32) session.Factory {
	return func(ctx context.Context, id string) (*mdxvision.Engine, error) {
		created.Add(1)
		return mdxvision.New(ctx, mdxvision.WithSessionID(id))
	}
}

func TestManager_OneEnginePerSession(t *testing.T) {
	var created atomic.Int32
	mgr := session.NewManager(countingFactory(&created))
	defer mgr.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	engines := make([]*mdxvision.Engine, 20)
	for i := range engines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eng, err := mgr.Get(ctx, "glasses-1")
			assert.NoError(t, err)
			engines[i] = eng
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	for _, eng := range engines {
		assert.Same(t, engines[0], eng)
	}

	other, err := mgr.Get(ctx, "glasses-2")
	require.NoError(t, err)
	assert.NotSame(t, engines[0], other)
	assert.Equal(t, []string{"glasses-1", "glasses-2"}, mgr.List())
}

func TestManager_IsolatesDisplayState(t *testing.T) {
	var created atomic.Int32
	mgr := session.NewManager(countingFactory(&created))
	defer mgr.Close()
	ctx := context.Background()

	a, _ := mgr.Get(ctx, "a")
	b, _ := mgr.Get(ctx, "b")
	a.Display().Expand()

	assert.Equal(t, "expanded", string(a.Display().State()))
	assert.Equal(t, "hidden", string(b.Display().State()))
}

func TestManager_WithLockSerializes(t *testing.T) {
	var created atomic.Int32
	mgr := session.NewManager(countingFactory(&created))
	defer mgr.Close()
	ctx := context.Background()

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "race-test", func(context.Context, *mdxvision.Engine) error {
				n := active.Add(1)
				if n > maxActive.Load() {
					maxActive.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestManager_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	mgr := session.NewManager(func(context.Context, string) (*mdxvision.Engine, error) { return nil, boom })

	_, err := mgr.Get(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	_, ok := mgr.Lookup("x")
	assert.False(t, ok)
}

func TestManager_EmptyID(t *testing.T) {
	var created atomic.Int32
	mgr := session.NewManager(countingFactory(&created))
	_, err := mgr.Get(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrEmptySessionID)
}

type stubLocker struct {
	mu       sync.Mutex
	keys     []string
	ttl      time.Duration
	unlocked int
	fail     error
}

func (l *stubLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.keys = append(l.keys, key)
	l.ttl = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	var created atomic.Int32
	locker := &stubLocker{}
	mgr := session.NewManager(countingFactory(&created), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	defer mgr.Close()

	_, err := mgr.Get(context.Background(), "glasses-9")
	require.NoError(t, err)
	assert.Equal(t, []string{"glasses-9"}, locker.keys)
	assert.Equal(t, 5*time.Second, locker.ttl)
	assert.Equal(t, 1, locker.unlocked)

	locker.fail = errors.New("redis down")
	_, err = mgr.Get(context.Background(), "glasses-10")
	assert.ErrorContains(t, err, "distributed lock")
}
