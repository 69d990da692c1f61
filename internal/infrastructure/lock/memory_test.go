package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/domain"
)

func fastLocker() *MemoryLocker {
	l := NewMemoryLocker()
	l.interval = time.Millisecond
	l.retries = 3
	return l
}

func TestMemoryLocker_Exclusion(t *testing.T) {
	ctx := context.Background()
	l := fastLocker()

	first, err := l.Obtain(ctx, "numbering:c1:invoice", time.Minute)
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "numbering:c1:invoice", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNumberingLocked)

	// otra llave no se ve afectada
	other, err := l.Obtain(ctx, "numbering:c1:credit_note", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, first.Release(ctx))
	again, err := l.Obtain(ctx, "numbering:c1:invoice", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestMemoryLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	l := fastLocker()

	stale, err := l.Obtain(ctx, "k", 5*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	fresh, err := l.Obtain(ctx, "k", time.Minute)
	require.NoError(t, err)

	// el candado vencido no libera al nuevo dueño
	require.NoError(t, stale.Release(ctx))
	_, err = l.Obtain(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNumberingLocked)
	require.NoError(t, fresh.Release(ctx))
}

func TestMemoryLocker_WaitsForRelease(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()
	l.interval = time.Millisecond
	l.retries = 1000

	var (
		mu      sync.Mutex
		counter int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lk, err := l.Obtain(ctx, "ticket", time.Second)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			counter++
			mu.Unlock()
			_ = lk.Release(ctx)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, counter)
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryLocker()
	_, err := l.Obtain(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Obtain(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_WithoutRedisFallsBackToMemory(t *testing.T) {
	l, closeFn := New(context.Background(), "", zerolog.Nop())
	_, ok := l.(*MemoryLocker)
	assert.True(t, ok)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())

	l, closeFn = New(context.Background(), "::no-es-url", zerolog.Nop())
	_, ok = l.(*MemoryLocker)
	assert.True(t, ok)
	assert.NoError(t, closeFn())
}
