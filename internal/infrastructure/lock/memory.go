package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
)

// MemoryLocker candados de un solo proceso con la misma semántica que RedisLocker.
type MemoryLocker struct {
	mu       sync.Mutex
	held     map[string]holder
	interval time.Duration
	retries  int
}

type holder struct {
	token   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: map[string]holder{}, interval: retryInterval, retries: maxRetries}
}

func (l *MemoryLocker) tryObtain(key string, ttl time.Duration) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if h, ok := l.held[key]; ok && now.Before(h.expires) {
		return "", false
	}
	token := uuid.NewString()
	l.held[key] = holder{token: token, expires: now.Add(ttl)}
	return token, true
}

func (l *MemoryLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (ports.Lock, error) {
	for attempt := 0; ; attempt++ {
		if token, ok := l.tryObtain(key, ttl); ok {
			return &memoryLock{locker: l, key: key, token: token}, nil
		}
		if attempt >= l.retries {
			return nil, fmt.Errorf("%w: %s", domain.ErrNumberingLocked, key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.interval):
		}
	}
}

type memoryLock struct {
	locker *MemoryLocker
	key    string
	token  string
}

// Release no libera un candado que ya expiró y tomó otro.
func (m *memoryLock) Release(context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()
	if h, ok := m.locker.held[m.key]; ok && h.token == m.token {
		delete(m.locker.held, m.key)
	}
	return nil
}

var _ ports.Locker = (*MemoryLocker)(nil)
