// Package lock candados con expiración para consecutivos y tiquetes.
// Con Redis configurado los candados se comparten entre instancias; sin él quedan en memoria.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
)

const (
	retryInterval = 100 * time.Millisecond
	maxRetries    = 30
	keyPrefix     = "invorya:"
)

// RedisLocker ports.Locker sobre redislock.
type RedisLocker struct {
	rdb    *redis.Client
	client *redislock.Client
}

// NewRedisLocker abre la conexión y verifica que responda. Close la libera.
func NewRedisLocker(ctx context.Context, url string) (*RedisLocker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisLocker(rdb), nil
}

func newRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb, client: redislock.New(rdb)}
}

// Close cierra la conexión a Redis.
func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}

// Obtain reintenta durante unos segundos antes de rendirse con ErrNumberingLocked.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (ports.Lock, error) {
	lk, err := l.client.Obtain(ctx, keyPrefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryInterval), maxRetries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNumberingLocked, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtener candado %s: %w", key, err)
	}
	return lk, nil
}

// New elige el locker según la configuración. Si Redis no responde se usa el de memoria.
// closeFn libera la conexión al apagar; con el de memoria no hace nada.
func New(ctx context.Context, url string, log zerolog.Logger) (locker ports.Locker, closeFn func() error) {
	noop := func() error { return nil }
	if url == "" {
		log.Info().Msg("candados en memoria (REDIS_URL vacío)")
		return NewMemoryLocker(), noop
	}
	l, err := NewRedisLocker(ctx, url)
	if err != nil {
		log.Warn().Err(err).Msg("redis no disponible, candados en memoria")
		return NewMemoryLocker(), noop
	}
	log.Info().Msg("candados en redis")
	return l, l.Close
}

var _ ports.Locker = (*RedisLocker)(nil)
