package lock

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_CloseCierraElCliente(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	l := newRedisLocker(rdb)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Close(), redis.ErrClosed)
}
