package ports

import (
	"context"
	"time"
)

// Lock candado obtenido; Release lo libera antes de que expire.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker candados con expiración entre instancias de la API (consecutivos, placas, pagos).
// Obtain devuelve domain.ErrNumberingLocked si otro proceso tiene la llave.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}
