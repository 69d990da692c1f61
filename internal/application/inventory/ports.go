package inventory

import (
	"context"
	"io"

	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Movements repository.InventoryMovementRepository
	Stock     repository.StockRepository
	Products  repository.ProductRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD; si fn falla se hace rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// SheetReader lee la primera hoja de un libro XLSX como filas de texto.
type SheetReader interface {
	ReadRows(r io.Reader) ([][]string, error)
}
