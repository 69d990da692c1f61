package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
)

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ billing.TxRunner   = (*TxRunner)(nil)
	_ parking.TxRunner   = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// inTx abre la transacción, ejecuta fn y hace Commit; cualquier error deja Rollback.
func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func inventoryRepos(q Querier) inventory.Repos {
	return inventory.Repos{
		Movements: NewInventoryMovementRepository(q),
		Stock:     NewStockRepository(q),
		Products:  NewProductRepository(q),
	}
}

// Run repos de inventario atados a la transacción (movimientos, traslados, importación).
func (r *TxRunner) Run(ctx context.Context, fn func(r inventory.Repos) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(inventoryRepos(tx))
	})
}

// RunBilling repos de inventario y facturación: emisión, pagos y notas crédito.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(r billing.Repos) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(billing.Repos{
			Repos:       inventoryRepos(tx),
			Customers:   NewCustomerRepository(tx),
			Invoices:    NewInvoiceRepository(tx),
			Payments:    NewPaymentRepository(tx),
			CreditNotes: NewCreditNoteRepository(tx),
			Receivables: NewReceivableRepository(tx),
			Resolutions: NewBillingResolutionRepository(tx),
		})
	})
}

// RunParking repos de parqueadero: entrada con tiquete y salida con liquidación.
func (r *TxRunner) RunParking(ctx context.Context, fn func(r parking.Repos) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(parking.Repos{
			Sessions:      NewParkingSessionRepository(tx),
			Subscriptions: NewParkingSubscriptionRepository(tx),
			Tariffs:       NewParkingTariffRepository(tx),
		})
	})
}
