package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo abonos a facturas (usable con pool o tx).
type PaymentRepo struct {
	q Querier
}

func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, company_id, invoice_id, amount, method, reference, paid_at, status, void_reason, created_by, created_at`

func scanPayment(row scanner) (*entity.Payment, error) {
	var p entity.Payment
	var createdBy *string
	err := row.Scan(&p.ID, &p.CompanyID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.PaidAt,
		&p.Status, &p.VoidReason, &createdBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedBy = deref(createdBy)
	return &p, nil
}

func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query, p.ID, p.CompanyID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.PaidAt,
		p.Status, p.VoidReason, nullIfEmpty(p.CreatedBy), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// ListByInvoice abonos de la factura en orden de pago, incluidos los anulados.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1 ORDER BY paid_at, created_at`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	list := []*entity.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Void anula un abono aplicado; un abono ya anulado no cambia.
func (r *PaymentRepo) Void(ctx context.Context, id, reason string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE payments SET status = $2, void_reason = $3 WHERE id = $1 AND status = $4`,
		id, entity.PaymentStatusVoided, reason, entity.PaymentStatusApplied)
	if err != nil {
		return fmt.Errorf("void payment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: el abono %s no está aplicado", domain.ErrInvalidTransition, id)
	}
	return nil
}
