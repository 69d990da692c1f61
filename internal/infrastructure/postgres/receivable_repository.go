package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ repository.ReceivableRepository = (*ReceivableRepo)(nil)

// ReceivableRepo espejo de cartera: una fila por factura emitida.
type ReceivableRepo struct {
	q Querier
}

func NewReceivableRepository(q Querier) *ReceivableRepo {
	return &ReceivableRepo{q: q}
}

const receivableColumns = `id, company_id, invoice_id, customer_id, document_no, issue_date, due_date,
	original_total, paid_total, credited_total, balance, status, updated_at`

func scanReceivable(row scanner) (*entity.AccountReceivable, error) {
	var ar entity.AccountReceivable
	err := row.Scan(&ar.ID, &ar.CompanyID, &ar.InvoiceID, &ar.CustomerID, &ar.DocumentNo, &ar.IssueDate, &ar.DueDate,
		&ar.OriginalTotal, &ar.PaidTotal, &ar.CreditedTotal, &ar.Balance, &ar.Status, &ar.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ar, nil
}

// Upsert crea la fila o actualiza acumulados y estado; el ID original se conserva.
func (r *ReceivableRepo) Upsert(ctx context.Context, ar *entity.AccountReceivable) error {
	query := `
		INSERT INTO accounts_receivable (` + receivableColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (invoice_id) DO UPDATE SET
			due_date       = EXCLUDED.due_date,
			paid_total     = EXCLUDED.paid_total,
			credited_total = EXCLUDED.credited_total,
			balance        = EXCLUDED.balance,
			status         = EXCLUDED.status,
			updated_at     = EXCLUDED.updated_at
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		ar.ID, ar.CompanyID, ar.InvoiceID, ar.CustomerID, ar.DocumentNo, ar.IssueDate, ar.DueDate,
		ar.OriginalTotal, ar.PaidTotal, ar.CreditedTotal, ar.Balance, ar.Status, ar.UpdatedAt,
	).Scan(&ar.ID)
	if err != nil {
		return fmt.Errorf("upsert receivable: %w", err)
	}
	return nil
}

func (r *ReceivableRepo) GetByInvoice(ctx context.Context, invoiceID string) (*entity.AccountReceivable, error) {
	ar, err := scanReceivable(r.q.QueryRow(ctx, `SELECT `+receivableColumns+` FROM accounts_receivable WHERE invoice_id = $1`, invoiceID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receivable: %w", err)
	}
	return ar, nil
}

// List cartera por vencimiento; Overdue deja solo saldos abiertos con vencimiento pasado.
func (r *ReceivableRepo) List(ctx context.Context, companyID string, rf repository.ReceivableFilter) ([]*entity.AccountReceivable, error) {
	f := newFilter("company_id = $%d", companyID)
	if rf.Status != "" {
		f.add("status = $%d", rf.Status)
	}
	if rf.CustomerID != "" {
		f.add("customer_id = $%d", rf.CustomerID)
	}
	if rf.Overdue {
		f.conds = append(f.conds, "balance > 0", "due_date < CURRENT_DATE")
	}
	query := `SELECT ` + receivableColumns + ` FROM accounts_receivable` + f.where() + ` ORDER BY due_date, document_no`
	if rf.Limit > 0 {
		query += f.page(rf.Limit, rf.Offset)
	}
	rows, err := r.q.Query(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("list receivables: %w", err)
	}
	defer rows.Close()
	list := []*entity.AccountReceivable{}
	for rows.Next() {
		ar, err := scanReceivable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receivable: %w", err)
		}
		list = append(list, ar)
	}
	return list, rows.Err()
}
