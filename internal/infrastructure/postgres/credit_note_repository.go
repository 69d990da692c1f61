package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ repository.CreditNoteRepository = (*CreditNoteRepo)(nil)

// CreditNoteRepo notas crédito y sus líneas (usable con pool o tx).
type CreditNoteRepo struct {
	q Querier
}

func NewCreditNoteRepository(q Querier) *CreditNoteRepo {
	return &CreditNoteRepo{q: q}
}

const creditNoteColumns = `id, company_id, invoice_id, prefix, number, date, concept_code, reason, restock, warehouse_id,
	net_total, tax_total, grand_total, dian_status, cude, xml_signed, track_id, dian_errors, created_by, created_at, updated_at`

func scanCreditNote(row scanner) (*entity.CreditNote, error) {
	var n entity.CreditNote
	var warehouseID, cude, xmlSigned, trackID, dianErrors, createdBy *string
	err := row.Scan(&n.ID, &n.CompanyID, &n.InvoiceID, &n.Prefix, &n.Number, &n.Date, &n.ConceptCode, &n.Reason,
		&n.Restock, &warehouseID, &n.NetTotal, &n.TaxTotal, &n.GrandTotal, &n.DIAN_Status, &cude, &xmlSigned,
		&trackID, &dianErrors, &createdBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.WarehouseID = deref(warehouseID)
	n.CUDE = deref(cude)
	n.XMLSigned = deref(xmlSigned)
	n.TrackID = deref(trackID)
	n.DIANErrors = deref(dianErrors)
	n.CreatedBy = deref(createdBy)
	return &n, nil
}

// Create persiste la nota con todas sus líneas.
func (r *CreditNoteRepo) Create(ctx context.Context, n *entity.CreditNote) error {
	query := `
		INSERT INTO credit_notes (` + creditNoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.CompanyID, n.InvoiceID, n.Prefix, n.Number, n.Date, n.ConceptCode, n.Reason, n.Restock,
		nullIfEmpty(n.WarehouseID), n.NetTotal, n.TaxTotal, n.GrandTotal, n.DIAN_Status,
		nullIfEmpty(n.CUDE), nullIfEmpty(n.XMLSigned), nullIfEmpty(n.TrackID), nullIfEmpty(n.DIANErrors),
		nullIfEmpty(n.CreatedBy), n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: nota crédito %s", domain.ErrDuplicate, n.FullNumber())
		}
		return fmt.Errorf("insert credit note: %w", err)
	}
	for i := range n.Lines {
		l := &n.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.CreditNoteID = n.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO credit_note_lines
				(id, credit_note_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.ID, l.CreditNoteID, nullIfEmpty(l.ProductID), l.Description, l.Quantity, l.UnitPrice,
			l.TaxRate, l.TaxAmount, l.Subtotal)
		if err != nil {
			return fmt.Errorf("insert credit note line: %w", err)
		}
	}
	return nil
}

func (r *CreditNoteRepo) lines(ctx context.Context, noteID string) ([]entity.CreditNoteLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, credit_note_id, product_id, description, quantity, unit_price, tax_rate, tax_amount, subtotal
		FROM credit_note_lines WHERE credit_note_id = $1 ORDER BY line`, noteID)
	if err != nil {
		return nil, fmt.Errorf("list credit note lines: %w", err)
	}
	defer rows.Close()
	out := []entity.CreditNoteLine{}
	for rows.Next() {
		var l entity.CreditNoteLine
		var productID *string
		if err := rows.Scan(&l.ID, &l.CreditNoteID, &productID, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.TaxRate, &l.TaxAmount, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan credit note line: %w", err)
		}
		l.ProductID = deref(productID)
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetByID nota con sus líneas.
func (r *CreditNoteRepo) GetByID(ctx context.Context, id string) (*entity.CreditNote, error) {
	n, err := scanCreditNote(r.q.QueryRow(ctx, `SELECT `+creditNoteColumns+` FROM credit_notes WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit note: %w", err)
	}
	if n.Lines, err = r.lines(ctx, n.ID); err != nil {
		return nil, err
	}
	return n, nil
}

// ListByInvoice notas de la factura con sus líneas.
func (r *CreditNoteRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.CreditNote, error) {
	rows, err := r.q.Query(ctx, `SELECT `+creditNoteColumns+` FROM credit_notes WHERE invoice_id = $1 ORDER BY created_at`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list credit notes: %w", err)
	}
	list := []*entity.CreditNote{}
	for rows.Next() {
		n, err := scanCreditNote(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan credit note: %w", err)
		}
		list = append(list, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// las líneas se leen después de cerrar rows: una tx no admite dos consultas abiertas
	for _, n := range list {
		if n.Lines, err = r.lines(ctx, n.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// UpdateElectronic persiste el resultado del envío electrónico.
func (r *CreditNoteRepo) UpdateElectronic(ctx context.Context, n *entity.CreditNote) error {
	query := `
		UPDATE credit_notes
		SET cude        = COALESCE($2, cude),
		    xml_signed  = COALESCE($3, xml_signed),
		    track_id    = COALESCE($4, track_id),
		    dian_status = $5,
		    dian_errors = $6,
		    updated_at  = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, n.ID, nullIfEmpty(n.CUDE), nullIfEmpty(n.XMLSigned), nullIfEmpty(n.TrackID),
		n.DIAN_Status, nullIfEmpty(n.DIANErrors), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update credit note: %w", err)
	}
	return nil
}

// CreditedQuantities suma por producto de las líneas ya acreditadas a la factura.
func (r *CreditNoteRepo) CreditedQuantities(ctx context.Context, invoiceID string) (map[string]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT l.product_id, SUM(l.quantity)
		FROM credit_note_lines l
		JOIN credit_notes n ON n.id = l.credit_note_id
		WHERE n.invoice_id = $1 AND l.product_id IS NOT NULL
		GROUP BY l.product_id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("credited quantities: %w", err)
	}
	defer rows.Close()
	out := map[string]decimal.Decimal{}
	for rows.Next() {
		var productID string
		var qty decimal.Decimal
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("scan credited quantity: %w", err)
		}
		out[productID] = qty
	}
	return out, rows.Err()
}
