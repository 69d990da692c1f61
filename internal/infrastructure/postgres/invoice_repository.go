package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, company_id, customer_id, warehouse_id, prefix, number, date, due_date,
	payment_form, payment_method, notes, net_total, discount_total, tax_total, grand_total,
	paid_total, credited_total, status, dian_status, cufe, uuid, xml_signed, qr_data,
	track_id_dian, dian_errors, provider, created_by, created_at, updated_at`

func scanInvoice(row scanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var warehouseID, cufe, uuidStr, xmlSigned, qrData, trackID, dianErrors, createdBy *string
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.CustomerID, &warehouseID, &inv.Prefix, &inv.Number, &inv.Date, &inv.DueDate,
		&inv.PaymentForm, &inv.PaymentMethod, &inv.Notes, &inv.NetTotal, &inv.DiscountTotal, &inv.TaxTotal, &inv.GrandTotal,
		&inv.PaidTotal, &inv.CreditedTotal, &inv.Status, &inv.DIAN_Status, &cufe, &uuidStr, &xmlSigned, &qrData,
		&trackID, &dianErrors, &inv.Provider, &createdBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.WarehouseID = deref(warehouseID)
	inv.CUFE = deref(cufe)
	inv.UUID = deref(uuidStr)
	inv.XMLSigned = deref(xmlSigned)
	inv.QRData = deref(qrData)
	inv.TrackID = deref(trackID)
	inv.DIANErrors = deref(dianErrors)
	inv.CreatedBy = deref(createdBy)
	return &inv, nil
}

// Create persiste la cabecera de la factura. Prefijo y número son únicos por empresa.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.CompanyID, invoice.CustomerID, nullIfEmpty(invoice.WarehouseID), invoice.Prefix, invoice.Number,
		invoice.Date, invoice.DueDate, invoice.PaymentForm, invoice.PaymentMethod, invoice.Notes,
		invoice.NetTotal, invoice.DiscountTotal, invoice.TaxTotal, invoice.GrandTotal,
		invoice.PaidTotal, invoice.CreditedTotal, invoice.Status, invoice.DIAN_Status,
		nullIfEmpty(invoice.CUFE), nullIfEmpty(invoice.UUID), nullIfEmpty(invoice.XMLSigned), nullIfEmpty(invoice.QRData),
		nullIfEmpty(invoice.TrackID), nullIfEmpty(invoice.DIANErrors), invoice.Provider, nullIfEmpty(invoice.CreatedBy),
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: factura %s", domain.ErrDuplicate, invoice.FullNumber())
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateDetail persiste una línea de detalle; line conserva el orden de inserción.
func (r *InvoiceRepo) CreateDetail(ctx context.Context, detail *entity.InvoiceDetail) error {
	if detail.ID == "" {
		detail.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_details
			(id, invoice_id, product_id, description, quantity, unit_price, discount, tax_rate, tax_amount, subtotal, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		detail.ID, detail.InvoiceID, detail.ProductID, detail.Description, detail.Quantity, detail.UnitPrice,
		detail.Discount, detail.TaxRate, detail.TaxAmount, detail.Subtotal, detail.UnitCost,
	)
	if err != nil {
		return fmt.Errorf("insert invoice detail: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) get(ctx context.Context, query string, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetByID obtiene una factura completa por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

// GetDetailsByInvoiceID obtiene todas las líneas de una factura.
func (r *InvoiceRepo) GetDetailsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceDetail, error) {
	query := `
		SELECT id, invoice_id, product_id, description, quantity, unit_price, discount, tax_rate, tax_amount, subtotal, unit_cost
		FROM invoice_details WHERE invoice_id = $1 ORDER BY line`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice details: %w", err)
	}
	defer rows.Close()
	list := []*entity.InvoiceDetail{}
	for rows.Next() {
		var d entity.InvoiceDetail
		if err := rows.Scan(&d.ID, &d.InvoiceID, &d.ProductID, &d.Description, &d.Quantity, &d.UnitPrice,
			&d.Discount, &d.TaxRate, &d.TaxAmount, &d.Subtotal, &d.UnitCost); err != nil {
			return nil, fmt.Errorf("scan detail: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

func (r *InvoiceRepo) scanList(ctx context.Context, query string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	list := []*entity.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// List facturas de la empresa con filtros y total sin paginar, más recientes primero.
func (r *InvoiceRepo) List(ctx context.Context, companyID string, inf repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	f := newFilter("company_id = $%d", companyID)
	if inf.Status != "" {
		f.add("status = $%d", inf.Status)
	}
	if inf.DIANStatus != "" {
		f.add("dian_status = $%d", inf.DIANStatus)
	}
	if inf.CustomerID != "" {
		f.add("customer_id = $%d", inf.CustomerID)
	}
	if inf.From != nil {
		f.add("date >= $%d", *inf.From)
	}
	if inf.To != nil {
		f.add("date <= $%d", *inf.To)
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM invoices`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	list, err := r.scanList(ctx,
		`SELECT `+invoiceColumns+` FROM invoices`+f.where()+` ORDER BY date DESC, number DESC`+f.page(inf.Limit, inf.Offset),
		f.args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByCustomer facturas del cliente, más antiguas primero (estado de cuenta).
func (r *InvoiceRepo) ListByCustomer(ctx context.Context, companyID, customerID string) ([]*entity.Invoice, error) {
	return r.scanList(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE company_id = $1 AND customer_id = $2 ORDER BY date, number`,
		companyID, customerID)
}

// UpdateLedger persiste el estado de cobro y los acumulados de pagos y notas.
func (r *InvoiceRepo) UpdateLedger(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices SET status = $2, paid_total = $3, credited_total = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, invoice.ID, invoice.Status, invoice.PaidTotal, invoice.CreditedTotal, invoice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update invoice ledger: %w", err)
	}
	return nil
}

// UpdateElectronic actualiza todos los campos DIAN de la factura.
func (r *InvoiceRepo) UpdateElectronic(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET cufe          = COALESCE($2,  cufe),
		    uuid          = COALESCE($3,  uuid),
		    xml_signed    = COALESCE($4,  xml_signed),
		    dian_status   = $5,
		    qr_data       = COALESCE($6,  qr_data),
		    track_id_dian = COALESCE($7,  track_id_dian),
		    dian_errors   = $8,
		    provider      = $9,
		    updated_at    = $10
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		invoice.ID,
		nullIfEmpty(invoice.CUFE),
		nullIfEmpty(invoice.UUID),
		nullIfEmpty(invoice.XMLSigned),
		invoice.DIAN_Status,
		nullIfEmpty(invoice.QRData),
		nullIfEmpty(invoice.TrackID),
		nullIfEmpty(invoice.DIANErrors),
		invoice.Provider,
		invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// GetDIANStatus devuelve solo los campos de estado DIAN (consulta ligera para polling).
func (r *InvoiceRepo) GetDIANStatus(ctx context.Context, id string) (*entity.Invoice, error) {
	const query = `
		SELECT id, company_id, prefix, number, dian_status,
		       COALESCE(cufe, ''), COALESCE(track_id_dian, ''), COALESCE(dian_errors, ''), provider
		FROM invoices WHERE id = $1`
	var inv entity.Invoice
	err := r.q.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.Prefix, &inv.Number, &inv.DIAN_Status,
		&inv.CUFE, &inv.TrackID, &inv.DIANErrors, &inv.Provider,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice dian status: %w", err)
	}
	return &inv, nil
}
