package billing

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/ledger"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

const receivablePageSize = 500

// ReceivableUseCase consultas de cartera: listado, estado de cuenta, edades y resincronización.
type ReceivableUseCase struct {
	txRunner       TxRunner
	companyRepo    repository.CompanyRepository
	customerRepo   repository.CustomerRepository
	invoiceRepo    repository.InvoiceRepository
	paymentRepo    repository.PaymentRepository
	creditNoteRepo repository.CreditNoteRepository
	receivableRepo repository.ReceivableRepository
	exporter       AgingExporter
	audit          ports.AuditRecorder
	now            func() time.Time
}

func NewReceivableUseCase(
	txRunner TxRunner,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	creditNoteRepo repository.CreditNoteRepository,
	receivableRepo repository.ReceivableRepository,
	exporter AgingExporter,
	auditRec ports.AuditRecorder,
) *ReceivableUseCase {
	return &ReceivableUseCase{
		txRunner:       txRunner,
		companyRepo:    companyRepo,
		customerRepo:   customerRepo,
		invoiceRepo:    invoiceRepo,
		paymentRepo:    paymentRepo,
		creditNoteRepo: creditNoteRepo,
		receivableRepo: receivableRepo,
		exporter:       exporter,
		audit:          auditRec,
		now:            time.Now,
	}
}

// ListReceivables cartera de la empresa con días de mora a hoy.
func (uc *ReceivableUseCase) ListReceivables(ctx context.Context, companyID string, in dto.ReceivableFilterRequest) ([]dto.ReceivableResponse, error) {
	list, err := uc.receivableRepo.List(ctx, companyID, repository.ReceivableFilter{
		Status:     in.Status,
		CustomerID: in.CustomerID,
		Overdue:    in.Overdue,
		Limit:      dto.NormalizeLimit(in.Limit),
		Offset:     max(in.Offset, 0),
	})
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := make([]dto.ReceivableResponse, 0, len(list))
	for _, ar := range list {
		out = append(out, toReceivableResponse(ar, now))
	}
	return out, nil
}

// GetByInvoice fila de cartera de una factura emitida.
func (uc *ReceivableUseCase) GetByInvoice(ctx context.Context, companyID, invoiceID string) (*dto.ReceivableResponse, error) {
	ar, err := uc.receivableRepo.GetByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if ar == nil {
		return nil, fmt.Errorf("%w: la factura %s no tiene cartera", domain.ErrNotFound, invoiceID)
	}
	if ar.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	resp := toReceivableResponse(ar, uc.now())
	return &resp, nil
}

// CustomerStatement facturas emitidas, abonos y notas de un cliente con su saldo total.
func (uc *ReceivableUseCase) CustomerStatement(ctx context.Context, companyID, customerID string) (*dto.StatementResponse, error) {
	c, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, customerID)
	}
	if c.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	invoices, err := uc.invoiceRepo.ListByCustomer(ctx, companyID, customerID)
	if err != nil {
		return nil, err
	}
	out := &dto.StatementResponse{
		Customer:    toCustomerResponse(c),
		Invoices:    []dto.InvoiceResponse{},
		Payments:    []dto.PaymentResponse{},
		CreditNotes: []dto.CreditNoteResponse{},
		Outstanding: decimal.Zero,
	}
	for _, inv := range invoices {
		if inv.Status == entity.InvoiceStatusDraft || (inv.Status == entity.InvoiceStatusCancelled && inv.PaidTotal.IsZero() && inv.CreditedTotal.IsZero()) {
			continue
		}
		out.Invoices = append(out.Invoices, *toInvoiceResponse(inv, c.Name, nil))
		out.Outstanding = out.Outstanding.Add(inv.Balance())

		payments, err := uc.paymentRepo.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range payments {
			out.Payments = append(out.Payments, toPaymentResponse(p))
		}
		notes, err := uc.creditNoteRepo.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			out.CreditNotes = append(out.CreditNotes, toCreditNoteResponse(n))
		}
	}
	return out, nil
}

// Aging agrupa los saldos pendientes por cliente y rango de vencimiento a la fecha asOf.
func (uc *ReceivableUseCase) Aging(ctx context.Context, companyID string, asOf time.Time) (*dto.AgingReport, error) {
	if asOf.IsZero() {
		asOf = uc.now()
	}
	rows := map[string]*dto.AgingRow{}
	report := &dto.AgingReport{
		AsOf:    asOf.Format(dateLayout),
		Rows:    []dto.AgingRow{},
		Totals:  emptyBuckets(),
		Overall: decimal.Zero,
	}
	for offset := 0; ; offset += receivablePageSize {
		list, err := uc.receivableRepo.List(ctx, companyID, repository.ReceivableFilter{Limit: receivablePageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, ar := range list {
			if !ar.Balance.IsPositive() || ar.IssueDate.After(asOf) {
				continue
			}
			row, ok := rows[ar.CustomerID]
			if !ok {
				row = &dto.AgingRow{CustomerID: ar.CustomerID, Buckets: emptyBuckets(), Total: decimal.Zero}
				rows[ar.CustomerID] = row
			}
			bucket := ledger.AgingBucket(ar.DueDate, asOf)
			row.Buckets[bucket] = row.Buckets[bucket].Add(ar.Balance)
			row.Total = row.Total.Add(ar.Balance)
			report.Totals[bucket] = report.Totals[bucket].Add(ar.Balance)
			report.Overall = report.Overall.Add(ar.Balance)
		}
		if len(list) < receivablePageSize {
			break
		}
	}
	for id, row := range rows {
		if c, err := uc.customerRepo.GetByID(ctx, id); err == nil && c != nil {
			row.CustomerName = c.Name
		}
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if !report.Rows[i].Total.Equal(report.Rows[j].Total) {
			return report.Rows[i].Total.GreaterThan(report.Rows[j].Total)
		}
		return report.Rows[i].CustomerName < report.Rows[j].CustomerName
	})
	return report, nil
}

func emptyBuckets() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(ledger.Buckets))
	for _, b := range ledger.Buckets {
		m[b] = decimal.Zero
	}
	return m
}

// ExportAging reporte de edades como XLSX.
func (uc *ReceivableUseCase) ExportAging(ctx context.Context, companyID string, asOf time.Time) ([]byte, string, error) {
	report, err := uc.Aging(ctx, companyID, asOf)
	if err != nil {
		return nil, "", err
	}
	companyName := ""
	if c, err := uc.companyRepo.GetByID(ctx, companyID); err == nil && c != nil {
		companyName = c.Name
	}
	var buf bytes.Buffer
	if err := uc.exporter.WriteAging(&buf, companyName, report); err != nil {
		return nil, "", fmt.Errorf("exportar cartera: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("cartera_%s.xlsx", report.AsOf), nil
}

// SyncAll recalcula la cartera de todas las facturas emitidas. Es idempotente:
// solo escribe las filas que difieren de su factura.
func (uc *ReceivableUseCase) SyncAll(ctx context.Context, companyID, userID string) (*dto.SyncResult, error) {
	res := &dto.SyncResult{}
	now := uc.now()
	for offset := 0; ; offset += receivablePageSize {
		invoices, _, err := uc.invoiceRepo.List(ctx, companyID, repository.InvoiceFilter{Limit: receivablePageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, inv := range invoices {
			if inv.Status == entity.InvoiceStatusDraft {
				continue
			}
			res.Processed++
			err := uc.txRunner.RunBilling(ctx, func(r Repos) error {
				locked, err := loadInvoiceForUpdate(ctx, r.Invoices, companyID, inv.ID)
				if err != nil {
					return err
				}
				current, err := r.Receivables.GetByInvoice(ctx, locked.ID)
				if err != nil {
					return err
				}
				if current == nil && locked.Status == entity.InvoiceStatusCancelled && locked.CreditedTotal.IsZero() {
					return nil // borrador anulado: nunca tuvo cartera
				}
				if current != nil && mirrors(current, locked) {
					return nil
				}
				if _, err := syncReceivable(ctx, r.Receivables, locked, now); err != nil {
					return err
				}
				res.Updated++
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("sincronizar %s: %w", inv.FullNumber(), err)
			}
		}
		if len(invoices) < receivablePageSize {
			break
		}
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditUpdate, "receivable", companyID,
		fmt.Sprintf("resincronización de cartera: %d procesadas, %d actualizadas", res.Processed, res.Updated), nil, res))
	return res, nil
}

// mirrors indica si la fila ya refleja la factura.
func mirrors(ar *entity.AccountReceivable, inv *entity.Invoice) bool {
	want := ledger.MirrorReceivable(inv, nil, ar.UpdatedAt)
	return ar.Balance.Equal(want.Balance) &&
		ar.PaidTotal.Equal(want.PaidTotal) &&
		ar.CreditedTotal.Equal(want.CreditedTotal) &&
		ar.OriginalTotal.Equal(want.OriginalTotal) &&
		ar.Status == want.Status &&
		ar.DueDate.Equal(want.DueDate) &&
		ar.CustomerID == want.CustomerID
}
