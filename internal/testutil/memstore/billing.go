package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// ── Resoluciones ──────────────────────────────────────────────────────────────

type ResolutionRepo struct{ s *Store }

var _ repository.BillingResolutionRepository = (*ResolutionRepo)(nil)

func (s *Store) Resolutions() *ResolutionRepo { return &ResolutionRepo{s} }

func (r *ResolutionRepo) Create(_ context.Context, res *entity.BillingResolution) error {
	defer r.s.lock()()
	r.s.st.resolutions[res.ID] = *res
	return nil
}

func (r *ResolutionRepo) GetByID(_ context.Context, id string) (*entity.BillingResolution, error) {
	defer r.s.lock()()
	if res, ok := r.s.st.resolutions[id]; ok {
		return &res, nil
	}
	return nil, nil
}

func (r *ResolutionRepo) GetActive(_ context.Context, companyID, kind, prefix string) (*entity.BillingResolution, error) {
	defer r.s.lock()()
	for _, res := range r.s.st.resolutions {
		if res.CompanyID == companyID && res.Kind == kind && res.IsActive && (prefix == "" || res.Prefix == prefix) {
			return ptr(res), nil
		}
	}
	return nil, nil
}

func (r *ResolutionRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.BillingResolution, error) {
	defer r.s.lock()()
	var out []*entity.BillingResolution
	for _, res := range r.s.st.resolutions {
		if res.CompanyID == companyID {
			out = append(out, ptr(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out, nil
}

func (r *ResolutionRepo) Update(_ context.Context, res *entity.BillingResolution) error {
	defer r.s.lock()()
	r.s.st.resolutions[res.ID] = *res
	return nil
}

func (r *ResolutionRepo) NextNumber(_ context.Context, id string) (int64, error) {
	defer r.s.lock()()
	res, ok := r.s.st.resolutions[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	n := res.NextNumber
	res.NextNumber++
	r.s.st.resolutions[id] = res
	return n, nil
}

// ── Facturas ──────────────────────────────────────────────────────────────────

type InvoiceRepo struct{ s *Store }

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s} }

func (r *InvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	defer r.s.lock()()
	for _, x := range r.s.st.invoices {
		if x.CompanyID == inv.CompanyID && x.Prefix == inv.Prefix && x.Number == inv.Number {
			return fmt.Errorf("%w: número %s", domain.ErrDuplicate, inv.FullNumber())
		}
	}
	r.s.st.invoices[inv.ID] = *inv
	return nil
}

func (r *InvoiceRepo) CreateDetail(_ context.Context, d *entity.InvoiceDetail) error {
	defer r.s.lock()()
	r.s.st.details = append(r.s.st.details, *d)
	return nil
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	defer r.s.lock()()
	if inv, ok := r.s.st.invoices[id]; ok {
		return &inv, nil
	}
	return nil, nil
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *InvoiceRepo) GetDetailsByInvoiceID(_ context.Context, invoiceID string) ([]*entity.InvoiceDetail, error) {
	defer r.s.lock()()
	var out []*entity.InvoiceDetail
	for _, d := range r.s.st.details {
		if d.InvoiceID == invoiceID {
			out = append(out, ptr(d))
		}
	}
	return out, nil
}

func (r *InvoiceRepo) List(_ context.Context, companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	defer r.s.lock()()
	var out []*entity.Invoice
	for _, inv := range r.s.st.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if (f.Status != "" && inv.Status != f.Status) || (f.DIANStatus != "" && inv.DIAN_Status != f.DIANStatus) ||
			(f.CustomerID != "" && inv.CustomerID != f.CustomerID) {
			continue
		}
		if (f.From != nil && inv.Date.Before(*f.From)) || (f.To != nil && inv.Date.After(*f.To)) {
			continue
		}
		out = append(out, ptr(inv))
	}
	sortByTime(out, func(i *entity.Invoice) time.Time { return i.CreatedAt }, true)
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *InvoiceRepo) ListByCustomer(_ context.Context, companyID, customerID string) ([]*entity.Invoice, error) {
	defer r.s.lock()()
	var out []*entity.Invoice
	for _, inv := range r.s.st.invoices {
		if inv.CompanyID == companyID && inv.CustomerID == customerID {
			out = append(out, ptr(inv))
		}
	}
	sortByTime(out, func(i *entity.Invoice) time.Time { return i.Date }, false)
	return out, nil
}

func (r *InvoiceRepo) UpdateLedger(_ context.Context, inv *entity.Invoice) error {
	defer r.s.lock()()
	cur, ok := r.s.st.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status, cur.PaidTotal, cur.CreditedTotal, cur.UpdatedAt = inv.Status, inv.PaidTotal, inv.CreditedTotal, inv.UpdatedAt
	r.s.st.invoices[inv.ID] = cur
	return nil
}

func (r *InvoiceRepo) UpdateElectronic(_ context.Context, inv *entity.Invoice) error {
	defer r.s.lock()()
	cur, ok := r.s.st.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.DIAN_Status, cur.CUFE, cur.UUID, cur.XMLSigned = inv.DIAN_Status, inv.CUFE, inv.UUID, inv.XMLSigned
	cur.QRData, cur.TrackID, cur.DIANErrors, cur.Provider = inv.QRData, inv.TrackID, inv.DIANErrors, inv.Provider
	if inv.Number != "" {
		cur.Number = inv.Number
	}
	cur.UpdatedAt = inv.UpdatedAt
	r.s.st.invoices[inv.ID] = cur
	return nil
}

func (r *InvoiceRepo) GetDIANStatus(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

// ── Pagos ─────────────────────────────────────────────────────────────────────

type PaymentRepo struct{ s *Store }

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

func (s *Store) Payments() *PaymentRepo { return &PaymentRepo{s} }

func (r *PaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	defer r.s.lock()()
	r.s.st.payments[p.ID] = *p
	return nil
}

func (r *PaymentRepo) GetByID(_ context.Context, id string) (*entity.Payment, error) {
	defer r.s.lock()()
	if p, ok := r.s.st.payments[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *PaymentRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.Payment, error) {
	defer r.s.lock()()
	var out []*entity.Payment
	for _, p := range r.s.st.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, ptr(p))
		}
	}
	sortByTime(out, func(p *entity.Payment) time.Time { return p.PaidAt }, false)
	return out, nil
}

func (r *PaymentRepo) Void(_ context.Context, id, reason string) error {
	defer r.s.lock()()
	p, ok := r.s.st.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status, p.VoidReason = entity.PaymentStatusVoided, reason
	r.s.st.payments[id] = p
	return nil
}

// ── Notas crédito ─────────────────────────────────────────────────────────────

type CreditNoteRepo struct{ s *Store }

var _ repository.CreditNoteRepository = (*CreditNoteRepo)(nil)

func (s *Store) CreditNotes() *CreditNoteRepo { return &CreditNoteRepo{s} }

func (r *CreditNoteRepo) Create(_ context.Context, n *entity.CreditNote) error {
	defer r.s.lock()()
	cp := *n
	cp.Lines = append([]entity.CreditNoteLine(nil), n.Lines...)
	r.s.st.creditNotes[n.ID] = cp
	return nil
}

func (r *CreditNoteRepo) GetByID(_ context.Context, id string) (*entity.CreditNote, error) {
	defer r.s.lock()()
	if n, ok := r.s.st.creditNotes[id]; ok {
		return &n, nil
	}
	return nil, nil
}

func (r *CreditNoteRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.CreditNote, error) {
	defer r.s.lock()()
	var out []*entity.CreditNote
	for _, n := range r.s.st.creditNotes {
		if n.InvoiceID == invoiceID {
			out = append(out, ptr(n))
		}
	}
	sortByTime(out, func(n *entity.CreditNote) time.Time { return n.CreatedAt }, false)
	return out, nil
}

func (r *CreditNoteRepo) UpdateElectronic(_ context.Context, n *entity.CreditNote) error {
	defer r.s.lock()()
	cur, ok := r.s.st.creditNotes[n.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.DIAN_Status, cur.CUDE, cur.XMLSigned, cur.TrackID, cur.DIANErrors = n.DIAN_Status, n.CUDE, n.XMLSigned, n.TrackID, n.DIANErrors
	cur.UpdatedAt = n.UpdatedAt
	r.s.st.creditNotes[n.ID] = cur
	return nil
}

func (r *CreditNoteRepo) CreditedQuantities(_ context.Context, invoiceID string) (map[string]decimal.Decimal, error) {
	defer r.s.lock()()
	out := map[string]decimal.Decimal{}
	for _, n := range r.s.st.creditNotes {
		if n.InvoiceID != invoiceID {
			continue
		}
		for _, l := range n.Lines {
			if l.ProductID != "" {
				out[l.ProductID] = out[l.ProductID].Add(l.Quantity)
			}
		}
	}
	return out, nil
}

// ── Cartera ───────────────────────────────────────────────────────────────────

type ReceivableRepo struct{ s *Store }

var _ repository.ReceivableRepository = (*ReceivableRepo)(nil)

func (s *Store) Receivables() *ReceivableRepo { return &ReceivableRepo{s} }

func (r *ReceivableRepo) Upsert(_ context.Context, ar *entity.AccountReceivable) error {
	defer r.s.lock()()
	if cur, ok := r.s.st.receivables[ar.InvoiceID]; ok && ar.ID == "" {
		ar.ID = cur.ID
	}
	r.s.st.receivables[ar.InvoiceID] = *ar
	return nil
}

func (r *ReceivableRepo) GetByInvoice(_ context.Context, invoiceID string) (*entity.AccountReceivable, error) {
	defer r.s.lock()()
	if ar, ok := r.s.st.receivables[invoiceID]; ok {
		return &ar, nil
	}
	return nil, nil
}

func (r *ReceivableRepo) List(_ context.Context, companyID string, f repository.ReceivableFilter) ([]*entity.AccountReceivable, error) {
	defer r.s.lock()()
	now := time.Now()
	var out []*entity.AccountReceivable
	for _, ar := range r.s.st.receivables {
		if ar.CompanyID != companyID || (f.Status != "" && ar.Status != f.Status) || (f.CustomerID != "" && ar.CustomerID != f.CustomerID) {
			continue
		}
		if f.Overdue && (!ar.Balance.IsPositive() || !ar.DueDate.Before(now)) {
			continue
		}
		out = append(out, ptr(ar))
	}
	sortByTime(out, func(a *entity.AccountReceivable) time.Time { return a.DueDate }, false)
	return page(out, f.Limit, f.Offset), nil
}
