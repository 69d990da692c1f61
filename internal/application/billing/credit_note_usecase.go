package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/ledger"
	"github.com/jhoicas/invorya-erp/internal/domain/pricing"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// DefaultCreditNotePrefix prefijo cuando la resolución de notas no define uno.
const DefaultCreditNotePrefix = "NC"

// CreditNoteUseCase emite notas crédito sobre facturas emitidas: valida cantidades
// contra lo facturado y lo ya acreditado, reduce el saldo y opcionalmente reingresa mercancía.
type CreditNoteUseCase struct {
	txRunner       TxRunner
	invoiceRepo    repository.InvoiceRepository
	creditNoteRepo repository.CreditNoteRepository
	warehouseRepo  repository.WarehouseRepository
	locker         ports.Locker
	dispatcher     Dispatcher
	audit          ports.AuditRecorder
	now            func() time.Time
}

func NewCreditNoteUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	creditNoteRepo repository.CreditNoteRepository,
	warehouseRepo repository.WarehouseRepository,
	locker ports.Locker,
	dispatcher Dispatcher,
	auditRec ports.AuditRecorder,
) *CreditNoteUseCase {
	return &CreditNoteUseCase{
		txRunner:       txRunner,
		invoiceRepo:    invoiceRepo,
		creditNoteRepo: creditNoteRepo,
		warehouseRepo:  warehouseRepo,
		locker:         locker,
		dispatcher:     dispatcher,
		audit:          auditRec,
		now:            time.Now,
	}
}

// CreateCreditNote crea la nota sobre la factura invoiceID.
func (uc *CreditNoteUseCase) CreateCreditNote(ctx context.Context, companyID, userID, invoiceID string, in dto.CreateCreditNoteRequest) (*dto.CreditNoteResponse, error) {
	if _, ok := dian.CreditConceptDescriptions[in.ConceptCode]; !ok {
		return nil, fmt.Errorf("%w: concepto %q", domain.ErrInvalidInput, in.ConceptCode)
	}
	if len(in.Items) == 0 && in.Amount == nil {
		return nil, fmt.Errorf("%w: se requieren ítems o un valor", domain.ErrInvalidInput)
	}
	if len(in.Items) > 0 && in.Amount != nil {
		return nil, fmt.Errorf("%w: use ítems o valor, no ambos", domain.ErrInvalidInput)
	}
	if in.Restock && len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: el reingreso de mercancía requiere ítems", domain.ErrInvalidInput)
	}
	if in.Restock && in.WarehouseID != "" {
		wh, err := uc.warehouseRepo.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return nil, err
		}
		if wh == nil || wh.CompanyID != companyID {
			return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, in.WarehouseID)
		}
	}

	unlock, err := lockNumbering(ctx, uc.locker, companyID, entity.ResolutionKindCreditNote)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := uc.now()
	var (
		inv    *entity.Invoice
		note   *entity.CreditNote
		before *dto.LedgerResponse
	)
	err = uc.txRunner.RunBilling(ctx, func(r Repos) error {
		var err error
		inv, err = loadInvoiceForUpdate(ctx, r.Invoices, companyID, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != entity.InvoiceStatusIssued && inv.Status != entity.InvoiceStatusPartial {
			return fmt.Errorf("%w: solo se acreditan facturas emitidas con saldo (estado %s)", domain.ErrInvalidTransition, inv.Status)
		}
		before = toLedgerResponse(inv)
		details, err := r.Invoices.GetDetailsByInvoiceID(ctx, inv.ID)
		if err != nil {
			return err
		}

		note = &entity.CreditNote{
			ID:          uuid.New().String(),
			CompanyID:   companyID,
			InvoiceID:   inv.ID,
			Date:        now,
			ConceptCode: in.ConceptCode,
			Reason:      strings.TrimSpace(in.Reason),
			Restock:     in.Restock,
			DIAN_Status: entity.DIANStatusDraft,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if in.Restock {
			note.WarehouseID = in.WarehouseID
			if note.WarehouseID == "" {
				note.WarehouseID = inv.WarehouseID
			}
		}

		var totals pricing.Totals
		if len(in.Items) > 0 {
			credited, err := r.CreditNotes.CreditedQuantities(ctx, inv.ID)
			if err != nil {
				return err
			}
			lines, t, err := itemLines(note.ID, in.Items, details, credited)
			if err != nil {
				return err
			}
			note.Lines, totals = lines, t
		} else {
			line, err := amountLine(note.ID, *in.Amount, inv)
			if err != nil {
				return err
			}
			note.Lines = []entity.CreditNoteLine{line}
			totals = pricing.Totals{Net: line.Subtotal, Tax: line.TaxAmount, Grand: line.Subtotal.Add(line.TaxAmount)}
		}
		note.NetTotal, note.TaxTotal, note.GrandTotal = totals.Net, totals.Tax, totals.Grand

		bal := ledger.BalanceOf(inv)
		if in.ConceptCode == dian.CreditConceptAnnulment && !note.GrandTotal.Equal(bal.Outstanding()) {
			return fmt.Errorf("%w: la anulación debe cubrir el saldo completo (%s)", domain.ErrInvalidInput, bal.Outstanding().StringFixed(2))
		}
		b, err := ledger.ApplyCredit(bal, note.GrandTotal)
		if err != nil {
			return err
		}

		res, number, err := reserveNumber(ctx, r.Resolutions, companyID, entity.ResolutionKindCreditNote, "", now)
		if err != nil {
			return err
		}
		note.Prefix = res.Prefix
		if note.Prefix == "" {
			note.Prefix = DefaultCreditNotePrefix
		}
		note.Number = number
		if err := r.CreditNotes.Create(ctx, note); err != nil {
			return err
		}

		if err := ledger.Apply(inv, b); err != nil {
			return err
		}
		inv.UpdatedAt = now
		if err := r.Invoices.UpdateLedger(ctx, inv); err != nil {
			return err
		}
		if _, err := syncReceivable(ctx, r.Receivables, inv, now); err != nil {
			return err
		}

		if !note.Restock {
			return nil
		}
		costs := map[string]decimal.Decimal{}
		for _, d := range details {
			costs[d.ProductID] = d.UnitCost
		}
		for _, l := range note.Lines {
			cost := costs[l.ProductID]
			if _, err := inventory.Apply(ctx, r.Repos, inventory.Move{
				Type:          entity.MovementTypeIN,
				ProductID:     l.ProductID,
				WarehouseID:   note.WarehouseID,
				Quantity:      l.Quantity,
				UnitCost:      &cost,
				TransactionID: note.ID,
				Reference:     "NC:" + note.FullNumber(),
				UserID:        userID,
				At:            now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "credit_note", note.ID,
		fmt.Sprintf("nota %s por %s sobre %s", note.FullNumber(), note.GrandTotal.StringFixed(2), inv.FullNumber()), before, toLedgerResponse(inv)))
	if uc.dispatcher != nil {
		uc.dispatcher.ProcessAsync(DocCreditNote, note.ID)
	}

	resp := toCreditNoteResponse(note)
	resp.Ledger = toLedgerResponse(inv)
	return &resp, nil
}

// itemLines arma las líneas por producto. La cantidad no puede superar lo facturado
// menos lo ya acreditado; el precio por defecto es el neto facturado por unidad.
func itemLines(noteID string, items []dto.CreditNoteItemRequest, details []*entity.InvoiceDetail, credited map[string]decimal.Decimal) ([]entity.CreditNoteLine, pricing.Totals, error) {
	type invoiced struct {
		qty      decimal.Decimal
		subtotal decimal.Decimal
		rate     decimal.Decimal
		name     string
	}
	byProduct := map[string]*invoiced{}
	for _, d := range details {
		it, ok := byProduct[d.ProductID]
		if !ok {
			it = &invoiced{rate: d.TaxRate, name: d.Description}
			byProduct[d.ProductID] = it
		}
		it.qty = it.qty.Add(d.Quantity)
		it.subtotal = it.subtotal.Add(d.Subtotal)
	}

	var totals pricing.Totals
	requested := map[string]decimal.Decimal{}
	lines := make([]entity.CreditNoteLine, 0, len(items))
	for i, item := range items {
		it, ok := byProduct[item.ProductID]
		if !ok {
			return nil, totals, fmt.Errorf("%w: ítem %d: el producto no está en la factura", domain.ErrInvalidInput, i+1)
		}
		requested[item.ProductID] = requested[item.ProductID].Add(item.Quantity)
		available := it.qty.Sub(credited[item.ProductID])
		if requested[item.ProductID].GreaterThan(available) {
			return nil, totals, fmt.Errorf("%w: ítem %d: se acreditan %s de %s disponibles", domain.ErrInvalidInput,
				i+1, requested[item.ProductID].String(), available.String())
		}
		price := it.subtotal.Div(it.qty).Round(2)
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		l, err := pricing.Compute(item.Quantity, price, decimal.Zero, it.rate)
		if err != nil {
			return nil, totals, fmt.Errorf("ítem %d: %w", i+1, err)
		}
		totals = totals.Add(l)
		lines = append(lines, entity.CreditNoteLine{
			ID:           uuid.New().String(),
			CreditNoteID: noteID,
			ProductID:    item.ProductID,
			Description:  it.name,
			Quantity:     item.Quantity,
			UnitPrice:    price,
			TaxRate:      l.TaxRate,
			TaxAmount:    l.Tax,
			Subtotal:     l.Subtotal,
		})
	}
	return lines, totals, nil
}

// amountLine acredita un valor con IVA incluido usando la tarifa efectiva de la factura.
func amountLine(noteID string, amount decimal.Decimal, inv *entity.Invoice) (entity.CreditNoteLine, error) {
	if !amount.IsPositive() {
		return entity.CreditNoteLine{}, fmt.Errorf("%w: el valor de la nota debe ser mayor a cero", domain.ErrInvalidInput)
	}
	rate := decimal.Zero
	if inv.NetTotal.IsPositive() {
		rate = inv.TaxTotal.Div(inv.NetTotal).Round(4)
	}
	l := pricing.SplitGross(amount.Round(2), rate)
	return entity.CreditNoteLine{
		ID:           uuid.New().String(),
		CreditNoteID: noteID,
		Description:  "Ajuste por valor",
		Quantity:     decimal.NewFromInt(1),
		UnitPrice:    l.Subtotal,
		TaxRate:      l.TaxRate,
		TaxAmount:    l.Tax,
		Subtotal:     l.Subtotal,
	}, nil
}

// GetCreditNote nota crédito con sus líneas.
func (uc *CreditNoteUseCase) GetCreditNote(ctx context.Context, companyID, id string) (*dto.CreditNoteResponse, error) {
	n, err := uc.creditNoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: nota crédito %s", domain.ErrNotFound, id)
	}
	if n.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	resp := toCreditNoteResponse(n)
	return &resp, nil
}

// ListCreditNotes notas de una factura.
func (uc *CreditNoteUseCase) ListCreditNotes(ctx context.Context, companyID, invoiceID string) ([]dto.CreditNoteResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedInvoice(inv, companyID, invoiceID); err != nil {
		return nil, err
	}
	list, err := uc.creditNoteRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CreditNoteResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toCreditNoteResponse(n))
	}
	return out, nil
}
