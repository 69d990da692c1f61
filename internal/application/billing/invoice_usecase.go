package billing

import (
	"context"
	"fmt"
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

// InvoiceUseCase crea, emite, anula y consulta facturas de venta.
// Las salidas de inventario y el consecutivo se toman en la misma transacción que la factura.
type InvoiceUseCase struct {
	txRunner      TxRunner
	customerRepo  repository.CustomerRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	invoiceRepo   repository.InvoiceRepository
	locker        ports.Locker
	dispatcher    Dispatcher
	audit         ports.AuditRecorder
	now           func() time.Time
}

func NewInvoiceUseCase(
	txRunner TxRunner,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	invoiceRepo repository.InvoiceRepository,
	locker ports.Locker,
	dispatcher Dispatcher,
	auditRec ports.AuditRecorder,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:      txRunner,
		customerRepo:  customerRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		invoiceRepo:   invoiceRepo,
		locker:        locker,
		dispatcher:    dispatcher,
		audit:         auditRec,
		now:           time.Now,
	}
}

// pricedLine línea validada y liquidada, lista para persistir.
type pricedLine struct {
	product *entity.Product
	qty     decimal.Decimal
	price   decimal.Decimal
	line    pricing.Line
}

// CreateInvoice valida cliente, bodega y productos, toma el consecutivo de la resolución,
// descuenta inventario y guarda la factura en borrador. Con Issue la emite en el mismo paso.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, companyID, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la factura requiere al menos un ítem", domain.ErrInvalidInput)
	}
	customer, err := uc.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, in.CustomerID)
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	wh, err := uc.warehouseRepo.GetByID(ctx, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != companyID {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, in.WarehouseID)
	}

	now := uc.now()
	date := now
	if in.Date != nil {
		date = *in.Date
	}
	form := in.PaymentForm
	if form == "" {
		form = dian.PaymentFormContado
	}
	method := in.PaymentMethod
	if method == "" {
		method = dian.PaymentMethodEfectivo
	}
	if !dian.ValidPaymentMethodCodes[method] {
		return nil, fmt.Errorf("%w: medio de pago %q", domain.ErrInvalidInput, method)
	}
	if in.PaidOnIssue && (!in.Issue || form != dian.PaymentFormContado) {
		return nil, fmt.Errorf("%w: solo las facturas de contado emitidas pueden pagarse al emitir", domain.ErrInvalidInput)
	}
	due := date
	switch {
	case in.DueDate != nil:
		if in.DueDate.Before(date) {
			return nil, fmt.Errorf("%w: el vencimiento es anterior a la fecha", domain.ErrInvalidInput)
		}
		due = *in.DueDate
	case form == dian.PaymentFormCredito:
		due = date.AddDate(0, 0, customer.CreditDays)
	}

	lines, totals, err := uc.priceItems(ctx, companyID, in.Items)
	if err != nil {
		return nil, err
	}
	if !totals.Grand.IsPositive() {
		return nil, fmt.Errorf("%w: el total de la factura debe ser mayor a cero", domain.ErrInvalidInput)
	}

	unlock, err := lockNumbering(ctx, uc.locker, companyID, entity.ResolutionKindInvoice)
	if err != nil {
		return nil, err
	}
	defer unlock()

	invoiceID := uuid.New().String()
	var (
		inv     *entity.Invoice
		details []*entity.InvoiceDetail
	)
	err = uc.txRunner.RunBilling(ctx, func(r Repos) error {
		res, number, err := reserveNumber(ctx, r.Resolutions, companyID, entity.ResolutionKindInvoice, in.Prefix, date)
		if err != nil {
			return err
		}
		inv = &entity.Invoice{
			ID:            invoiceID,
			CompanyID:     companyID,
			CustomerID:    customer.ID,
			WarehouseID:   wh.ID,
			Prefix:        res.Prefix,
			Number:        number,
			Date:          date,
			DueDate:       due,
			PaymentForm:   form,
			PaymentMethod: method,
			Notes:         in.Notes,
			NetTotal:      totals.Net,
			DiscountTotal: totals.Discount,
			TaxTotal:      totals.Tax,
			GrandTotal:    totals.Grand,
			Status:        entity.InvoiceStatusDraft,
			DIAN_Status:   entity.DIANStatusDraft,
			CreatedBy:     userID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.Invoices.Create(ctx, inv); err != nil {
			return err
		}

		ref := "FV:" + inv.FullNumber()
		for _, l := range lines {
			movs, err := inventory.Apply(ctx, r.Repos, inventory.Move{
				Type:          entity.MovementTypeOUT,
				ProductID:     l.product.ID,
				WarehouseID:   wh.ID,
				Quantity:      l.qty,
				TransactionID: invoiceID,
				Reference:     ref,
				UserID:        userID,
				At:            now,
			})
			if err != nil {
				return err
			}
			d := &entity.InvoiceDetail{
				ID:          uuid.New().String(),
				InvoiceID:   invoiceID,
				ProductID:   l.product.ID,
				Description: l.product.Name,
				Quantity:    l.qty,
				UnitPrice:   l.price,
				Discount:    l.line.Discount,
				TaxRate:     l.line.TaxRate,
				TaxAmount:   l.line.Tax,
				Subtotal:    l.line.Subtotal,
				UnitCost:    movs[0].UnitCost,
			}
			if err := r.Invoices.CreateDetail(ctx, d); err != nil {
				return err
			}
			details = append(details, d)
		}

		if in.Issue {
			return uc.issueInTx(ctx, r, inv, userID, in.PaidOnIssue, method, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "invoice", inv.ID,
		fmt.Sprintf("factura %s por %s", inv.FullNumber(), inv.GrandTotal.StringFixed(2)), nil, toLedgerResponse(inv)))
	if in.Issue {
		uc.afterIssue(ctx, companyID, userID, inv)
	}
	return toInvoiceResponse(inv, customer.Name, details), nil
}

// priceItems carga y valida cada producto y liquida sus líneas.
func (uc *InvoiceUseCase) priceItems(ctx context.Context, companyID string, items []dto.InvoiceItemRequest) ([]pricedLine, pricing.Totals, error) {
	var totals pricing.Totals
	cache := map[string]*entity.Product{}
	lines := make([]pricedLine, 0, len(items))
	for i, item := range items {
		p, ok := cache[item.ProductID]
		if !ok {
			var err error
			p, err = uc.productRepo.GetByID(ctx, item.ProductID)
			if err != nil {
				return nil, totals, err
			}
			if p == nil {
				return nil, totals, fmt.Errorf("%w: producto %s", domain.ErrNotFound, item.ProductID)
			}
			if p.CompanyID != companyID {
				return nil, totals, domain.ErrForbidden
			}
			if !p.Active {
				return nil, totals, fmt.Errorf("%w: el producto %s está inactivo", domain.ErrInvalidInput, p.SKU)
			}
			cache[item.ProductID] = p
		}
		price := p.Price
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		line, err := pricing.Compute(item.Quantity, price, item.Discount, p.TaxRate)
		if err != nil {
			return nil, totals, fmt.Errorf("ítem %d: %w", i+1, err)
		}
		totals = totals.Add(line)
		lines = append(lines, pricedLine{product: p, qty: item.Quantity, price: price, line: line})
	}
	return lines, totals, nil
}

// IssueInvoice pasa un borrador a emitida, crea su cartera y encola el envío electrónico.
func (uc *InvoiceUseCase) IssueInvoice(ctx context.Context, companyID, userID, id string, in dto.IssueInvoiceRequest) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	now := uc.now()
	err := uc.txRunner.RunBilling(ctx, func(r Repos) error {
		var err error
		inv, err = loadInvoiceForUpdate(ctx, r.Invoices, companyID, id)
		if err != nil {
			return err
		}
		if in.PaidOnIssue && inv.PaymentForm != dian.PaymentFormContado {
			return fmt.Errorf("%w: solo las facturas de contado pueden pagarse al emitir", domain.ErrInvalidInput)
		}
		method := in.PaymentMethod
		if method == "" {
			method = inv.PaymentMethod
		}
		return uc.issueInTx(ctx, r, inv, userID, in.PaidOnIssue, method, now)
	})
	if err != nil {
		return nil, err
	}
	uc.afterIssue(ctx, companyID, userID, inv)
	return uc.GetInvoice(ctx, companyID, id)
}

// issueInTx emite, registra el pago de contado si se pide y sincroniza la cartera.
func (uc *InvoiceUseCase) issueInTx(ctx context.Context, r Repos, inv *entity.Invoice, userID string, paid bool, method string, now time.Time) error {
	if err := ledger.Issue(inv); err != nil {
		return err
	}
	if paid {
		if !dian.ValidPaymentMethodCodes[method] {
			return fmt.Errorf("%w: medio de pago %q", domain.ErrInvalidInput, method)
		}
		b, err := ledger.ApplyPayment(ledger.BalanceOf(inv), inv.GrandTotal)
		if err != nil {
			return err
		}
		if err := ledger.Apply(inv, b); err != nil {
			return err
		}
		if err := r.Payments.Create(ctx, &entity.Payment{
			ID:        uuid.New().String(),
			CompanyID: inv.CompanyID,
			InvoiceID: inv.ID,
			Amount:    inv.GrandTotal,
			Method:    method,
			Reference: "contado " + inv.FullNumber(),
			PaidAt:    now,
			Status:    entity.PaymentStatusApplied,
			CreatedBy: userID,
			CreatedAt: now,
		}); err != nil {
			return err
		}
	}
	inv.UpdatedAt = now
	if err := r.Invoices.UpdateLedger(ctx, inv); err != nil {
		return err
	}
	_, err := syncReceivable(ctx, r.Receivables, inv, now)
	return err
}

func (uc *InvoiceUseCase) afterIssue(ctx context.Context, companyID, userID string, inv *entity.Invoice) {
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditIssue, "invoice", inv.ID,
		"emisión "+inv.FullNumber(), nil, toLedgerResponse(inv)))
	if uc.dispatcher != nil {
		uc.dispatcher.ProcessAsync(DocInvoice, inv.ID)
	}
}

// CancelDraft anula un borrador y devuelve la mercancía a la bodega al costo de venta.
func (uc *InvoiceUseCase) CancelDraft(ctx context.Context, companyID, userID, id string) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	now := uc.now()
	err := uc.txRunner.RunBilling(ctx, func(r Repos) error {
		var err error
		inv, err = loadInvoiceForUpdate(ctx, r.Invoices, companyID, id)
		if err != nil {
			return err
		}
		next, err := ledger.Transition(ledger.Status(inv.Status), ledger.StatusCancelled)
		if err != nil {
			return err
		}
		if ledger.Status(inv.Status) != ledger.StatusDraft {
			return fmt.Errorf("%w: una factura emitida se anula con nota crédito", domain.ErrInvalidTransition)
		}
		details, err := r.Invoices.GetDetailsByInvoiceID(ctx, inv.ID)
		if err != nil {
			return err
		}
		for _, d := range details {
			cost := d.UnitCost
			if _, err := inventory.Apply(ctx, r.Repos, inventory.Move{
				Type:          entity.MovementTypeIN,
				ProductID:     d.ProductID,
				WarehouseID:   inv.WarehouseID,
				Quantity:      d.Quantity,
				UnitCost:      &cost,
				TransactionID: inv.ID,
				Reference:     "ANULA:" + inv.FullNumber(),
				UserID:        userID,
				At:            now,
			}); err != nil {
				return err
			}
		}
		inv.Status = string(next)
		inv.UpdatedAt = now
		return r.Invoices.UpdateLedger(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCancel, "invoice", inv.ID,
		"anulación del borrador "+inv.FullNumber(), nil, toLedgerResponse(inv)))
	return uc.GetInvoice(ctx, companyID, id)
}

// GetInvoice obtiene una factura por ID con su detalle completo.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv, err = ownedInvoice(inv, companyID, id); err != nil {
		return nil, err
	}
	details, err := uc.invoiceRepo.GetDetailsByInvoiceID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, uc.customerName(ctx, inv.CustomerID), details), nil
}

// ListInvoices lista facturas sin detalle.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, companyID string, in dto.InvoiceFilterRequest) (*dto.InvoiceListResponse, error) {
	f := repository.InvoiceFilter{
		Status:     in.Status,
		DIANStatus: in.DIANStatus,
		CustomerID: in.CustomerID,
		From:       in.From,
		To:         in.To,
		Limit:      dto.NormalizeLimit(in.Limit),
		Offset:     max(in.Offset, 0),
	}
	list, total, err := uc.invoiceRepo.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for _, inv := range list {
		name, ok := names[inv.CustomerID]
		if !ok {
			name = uc.customerName(ctx, inv.CustomerID)
			names[inv.CustomerID] = name
		}
		out.Items = append(out.Items, *toInvoiceResponse(inv, name, nil))
	}
	return out, nil
}

// GetDIANStatus devuelve solo el estado electrónico (consulta frecuente desde el front).
func (uc *InvoiceUseCase) GetDIANStatus(ctx context.Context, companyID, id string) (*dto.InvoiceDIANStatusDTO, error) {
	inv, err := uc.invoiceRepo.GetDIANStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv, err = ownedInvoice(inv, companyID, id); err != nil {
		return nil, err
	}
	return &dto.InvoiceDIANStatusDTO{
		ID:         inv.ID,
		DIANStatus: inv.DIAN_Status,
		CUFE:       inv.CUFE,
		TrackID:    inv.TrackID,
		Errors:     inv.DIANErrors,
	}, nil
}

// RetrySubmission reencola el envío de una factura emitida que no fue aceptada.
func (uc *InvoiceUseCase) RetrySubmission(ctx context.Context, companyID, userID, id string) (*dto.InvoiceDIANStatusDTO, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv, err = ownedInvoice(inv, companyID, id); err != nil {
		return nil, err
	}
	if inv.Status == entity.InvoiceStatusDraft || (inv.Status == entity.InvoiceStatusCancelled && inv.DIAN_Status == entity.DIANStatusDraft) {
		return nil, fmt.Errorf("%w: la factura no ha sido emitida", domain.ErrInvalidTransition)
	}
	if !Resubmittable(inv.DIAN_Status) {
		return nil, fmt.Errorf("%w: estado DIAN %s", domain.ErrConflict, inv.DIAN_Status)
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditUpdate, "invoice", inv.ID,
		"reintento de envío electrónico "+inv.FullNumber(), nil, nil))
	if uc.dispatcher != nil {
		uc.dispatcher.ProcessAsync(DocInvoice, inv.ID)
	}
	return uc.GetDIANStatus(ctx, companyID, id)
}

// DownloadXML devuelve el XML firmado y su nombre de archivo.
func (uc *InvoiceUseCase) DownloadXML(ctx context.Context, companyID, id string) ([]byte, string, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if inv, err = ownedInvoice(inv, companyID, id); err != nil {
		return nil, "", err
	}
	if inv.XMLSigned == "" {
		return nil, "", fmt.Errorf("%w: la factura %s no tiene XML firmado", domain.ErrNotFound, inv.FullNumber())
	}
	return []byte(inv.XMLSigned), fmt.Sprintf("factura_%s.xml", inv.FullNumber()), nil
}

func (uc *InvoiceUseCase) customerName(ctx context.Context, id string) string {
	c, err := uc.customerRepo.GetByID(ctx, id)
	if err != nil || c == nil {
		return ""
	}
	return c.Name
}
