package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/ledger"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// PaymentUseCase registra y anula abonos. Cada operación bloquea la factura,
// recalcula el estado de cobro y sincroniza la cartera en una sola transacción.
type PaymentUseCase struct {
	txRunner    TxRunner
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	audit       ports.AuditRecorder
	now         func() time.Time
}

func NewPaymentUseCase(txRunner TxRunner, invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository, auditRec ports.AuditRecorder) *PaymentUseCase {
	return &PaymentUseCase{txRunner: txRunner, invoiceRepo: invoiceRepo, paymentRepo: paymentRepo, audit: auditRec, now: time.Now}
}

// RegisterPayment aplica un abono a una factura emitida.
func (uc *PaymentUseCase) RegisterPayment(ctx context.Context, companyID, userID, invoiceID string, in dto.RegisterPaymentRequest) (*dto.PaymentResponse, error) {
	if !dian.ValidPaymentMethodCodes[in.Method] {
		return nil, fmt.Errorf("%w: medio de pago %q", domain.ErrInvalidInput, in.Method)
	}
	now := uc.now()
	paidAt := now
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}
	var (
		inv *entity.Invoice
		p   *entity.Payment
	)
	err := uc.txRunner.RunBilling(ctx, func(r Repos) error {
		var err error
		inv, err = loadInvoiceForUpdate(ctx, r.Invoices, companyID, invoiceID)
		if err != nil {
			return err
		}
		switch inv.Status {
		case entity.InvoiceStatusDraft:
			return fmt.Errorf("%w: la factura %s aún no ha sido emitida", domain.ErrInvalidTransition, inv.FullNumber())
		case entity.InvoiceStatusCancelled:
			return fmt.Errorf("%w: la factura %s está anulada", domain.ErrInvalidTransition, inv.FullNumber())
		}
		if paidAt.Before(inv.Date.Truncate(24 * time.Hour)) {
			return fmt.Errorf("%w: el pago es anterior a la factura", domain.ErrInvalidInput)
		}
		b, err := ledger.ApplyPayment(ledger.BalanceOf(inv), in.Amount)
		if err != nil {
			return err
		}
		if err := ledger.Apply(inv, b); err != nil {
			return err
		}
		inv.UpdatedAt = now
		if err := r.Invoices.UpdateLedger(ctx, inv); err != nil {
			return err
		}
		p = &entity.Payment{
			ID:        uuid.New().String(),
			CompanyID: companyID,
			InvoiceID: inv.ID,
			Amount:    in.Amount,
			Method:    in.Method,
			Reference: strings.TrimSpace(in.Reference),
			PaidAt:    paidAt,
			Status:    entity.PaymentStatusApplied,
			CreatedBy: userID,
			CreatedAt: now,
		}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		_, err = syncReceivable(ctx, r.Receivables, inv, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "payment", p.ID,
		fmt.Sprintf("abono %s a %s", p.Amount.StringFixed(2), inv.FullNumber()), nil, toLedgerResponse(inv)))

	resp := toPaymentResponse(p)
	resp.Ledger = toLedgerResponse(inv)
	return &resp, nil
}

// VoidPayment anula un abono y devuelve su valor al saldo.
func (uc *PaymentUseCase) VoidPayment(ctx context.Context, companyID, userID, paymentID string, in dto.VoidPaymentRequest) (*dto.PaymentResponse, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: motivo requerido", domain.ErrInvalidInput)
	}
	now := uc.now()
	var (
		inv    *entity.Invoice
		p      *entity.Payment
		before *dto.LedgerResponse
	)
	err := uc.txRunner.RunBilling(ctx, func(r Repos) error {
		var err error
		p, err = r.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: pago %s", domain.ErrNotFound, paymentID)
		}
		if p.CompanyID != companyID {
			return domain.ErrForbidden
		}
		if p.Status != entity.PaymentStatusApplied {
			return fmt.Errorf("%w: el pago ya fue anulado", domain.ErrConflict)
		}
		inv, err = loadInvoiceForUpdate(ctx, r.Invoices, companyID, p.InvoiceID)
		if err != nil {
			return err
		}
		before = toLedgerResponse(inv)
		b, err := ledger.ReversePayment(ledger.BalanceOf(inv), p.Amount)
		if err != nil {
			return err
		}
		if err := ledger.Apply(inv, b); err != nil {
			return err
		}
		inv.UpdatedAt = now
		if err := r.Invoices.UpdateLedger(ctx, inv); err != nil {
			return err
		}
		if err := r.Payments.Void(ctx, p.ID, reason); err != nil {
			return err
		}
		p.Status = entity.PaymentStatusVoided
		p.VoidReason = reason
		_, err = syncReceivable(ctx, r.Receivables, inv, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditVoid, "payment", p.ID,
		fmt.Sprintf("anulación de abono %s en %s: %s", p.Amount.StringFixed(2), inv.FullNumber(), reason), before, toLedgerResponse(inv)))

	resp := toPaymentResponse(p)
	resp.Ledger = toLedgerResponse(inv)
	return &resp, nil
}

// ListPayments abonos de una factura, anulados incluidos.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, companyID, invoiceID string) ([]dto.PaymentResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedInvoice(inv, companyID, invoiceID); err != nil {
		return nil, err
	}
	list, err := uc.paymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPaymentResponse(p))
	}
	return out, nil
}
