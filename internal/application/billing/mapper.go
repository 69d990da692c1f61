package billing

import (
	"time"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/ledger"
)

const dateLayout = "2006-01-02"

func toInvoiceResponse(inv *entity.Invoice, customerName string, details []*entity.InvoiceDetail) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		CustomerID:    inv.CustomerID,
		CustomerName:  customerName,
		WarehouseID:   inv.WarehouseID,
		Prefix:        inv.Prefix,
		Number:        inv.Number,
		Date:          inv.Date.Format(dateLayout),
		DueDate:       inv.DueDate.Format(dateLayout),
		PaymentForm:   inv.PaymentForm,
		NetTotal:      inv.NetTotal,
		DiscountTotal: inv.DiscountTotal,
		TaxTotal:      inv.TaxTotal,
		GrandTotal:    inv.GrandTotal,
		PaidTotal:     inv.PaidTotal,
		CreditedTotal: inv.CreditedTotal,
		Balance:       inv.Balance(),
		Status:        inv.Status,
		DIAN_Status:   inv.DIAN_Status,
		CUFE:          inv.CUFE,
		QRData:        inv.QRData,
	}
	if len(details) > 0 {
		resp.Details = make([]dto.InvoiceDetailResponse, 0, len(details))
	}
	for _, d := range details {
		resp.Details = append(resp.Details, dto.InvoiceDetailResponse{
			ID:          d.ID,
			ProductID:   d.ProductID,
			Description: d.Description,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Discount:    d.Discount,
			TaxRate:     d.TaxRate,
			TaxAmount:   d.TaxAmount,
			Subtotal:    d.Subtotal,
		})
	}
	return resp
}

func toLedgerResponse(inv *entity.Invoice) *dto.LedgerResponse {
	return &dto.LedgerResponse{
		InvoiceID:     inv.ID,
		Status:        inv.Status,
		GrandTotal:    inv.GrandTotal,
		PaidTotal:     inv.PaidTotal,
		CreditedTotal: inv.CreditedTotal,
		Balance:       inv.Balance(),
	}
}

func toPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:         p.ID,
		InvoiceID:  p.InvoiceID,
		Amount:     p.Amount,
		Method:     p.Method,
		Reference:  p.Reference,
		PaidAt:     p.PaidAt,
		Status:     p.Status,
		VoidReason: p.VoidReason,
	}
}

func toCreditNoteResponse(n *entity.CreditNote) dto.CreditNoteResponse {
	out := dto.CreditNoteResponse{
		ID:          n.ID,
		InvoiceID:   n.InvoiceID,
		Prefix:      n.Prefix,
		Number:      n.Number,
		Date:        n.Date.Format(dateLayout),
		ConceptCode: n.ConceptCode,
		Reason:      n.Reason,
		Restock:     n.Restock,
		NetTotal:    n.NetTotal,
		TaxTotal:    n.TaxTotal,
		GrandTotal:  n.GrandTotal,
		DIANStatus:  n.DIAN_Status,
		CUDE:        n.CUDE,
		Lines:       make([]dto.CreditNoteLineResp, 0, len(n.Lines)),
	}
	for _, l := range n.Lines {
		out.Lines = append(out.Lines, dto.CreditNoteLineResp{
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			Subtotal:    l.Subtotal,
		})
	}
	return out
}

func toReceivableResponse(ar *entity.AccountReceivable, asOf time.Time) dto.ReceivableResponse {
	out := dto.ReceivableResponse{
		InvoiceID:     ar.InvoiceID,
		CustomerID:    ar.CustomerID,
		DocumentNo:    ar.DocumentNo,
		IssueDate:     ar.IssueDate.Format(dateLayout),
		DueDate:       ar.DueDate.Format(dateLayout),
		OriginalTotal: ar.OriginalTotal,
		PaidTotal:     ar.PaidTotal,
		CreditedTotal: ar.CreditedTotal,
		Balance:       ar.Balance,
		Status:        ar.Status,
	}
	if ar.Balance.IsPositive() {
		out.DaysOverdue = max(ledger.DaysOverdue(ar.DueDate, asOf), 0)
		out.Bucket = ledger.AgingBucket(ar.DueDate, asOf)
	}
	return out
}

func toCustomerResponse(c *entity.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:                 c.ID,
		CompanyID:          c.CompanyID,
		Name:               c.Name,
		IdentificationType: c.IdentificationType,
		TaxID:              c.TaxID,
		Email:              c.Email,
		Phone:              c.Phone,
		Address:            c.Address,
		CreditDays:         c.CreditDays,
	}
}
