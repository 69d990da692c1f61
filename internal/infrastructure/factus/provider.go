package factus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/pricing"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// Tabla de tipos de documento de Factus indexada por el código DIAN (tabla 3).
var identificationDocumentIDs = map[string]int{
	"11": 1, "12": 2, dian.IdentificationTypeCC: 3, "21": 4, dian.IdentificationTypeCE: 5,
	dian.IdentificationTypeNIT: 6, dian.IdentificationTypePassport: 7, dian.IdentificationTypeForeignID: 8,
	"50": 9, "91": 10, "47": 11, "48": 12,
}

// Unidades de medida de Factus por código DIAN (tabla 6). Las no listadas se envían como unidad.
var unitMeasureIDs = map[string]int{
	dian.UnitUnit:     70,
	dian.UnitKilogram: 414,
	dian.UnitGram:     449,
	dian.UnitLitre:    821,
	dian.UnitMetre:    767,
	dian.UnitHour:     580,
	dian.UnitDay:      421,
	dian.UnitMonth:    677,
}

const (
	legalOrgCompany = "1"
	legalOrgPerson  = "2"
	tributeIVA      = "18"
	tributeNone     = "21"
	itemTributeIVA  = 1
	standardCodeOwn = 1
	creditNoteCust  = 20 // nota crédito que referencia factura electrónica
)

// Provider implementa billing.EInvoiceProvider sobre la API de Factus.
type Provider struct {
	client *Client
}

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

var _ billing.EInvoiceProvider = (*Provider)(nil)

func (p *Provider) Name() string { return billing.ProviderFactus }

// SubmitInvoice valida la factura en Factus. Un rechazo de contenido no es error:
// vuelve Accepted=false con los mensajes; los fallos de red o de servidor sí lo son.
func (p *Provider) SubmitInvoice(ctx context.Context, doc *billing.InvoiceDocument) (*billing.SubmissionResult, error) {
	inv := doc.Invoice
	body := billPayload{
		NumberingRangeID:  p.client.cfg.NumberingRangeID,
		ReferenceCode:     inv.FullNumber(),
		Observation:       truncate(inv.Notes, 250),
		PaymentForm:       nonEmpty(inv.PaymentForm, dian.PaymentFormContado),
		PaymentMethodCode: nonEmpty(inv.PaymentMethod, dian.PaymentMethodEfectivo),
		Customer:          customerOf(doc.Customer),
	}
	if body.PaymentForm == dian.PaymentFormCredito && !inv.DueDate.IsZero() {
		body.PaymentDueDate = inv.DueDate.Format("2006-01-02")
	}
	for _, l := range doc.Lines {
		d := l.Detail
		body.Items = append(body.Items, item(nonEmpty(l.ProductCode, l.ProductID), nonEmpty(l.Name, d.Description),
			l.UnitCode, d.Quantity, d.UnitPrice, d.Discount, d.TaxRate))
	}

	var out billResponse
	if err := p.client.post(ctx, billsPath, body, &out); err != nil {
		return rejection(err)
	}
	bill := out.Data.Bill
	return &billing.SubmissionResult{
		Accepted: true,
		CUFE:     bill.CUFE,
		QRData:   bill.QR,
		TrackID:  strconv.FormatInt(bill.ID, 10),
		Number:   bill.Number,
	}, nil
}

// SubmitCreditNote la factura debió validarse en Factus: su TrackID es el id de Factus.
func (p *Provider) SubmitCreditNote(ctx context.Context, doc *billing.CreditNoteDocument) (*billing.SubmissionResult, error) {
	billID, err := strconv.ParseInt(doc.Invoice.TrackID, 10, 64)
	if err != nil || billID <= 0 {
		return nil, fmt.Errorf("factus: la factura %s no tiene id de Factus", doc.Invoice.FullNumber())
	}
	note := doc.Note
	concept, _ := strconv.Atoi(note.ConceptCode)
	if concept == 0 {
		concept = 5
	}
	body := creditNotePayload{
		NumberingRangeID:      p.client.cfg.CreditRangeID,
		CorrectionConceptCode: concept,
		CustomizationID:       creditNoteCust,
		BillID:                billID,
		ReferenceCode:         note.FullNumber(),
		Observation:           truncate(note.Reason, 250),
		PaymentMethodCode:     nonEmpty(doc.Invoice.PaymentMethod, dian.PaymentMethodEfectivo),
		Customer:              customerOf(doc.Customer),
	}
	for _, l := range note.Lines {
		code := nonEmpty(doc.ProductCodes[l.ProductID], nonEmpty(l.ProductID, "AJUSTE"))
		body.Items = append(body.Items, item(code, nonEmpty(l.Description, "Ajuste"), doc.UnitCodes[l.ProductID],
			l.Quantity, l.UnitPrice, decimal.Zero, l.TaxRate))
	}

	var out creditNoteResponse
	if err := p.client.post(ctx, creditNotePath, body, &out); err != nil {
		return rejection(err)
	}
	cn := out.Data.CreditNote
	return &billing.SubmissionResult{
		Accepted: true,
		CUFE:     cn.CUDE,
		QRData:   cn.QR,
		TrackID:  strconv.FormatInt(cn.ID, 10),
		Number:   cn.Number,
	}, nil
}

// rejection separa el rechazo del documento (RECHAZADO) de las fallas técnicas (ERROR_GENERATION).
func rejection(err error) (*billing.SubmissionResult, error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Rejected() {
		msg := apiErr.Message
		if d := apiErr.Details(); d != "" {
			msg += ": " + d
		}
		return &billing.SubmissionResult{Accepted: false, Errors: msg}, nil
	}
	return nil, err
}

func customerOf(c *entity.Customer) customerPayload {
	out := customerPayload{
		Identification:           c.TaxID,
		Address:                  c.Address,
		Email:                    c.Email,
		Phone:                    c.Phone,
		LegalOrganizationID:      legalOrgPerson,
		TributeID:                tributeNone,
		IdentificationDocumentID: identificationDocumentIDs[dian.IdentificationTypeCC],
	}
	if id, ok := identificationDocumentIDs[c.IdentificationType]; ok {
		out.IdentificationDocumentID = id
	}
	if c.IdentificationType == dian.IdentificationTypeNIT {
		base := dian.NITBase(c.TaxID)
		out.Identification = base
		if dv, err := dian.ComputeNITVerificationDigit(base); err == nil {
			out.DV = string(dv)
		}
		out.Company = c.Name
		out.TradeName = c.Name
		out.LegalOrganizationID = legalOrgCompany
		out.TributeID = tributeIVA
	} else {
		out.Names = c.Name
	}
	return out
}

// item Factus recibe el precio con IVA incluido y el descuento como porcentaje.
// taxRate llega como fracción (0.19) o porcentaje (19).
func item(code, name, unitCode string, qty, unitPrice, discount, taxRate decimal.Decimal) itemPayload {
	hundred := decimal.NewFromInt(100)
	taxRate = pricing.NormalizeRate(taxRate)
	price := unitPrice.Mul(hundred.Add(taxRate)).Div(hundred).Round(2)
	rate := decimal.Zero
	if gross := qty.Mul(unitPrice); gross.IsPositive() && discount.IsPositive() {
		rate = discount.Div(gross).Mul(hundred).Round(2)
	}
	unit, ok := unitMeasureIDs[unitCode]
	if !ok {
		unit = unitMeasureIDs[dian.UnitUnit]
	}
	excluded := 0
	if taxRate.IsZero() {
		excluded = 1
	}
	return itemPayload{
		CodeReference:    code,
		Name:             name,
		Quantity:         qty.String(),
		DiscountRate:     rate.StringFixed(2),
		Price:            price.StringFixed(2),
		TaxRate:          taxRate.StringFixed(2),
		UnitMeasureID:    unit,
		StandardCodeID:   standardCodeOwn,
		IsExcluded:       excluded,
		TributeID:        itemTributeIVA,
		WithholdingTaxes: []withholdingTax{},
	}
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
