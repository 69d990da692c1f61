package dian

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	domaindian "github.com/jhoicas/invorya-erp/internal/domain/dian"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/pricing"
	"github.com/jhoicas/invorya-erp/internal/infrastructure/dian/signer"
	"github.com/jhoicas/invorya-erp/pkg/config"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

const (
	qrURLProd = "https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey="
	qrURLTest = "https://catalogo-vpfe-hab.dian.gov.co/document/searchqr?documentkey="

	// MockTrackID en modo dev no hay envío real.
	MockTrackID = "MOCK-TRACK-123"
)

// colombia hora legal de los documentos (UTC-5, sin horario de verano).
var colombia = time.FixedZone("COT", -5*60*60)

// DirectProvider emite ante la DIAN sin intermediario: CUFE/CUDE, XML UBL, firma, ZIP y SOAP.
type DirectProvider struct {
	cfg       config.DIANConfig
	cufe      *domaindian.CufeCalculatorService
	builder   *XMLBuilderService
	signer    dian.Signer
	cert      tls.Certificate
	hasCert   bool
	submitter DIANSubmitter
	log       zerolog.Logger
}

var _ billing.EInvoiceProvider = (*DirectProvider)(nil)

// NewDirectProvider carga el certificado si está configurado; sin él los documentos van sin firma.
func NewDirectProvider(cfg config.DIANConfig, submitter DIANSubmitter, log zerolog.Logger) (*DirectProvider, error) {
	cert, ok, err := signer.LoadCertificate(cfg.CertPath, cfg.CertKeyPath, cfg.CertPassword)
	if err != nil {
		return nil, fmt.Errorf("dian: certificado: %w", err)
	}
	p := &DirectProvider{
		cfg:       cfg,
		cufe:      domaindian.NewCufeCalculatorService(),
		builder:   NewXMLBuilderService(),
		signer:    signer.NewDigitalSignatureService(),
		cert:      cert,
		hasCert:   ok,
		submitter: submitter,
		log:       log.With().Str("component", "dian_direct").Logger(),
	}
	if !ok {
		p.log.Warn().Msg("sin certificado DIAN: los documentos se generan sin firma")
	}
	return p, nil
}

func (p *DirectProvider) Name() string { return billing.ProviderDIAN }

// SubmitInvoice calcula el CUFE con la clave técnica de la resolución o la global.
func (p *DirectProvider) SubmitInvoice(ctx context.Context, doc *billing.InvoiceDocument) (*billing.SubmissionResult, error) {
	inv := doc.Invoice
	issued := inv.Date.In(colombia)
	techKey := p.cfg.TechnicalKey
	if doc.Resolution != nil && doc.Resolution.TechnicalKey != "" {
		techKey = doc.Resolution.TechnicalKey
	}
	cufe, err := p.cufe.Calculate(&domaindian.CufeParams{
		NumFac:    inv.FullNumber(),
		FecFac:    issued.Format("2006-01-02"),
		ValFac:    inv.NetTotal,
		ValImp_01: inv.TaxTotal,
		ValImp_04: decimal.Zero,
		ValImp_03: decimal.Zero,
		ValPag:    inv.GrandTotal,
		NitOfe:    dian.NITBase(doc.Company.NIT),
		DocAdq:    customerDoc(doc.Customer),
		ClTec:     techKey,
		TipoAmb:   p.environment(),
	})
	if err != nil {
		return nil, err
	}

	ctxXML := &BuildContext{
		Kind:              KindInvoice,
		ID:                inv.FullNumber(),
		UUID:              cufe,
		IssueDate:         issued,
		Notes:             inv.Notes,
		Company:           doc.Company,
		Customer:          doc.Customer,
		Totals:            Totals{Net: inv.NetTotal, Discount: inv.DiscountTotal, Tax: inv.TaxTotal, Grand: inv.GrandTotal},
		Resolution:        resolutionData(doc.Resolution),
		PaymentFormCode:   inv.PaymentForm,
		PaymentMethodCode: inv.PaymentMethod,
		Environment:       p.environment(),
	}
	if !inv.DueDate.IsZero() {
		due := inv.DueDate.In(colombia)
		ctxXML.DueDate = &due
	}
	for _, l := range doc.Lines {
		d := l.Detail
		ctxXML.Lines = append(ctxXML.Lines, LineForXML{
			ProductName: l.Name, ProductCode: l.ProductCode, UnitCode: l.UnitCode,
			Quantity: d.Quantity, UnitPrice: d.UnitPrice, Discount: d.Discount,
			TaxRate: d.TaxRate, TaxAmount: d.TaxAmount, Subtotal: d.Subtotal,
		})
	}

	res, err := p.deliver(ctx, ctxXML, doc.Company.NIT, inv.Prefix, inv.Number)
	if err != nil {
		return nil, err
	}
	res.CUFE = cufe
	res.QRData = domaindian.QRData(inv.FullNumber(), issued.Format("2006-01-02"), inv.NetTotal, inv.TaxTotal, cufe, p.qrURL()+cufe)
	return res, nil
}

// SubmitCreditNote el CUDE usa el PIN del software e incluye la hora de emisión.
func (p *DirectProvider) SubmitCreditNote(ctx context.Context, doc *billing.CreditNoteDocument) (*billing.SubmissionResult, error) {
	note, inv := doc.Note, doc.Invoice
	issued := note.Date.In(colombia)
	cude, err := p.cufe.CalculateCUDE(&domaindian.CufeParams{
		NumFac:    note.FullNumber(),
		FecFac:    issued.Format("2006-01-02"),
		HorFac:    issued.Format("15:04:05-07:00"),
		ValFac:    note.NetTotal,
		ValImp_01: note.TaxTotal,
		ValImp_04: decimal.Zero,
		ValImp_03: decimal.Zero,
		ValPag:    note.GrandTotal,
		NitOfe:    dian.NITBase(doc.Company.NIT),
		DocAdq:    customerDoc(doc.Customer),
		ClTec:     p.cfg.SoftwarePIN,
		TipoAmb:   p.environment(),
	})
	if err != nil {
		return nil, err
	}
	concept := note.ConceptCode
	if concept == "" {
		concept = dian.CreditConceptOther
	}
	text := note.Reason
	if text == "" {
		text = dian.CreditConceptDescriptions[concept]
	}

	ctxXML := &BuildContext{
		Kind:            KindCreditNote,
		ID:              note.FullNumber(),
		UUID:            cude,
		IssueDate:       issued,
		Notes:           note.Reason,
		Company:         doc.Company,
		Customer:        doc.Customer,
		Totals:          Totals{Net: note.NetTotal, Tax: note.TaxTotal, Grand: note.GrandTotal},
		Resolution:      resolutionData(doc.Resolution),
		PaymentFormCode: inv.PaymentForm,
		Reference:       &BillingReference{Number: inv.FullNumber(), CUFE: inv.CUFE, IssueDate: inv.Date.In(colombia)},
		DiscrepancyCode: concept,
		DiscrepancyText: text,
		Environment:     p.environment(),
	}
	for _, l := range note.Lines {
		ctxXML.Lines = append(ctxXML.Lines, creditLine(l, doc.UnitCodes, doc.ProductCodes))
	}

	res, err := p.deliver(ctx, ctxXML, doc.Company.NIT, note.Prefix, note.Number)
	if err != nil {
		return nil, err
	}
	res.CUFE = cude
	return res, nil
}

// deliver genera, firma, comprime y envía. En dev no sale de la máquina.
func (p *DirectProvider) deliver(ctx context.Context, bc *BuildContext, nit, prefix, number string) (*billing.SubmissionResult, error) {
	xmlBytes, err := p.builder.Build(bc)
	if err != nil {
		return nil, fmt.Errorf("generar XML: %w", err)
	}
	if p.hasCert {
		xmlBytes, err = p.signer.Sign(xmlBytes, p.cert)
		if err != nil {
			return nil, fmt.Errorf("firmar XML: %w", err)
		}
	}
	res := &billing.SubmissionResult{XMLSigned: string(xmlBytes), Number: bc.ID}

	if p.cfg.AppEnv == AppEnvDev || p.submitter == nil {
		p.log.Info().Str("document", bc.ID).Str("kind", bc.Kind).Msg("modo dev: envío a la DIAN simulado")
		res.Accepted = true
		res.TrackID = MockTrackID
		return res, nil
	}

	xmlName, zipName := DIANFilenames(nit, prefix, number)
	zipBytes, err := CompressXMLToZip(xmlBytes, xmlName)
	if err != nil {
		return nil, err
	}
	sub, err := p.submitter.SubmitZip(ctx, zipBytes, zipName, p.soapEnv())
	if err != nil {
		return nil, err
	}
	res.Accepted = sub.Accepted
	res.TrackID = sub.TrackID
	res.Errors = sub.Errors
	return res, nil
}

func (p *DirectProvider) environment() string {
	if p.cfg.Environment == "1" {
		return "1"
	}
	return "2"
}

func (p *DirectProvider) soapEnv() string {
	if p.environment() == "1" {
		return AppEnvProd
	}
	return AppEnvTest
}

func (p *DirectProvider) qrURL() string {
	if p.environment() == "1" {
		return qrURLProd
	}
	return qrURLTest
}

// customerDoc documento del adquiriente; el NIT va sin DV.
func customerDoc(c *entity.Customer) string {
	if c.IdentificationType == dian.IdentificationTypeNIT {
		return dian.NITBase(c.TaxID)
	}
	return normalizeNIT(c.TaxID)
}

func creditLine(l entity.CreditNoteLine, units, codes map[string]string) LineForXML {
	unit := units[l.ProductID]
	if unit == "" {
		unit = dian.UnitUnit
	}
	name := l.Description
	if name == "" {
		name = "Ajuste"
	}
	return LineForXML{
		ProductName: name,
		ProductCode: codes[l.ProductID],
		UnitCode:    unit,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		TaxRate:     pricing.NormalizeRate(l.TaxRate),
		TaxAmount:   l.TaxAmount,
		Subtotal:    l.Subtotal,
	}
}
