package dian

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain/pricing"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// Namespaces oficiales UBL 2.1 y DIAN (Anexo Técnico 1.9).
const (
	NsInvoice    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
	NsCac        = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc        = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NsExt        = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	NsSts        = "dian:gov:co:facturaelectronica:v1"
	NsDs         = "http://www.w3.org/2000/09/xmldsig#"
	NsXades      = "http://uri.etsi.org/01903/v1.3.2#"
	nsXsi        = "http://www.w3.org/2001/XMLSchema-instance"

	schemaLocationInvoice    = NsInvoice + " http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-Invoice-2.1.xsd"
	schemaLocationCreditNote = NsCreditNote + " http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-CreditNote-2.1.xsd"

	// Id del elemento raíz; la Reference de la firma apunta aquí.
	RootElementID = "invoice-id"

	KindInvoice    = "invoice"
	KindCreditNote = "credit_note"
)

// layout diferencias de estructura entre Invoice y CreditNote.
type layout struct {
	root, ns, schema  string
	customization     string
	profile           string
	typeCodeElem      string
	typeCode          string
	lineElem, qtyElem string
}

var layouts = map[string]layout{
	KindInvoice: {
		root: "Invoice", ns: NsInvoice, schema: schemaLocationInvoice,
		customization: "10", profile: "DIAN 2.1: Factura Electrónica de Venta",
		typeCodeElem: "InvoiceTypeCode", typeCode: "01",
		lineElem: "InvoiceLine", qtyElem: "InvoicedQuantity",
	},
	KindCreditNote: {
		root: "CreditNote", ns: NsCreditNote, schema: schemaLocationCreditNote,
		customization: "20", profile: "DIAN 2.1: Nota Crédito de Factura Electrónica de Venta",
		typeCodeElem: "CreditNoteTypeCode", typeCode: "91",
		lineElem: "CreditNoteLine", qtyElem: "CreditedQuantity",
	},
}

// XMLBuilderService construye el XML UBL 2.1 (sin firma XAdES).
type XMLBuilderService struct{}

func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el documento Invoice o CreditNote según UBL 2.1 y extensiones DIAN.
func (s *XMLBuilderService) Build(ctx *BuildContext) ([]byte, error) {
	if ctx == nil || ctx.Company == nil || ctx.Customer == nil {
		return nil, fmt.Errorf("dian: faltan empresa o cliente en el contexto")
	}
	lay, ok := layouts[ctx.Kind]
	if !ok {
		return nil, fmt.Errorf("dian: tipo de documento %q desconocido", ctx.Kind)
	}
	if ctx.Kind == KindCreditNote && ctx.Reference == nil {
		return nil, fmt.Errorf("dian: la nota crédito requiere la factura de referencia")
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: lay.root},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "Id"}, Value: RootElementID},
			{Name: xml.Name{Local: "xmlns"}, Value: lay.ns},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: NsDs},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
			{Name: xml.Name{Local: "xmlns:sts"}, Value: NsSts},
			{Name: xml.Name{Local: "xmlns:xades"}, Value: NsXades},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXsi},
			{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: lay.schema},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ext:UBLExtensions siempre como primer hijo: el firmador inyecta en el segundo ExtensionContent
	s.writeUBLExtensions(enc, ctx)

	writeCbc(enc, "UBLVersionID", "UBL 2.1")
	writeCbc(enc, "CustomizationID", lay.customization)
	writeCbc(enc, "ProfileID", lay.profile)
	writeCbc(enc, "ProfileExecutionID", nonEmpty(ctx.Environment, "2"))
	writeCbc(enc, "ID", ctx.ID)
	if ctx.UUID != "" {
		scheme := "CUFE-SHA384"
		if ctx.Kind == KindCreditNote {
			scheme = "CUDE-SHA384"
		}
		writeCbcWithAttr(enc, "UUID", ctx.UUID, "schemeName", scheme)
	}
	writeCbc(enc, "IssueDate", ctx.IssueDate.Format("2006-01-02"))
	writeCbc(enc, "IssueTime", ctx.IssueDate.Format("15:04:05-07:00"))
	if ctx.Kind == KindInvoice && ctx.DueDate != nil {
		writeCbc(enc, "DueDate", ctx.DueDate.Format("2006-01-02"))
	}
	writeCbc(enc, lay.typeCodeElem, lay.typeCode)
	if ctx.Notes != "" {
		writeCbc(enc, "Note", ctx.Notes)
	}
	writeCbc(enc, "DocumentCurrencyCode", "COP")
	writeCbc(enc, "LineCountNumeric", strconv.Itoa(len(ctx.Lines)))

	if ctx.Kind == KindCreditNote {
		s.writeDiscrepancy(enc, ctx)
		s.writeBillingReference(enc, ctx.Reference)
	}
	s.writeParty(enc, "AccountingSupplierParty", ctx.Company.Name, ctx.Company.NIT, dian.IdentificationTypeNIT, ctx.Company.Address)
	s.writeParty(enc, "AccountingCustomerParty", ctx.Customer.Name, ctx.Customer.TaxID, ctx.Customer.IdentificationType, ctx.Customer.Address)
	s.writePaymentMeans(enc, ctx)
	s.writeTaxTotals(enc, ctx.Lines)
	s.writeLegalMonetaryTotal(enc, ctx.Totals)
	for i, line := range ctx.Lines {
		s.writeLine(enc, lay, i+1, line)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func start(enc *xml.Encoder, prefix, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: prefix + ":" + local}})
}

func end(enc *xml.Encoder, prefix, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: prefix + ":" + local}})
}

func writeElem(enc *xml.Encoder, prefix, local, value string, attr ...xml.Attr) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: prefix + ":" + local}, Attr: attr})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: prefix + ":" + local}})
}

func writeCbc(enc *xml.Encoder, local, value string) {
	writeElem(enc, "cbc", local, value)
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	writeElem(enc, "cbc", local, value, xml.Attr{Name: xml.Name{Local: attrLocal}, Value: attrValue})
}

func writeCbcAmount(enc *xml.Encoder, local string, value decimal.Decimal) {
	writeCbcWithAttr(enc, local, formatDecimal(value), "currencyID", "COP")
}

func writeSts(enc *xml.Encoder, local, value string) {
	writeElem(enc, "sts", local, value)
}

// writeUBLExtensions extensión 1: DIAN (resolución). Extensión 2: placeholder de ds:Signature.
func (s *XMLBuilderService) writeUBLExtensions(enc *xml.Encoder, ctx *BuildContext) {
	start(enc, "ext", "UBLExtensions")

	start(enc, "ext", "UBLExtension")
	start(enc, "ext", "ExtensionContent")
	start(enc, "sts", "DianExtensions")
	if ctx.Resolution != nil && ctx.Kind == KindInvoice {
		start(enc, "sts", "InvoiceControl")
		writeSts(enc, "InvoiceAuthorization", ctx.Resolution.Number)
		start(enc, "sts", "AuthorizationPeriod")
		writeElem(enc, "cbc", "StartDate", ctx.Resolution.DateFrom.Format("2006-01-02"))
		writeElem(enc, "cbc", "EndDate", ctx.Resolution.DateTo.Format("2006-01-02"))
		end(enc, "sts", "AuthorizationPeriod")
		start(enc, "sts", "AuthorizedInvoices")
		writeSts(enc, "Prefix", ctx.Resolution.Prefix)
		writeSts(enc, "From", strconv.FormatInt(ctx.Resolution.From, 10))
		writeSts(enc, "To", strconv.FormatInt(ctx.Resolution.To, 10))
		end(enc, "sts", "AuthorizedInvoices")
		end(enc, "sts", "InvoiceControl")
	}
	start(enc, "sts", "InvoiceSource")
	writeElem(enc, "cbc", "IdentificationCode", "CO",
		xml.Attr{Name: xml.Name{Local: "listAgencyID"}, Value: "6"},
		xml.Attr{Name: xml.Name{Local: "listSchemeURI"}, Value: "urn:oasis:names:specification:ubl:codelist:gc:CountryIdentificationCode-2.1"})
	end(enc, "sts", "InvoiceSource")
	end(enc, "sts", "DianExtensions")
	end(enc, "ext", "ExtensionContent")
	end(enc, "ext", "UBLExtension")

	start(enc, "ext", "UBLExtension")
	start(enc, "ext", "ExtensionContent")
	end(enc, "ext", "ExtensionContent")
	end(enc, "ext", "UBLExtension")

	end(enc, "ext", "UBLExtensions")
}

func (s *XMLBuilderService) writeDiscrepancy(enc *xml.Encoder, ctx *BuildContext) {
	start(enc, "cac", "DiscrepancyResponse")
	writeCbc(enc, "ReferenceID", ctx.Reference.Number)
	writeCbc(enc, "ResponseCode", nonEmpty(ctx.DiscrepancyCode, "5"))
	writeCbc(enc, "Description", nonEmpty(ctx.DiscrepancyText, "Ajuste"))
	end(enc, "cac", "DiscrepancyResponse")
}

func (s *XMLBuilderService) writeBillingReference(enc *xml.Encoder, ref *BillingReference) {
	start(enc, "cac", "BillingReference")
	start(enc, "cac", "InvoiceDocumentReference")
	writeCbc(enc, "ID", ref.Number)
	writeCbcWithAttr(enc, "UUID", ref.CUFE, "schemeName", "CUFE-SHA384")
	writeCbc(enc, "IssueDate", ref.IssueDate.Format("2006-01-02"))
	end(enc, "cac", "InvoiceDocumentReference")
	end(enc, "cac", "BillingReference")
}

func (s *XMLBuilderService) writeParty(enc *xml.Encoder, elem, name, taxID, idType, address string) {
	start(enc, "cac", elem)
	start(enc, "cac", "Party")

	start(enc, "cac", "PartyIdentification")
	id := normalizeNIT(taxID)
	attrs := []xml.Attr{{Name: xml.Name{Local: "schemeID"}, Value: schemeIDFromCode(idType)}}
	if schemeIDFromCode(idType) == dian.IdentificationTypeNIT {
		id = dian.NITBase(taxID)
		if dv, err := dian.ComputeNITVerificationDigit(id); err == nil {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "schemeName"}, Value: string(dv)})
		}
	}
	writeElem(enc, "cbc", "ID", id, attrs...)
	end(enc, "cac", "PartyIdentification")

	start(enc, "cac", "PartyName")
	writeCbc(enc, "Name", name)
	end(enc, "cac", "PartyName")

	if address != "" {
		start(enc, "cac", "PostalAddress")
		writeCbc(enc, "StreetName", address)
		end(enc, "cac", "PostalAddress")
	}

	end(enc, "cac", "Party")
	end(enc, "cac", elem)
}

func (s *XMLBuilderService) writePaymentMeans(enc *xml.Encoder, ctx *BuildContext) {
	form := nonEmpty(ctx.PaymentFormCode, dian.PaymentFormContado)
	method := nonEmpty(ctx.PaymentMethodCode, dian.PaymentMethodEfectivo)
	start(enc, "cac", "PaymentMeans")
	writeCbc(enc, "ID", form)
	writeCbc(enc, "PaymentMeansCode", method)
	if ctx.DueDate != nil && form == dian.PaymentFormCredito {
		writeCbc(enc, "PaymentDueDate", ctx.DueDate.Format("2006-01-02"))
	}
	end(enc, "cac", "PaymentMeans")
}

// writeTaxTotals un TaxSubtotal por tarifa de IVA presente en las líneas.
func (s *XMLBuilderService) writeTaxTotals(enc *xml.Encoder, lines []LineForXML) {
	type group struct{ base, tax decimal.Decimal }
	groups := map[string]*group{}
	total := decimal.Zero
	for _, l := range lines {
		pct := pricing.NormalizeRate(l.TaxRate).StringFixed(2)
		g, ok := groups[pct]
		if !ok {
			g = &group{base: decimal.Zero, tax: decimal.Zero}
			groups[pct] = g
		}
		g.base = g.base.Add(l.Subtotal)
		g.tax = g.tax.Add(l.TaxAmount)
		total = total.Add(l.TaxAmount)
	}
	rates := make([]string, 0, len(groups))
	for r := range groups {
		rates = append(rates, r)
	}
	sort.Strings(rates)

	start(enc, "cac", "TaxTotal")
	writeCbcAmount(enc, "TaxAmount", total)
	for _, r := range rates {
		g := groups[r]
		start(enc, "cac", "TaxSubtotal")
		writeCbcAmount(enc, "TaxableAmount", g.base)
		writeCbcAmount(enc, "TaxAmount", g.tax)
		start(enc, "cac", "TaxCategory")
		writeCbc(enc, "Percent", r)
		start(enc, "cac", "TaxScheme")
		writeCbc(enc, "ID", dian.TaxCodeIVA)
		writeCbc(enc, "Name", "IVA")
		end(enc, "cac", "TaxScheme")
		end(enc, "cac", "TaxCategory")
		end(enc, "cac", "TaxSubtotal")
	}
	end(enc, "cac", "TaxTotal")
}

func (s *XMLBuilderService) writeLegalMonetaryTotal(enc *xml.Encoder, t Totals) {
	start(enc, "cac", "LegalMonetaryTotal")
	writeCbcAmount(enc, "LineExtensionAmount", t.Net)
	writeCbcAmount(enc, "TaxExclusiveAmount", t.Net)
	writeCbcAmount(enc, "TaxInclusiveAmount", t.Grand)
	if t.Discount.IsPositive() {
		writeCbcAmount(enc, "AllowanceTotalAmount", decimal.Zero)
	}
	writeCbcAmount(enc, "PayableAmount", t.Grand)
	end(enc, "cac", "LegalMonetaryTotal")
}

func (s *XMLBuilderService) writeLine(enc *xml.Encoder, lay layout, lineNum int, line LineForXML) {
	unitCode := nonEmpty(line.UnitCode, dian.UnitUnit)
	start(enc, "cac", lay.lineElem)
	writeCbc(enc, "ID", strconv.Itoa(lineNum))
	writeCbcWithAttr(enc, lay.qtyElem, formatDecimal(line.Quantity), "unitCode", unitCode)
	writeCbcAmount(enc, "LineExtensionAmount", line.Subtotal)

	// descuento por línea como AllowanceCharge
	if line.Discount.IsPositive() {
		start(enc, "cac", "AllowanceCharge")
		writeCbc(enc, "ID", "1")
		writeCbc(enc, "ChargeIndicator", "false")
		writeCbc(enc, "AllowanceChargeReason", "Descuento")
		writeCbcAmount(enc, "Amount", line.Discount)
		writeCbcAmount(enc, "BaseAmount", line.Quantity.Mul(line.UnitPrice))
		end(enc, "cac", "AllowanceCharge")
	}

	start(enc, "cac", "TaxTotal")
	writeCbcAmount(enc, "TaxAmount", line.TaxAmount)
	start(enc, "cac", "TaxSubtotal")
	writeCbcAmount(enc, "TaxableAmount", line.Subtotal)
	writeCbcAmount(enc, "TaxAmount", line.TaxAmount)
	start(enc, "cac", "TaxCategory")
	writeCbc(enc, "Percent", pricing.NormalizeRate(line.TaxRate).StringFixed(2))
	start(enc, "cac", "TaxScheme")
	writeCbc(enc, "ID", dian.TaxCodeIVA)
	writeCbc(enc, "Name", "IVA")
	end(enc, "cac", "TaxScheme")
	end(enc, "cac", "TaxCategory")
	end(enc, "cac", "TaxSubtotal")
	end(enc, "cac", "TaxTotal")

	start(enc, "cac", "Item")
	writeCbc(enc, "Description", nonEmpty(line.ProductName, "Item "+strconv.Itoa(lineNum)))
	if line.ProductCode != "" {
		start(enc, "cac", "SellersItemIdentification")
		writeCbc(enc, "ID", line.ProductCode)
		end(enc, "cac", "SellersItemIdentification")
	}
	end(enc, "cac", "Item")

	start(enc, "cac", "Price")
	writeCbcAmount(enc, "PriceAmount", line.UnitPrice)
	writeCbcWithAttr(enc, "BaseQuantity", "1", "unitCode", unitCode)
	end(enc, "cac", "Price")

	end(enc, "cac", lay.lineElem)
}

func schemeIDFromCode(code string) string {
	if dian.ValidIdentificationTypes[code] {
		return code
	}
	return dian.IdentificationTypeNIT
}

func normalizeNIT(nit string) string {
	var out []byte
	for _, b := range []byte(nit) {
		if b >= '0' && b <= '9' {
			out = append(out, b)
		}
	}
	return string(out)
}

func formatDecimal(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
