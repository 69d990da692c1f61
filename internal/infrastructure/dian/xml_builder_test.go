package dian

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleContext() *BuildContext {
	issued := time.Date(2026, 5, 4, 10, 30, 0, 0, colombia)
	due := issued.AddDate(0, 0, 30)
	return &BuildContext{
		Kind:      KindInvoice,
		ID:        "SETP990000001",
		UUID:      "cufe-123",
		IssueDate: issued,
		Company:   &entity.Company{Name: "Empresa Demo SAS", NIT: "900123456-8", Address: "Calle 1"},
		Customer:  &entity.Customer{Name: "Cliente Uno", IdentificationType: "13", TaxID: "1.020.304"},
		Lines: []LineForXML{
			{ProductName: "Café", ProductCode: "CAF-1", UnitCode: "KGM", Quantity: d("2"), UnitPrice: d("10000"), Discount: d("1000"), TaxRate: d("0.19"), TaxAmount: d("3610"), Subtotal: d("19000")},
			{ProductName: "Libro", Quantity: d("1"), UnitPrice: d("5000"), TaxRate: d("0"), TaxAmount: d("0"), Subtotal: d("5000")},
		},
		Totals:            Totals{Net: d("24000"), Discount: d("1000"), Tax: d("3610"), Grand: d("27610")},
		Resolution:        &BillingResolutionData{Number: "18760000001", Prefix: "SETP", From: 990000000, To: 995000000, DateFrom: issued.AddDate(-1, 0, 0), DateTo: issued.AddDate(1, 0, 0)},
		PaymentFormCode:   "2",
		PaymentMethodCode: "47",
		DueDate:           &due,
		Environment:       "2",
	}
}

func parse(t *testing.T, b []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(b))
	return doc.Root()
}

func TestBuild_Invoice(t *testing.T) {
	out, err := NewXMLBuilderService().Build(sampleContext())
	require.NoError(t, err)
	root := parse(t, out)

	assert.Equal(t, "Invoice", root.Tag)
	assert.Equal(t, RootElementID, root.SelectAttrValue("Id", ""))
	assert.Equal(t, "UBLExtensions", root.ChildElements()[0].Tag)
	assert.Equal(t, "10", root.SelectElement("CustomizationID").Text())
	assert.Equal(t, "2026-05-04", root.SelectElement("IssueDate").Text())
	assert.Equal(t, "10:30:00-05:00", root.SelectElement("IssueTime").Text())
	assert.Equal(t, "2026-06-03", root.SelectElement("DueDate").Text())
	assert.Equal(t, "2", root.SelectElement("LineCountNumeric").Text())
	assert.Equal(t, "CUFE-SHA384", root.SelectElement("UUID").SelectAttrValue("schemeName", ""))
	assert.Equal(t, "SETP", root.FindElement(".//AuthorizedInvoices/Prefix").Text())

	supplierID := root.FindElement("./AccountingSupplierParty/Party/PartyIdentification/ID")
	assert.Equal(t, "900123456", supplierID.Text())
	assert.Equal(t, "8", supplierID.SelectAttrValue("schemeName", ""))
	customerID := root.FindElement("./AccountingCustomerParty/Party/PartyIdentification/ID")
	assert.Equal(t, "1020304", customerID.Text())
	assert.Equal(t, "13", customerID.SelectAttrValue("schemeID", ""))

	assert.Equal(t, "2026-06-03", root.FindElement("./PaymentMeans/PaymentDueDate").Text())

	// un subtotal por tarifa, en porcentaje
	subtotals := root.SelectElement("TaxTotal").SelectElements("TaxSubtotal")
	require.Len(t, subtotals, 2)
	assert.Equal(t, "0.00", subtotals[0].FindElement("./TaxCategory/Percent").Text())
	assert.Equal(t, "19.00", subtotals[1].FindElement("./TaxCategory/Percent").Text())
	assert.Equal(t, "3610.00", root.SelectElement("TaxTotal").SelectElement("TaxAmount").Text())
	assert.Equal(t, "27610.00", root.FindElement("./LegalMonetaryTotal/PayableAmount").Text())

	lines := root.SelectElements("InvoiceLine")
	require.Len(t, lines, 2)
	qty := lines[0].SelectElement("InvoicedQuantity")
	assert.Equal(t, "KGM", qty.SelectAttrValue("unitCode", ""))
	assert.Equal(t, "1000.00", lines[0].FindElement("./AllowanceCharge/Amount").Text())
	assert.Nil(t, lines[1].SelectElement("AllowanceCharge"))
	assert.Equal(t, "94", lines[1].SelectElement("InvoicedQuantity").SelectAttrValue("unitCode", ""))
}

func TestBuild_CreditNote(t *testing.T) {
	ctx := sampleContext()
	ctx.Kind = KindCreditNote
	ctx.ID = "NC1"
	ctx.UUID = "cude-1"
	ctx.Lines = ctx.Lines[:1]
	ctx.Reference = &BillingReference{Number: "SETP990000001", CUFE: "cufe-123", IssueDate: ctx.IssueDate}
	ctx.DiscrepancyCode = "1"
	ctx.DiscrepancyText = "Devolución"

	out, err := NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)
	root := parse(t, out)

	assert.Equal(t, "CreditNote", root.Tag)
	assert.Equal(t, "20", root.SelectElement("CustomizationID").Text())
	assert.Equal(t, "91", root.SelectElement("CreditNoteTypeCode").Text())
	assert.Nil(t, root.SelectElement("DueDate"))
	assert.Nil(t, root.FindElement(".//InvoiceControl"))
	assert.Equal(t, "CUDE-SHA384", root.SelectElement("UUID").SelectAttrValue("schemeName", ""))
	assert.Equal(t, "1", root.FindElement("./DiscrepancyResponse/ResponseCode").Text())
	ref := root.FindElement("./BillingReference/InvoiceDocumentReference")
	require.NotNil(t, ref)
	assert.Equal(t, "SETP990000001", ref.SelectElement("ID").Text())
	assert.Equal(t, "cufe-123", ref.SelectElement("UUID").Text())
	require.Len(t, root.SelectElements("CreditNoteLine"), 1)
	assert.NotNil(t, root.FindElement("./CreditNoteLine/CreditedQuantity"))
}

func TestBuild_Errors(t *testing.T) {
	b := NewXMLBuilderService()
	_, err := b.Build(nil)
	assert.Error(t, err)

	ctx := sampleContext()
	ctx.Kind = "debit_note"
	_, err = b.Build(ctx)
	assert.Error(t, err)

	ctx = sampleContext()
	ctx.Kind = KindCreditNote
	_, err = b.Build(ctx)
	assert.ErrorContains(t, err, "referencia")
}

func TestDIANFilenames(t *testing.T) {
	xmlName, zipName := DIANFilenames("900.123.456-8", "SETP", "990000001")
	assert.Equal(t, "900123456SETP990000001.xml", xmlName)
	assert.Equal(t, "900123456SETP990000001.zip", zipName)
}
