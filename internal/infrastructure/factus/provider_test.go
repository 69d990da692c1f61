package factus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/pkg/config"
)

type fakeFactus struct {
	t           *testing.T
	tokenCalls  atomic.Int32
	refreshes   atomic.Int32
	rejectToken atomic.Bool
	billStatus  int
	lastBill    billPayload
	lastNote    creditNotePayload
}

func (f *fakeFactus) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseForm())
		assert.Equal(f.t, "cid", r.PostForm.Get("client_id"))
		switch r.PostForm.Get("grant_type") {
		case "password":
			f.tokenCalls.Add(1)
			assert.Equal(f.t, "api@empresa.co", r.PostForm.Get("username"))
		case "refresh_token":
			f.refreshes.Add(1)
			assert.Equal(f.t, "refresh-1", r.PostForm.Get("refresh_token"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token_type": "Bearer", "expires_in": 3600,
			"access_token": "tok-" + r.PostForm.Get("grant_type"), "refresh_token": "refresh-1",
		})
	})
	mux.HandleFunc("/v1/bills/validate", func(w http.ResponseWriter, r *http.Request) {
		if f.rejectToken.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		assert.Contains(f.t, r.Header.Get("Authorization"), "Bearer tok-")
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastBill))
		switch f.billStatus {
		case http.StatusUnprocessableEntity:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"status":"Validation error","message":"Error de validación","data":{"errors":{"customer.identification":["El campo es obligatorio."]}}}`))
		case http.StatusInternalServerError:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`oops`))
		default:
			_, _ = w.Write([]byte(`{"status":"Created","message":"ok","data":{"bill":{"id":321,"number":"SETP990000203","status":1,"cufe":"cufe-abc","qr":"https://catalogo-vpfe-hab.dian.gov.co/document/searchqr?documentkey=cufe-abc"}}}`))
		}
	})
	mux.HandleFunc("/v1/credit-notes/validate", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastNote))
		_, _ = w.Write([]byte(`{"status":"Created","data":{"credit_note":{"id":77,"number":"NC1","cude":"cude-xyz","qr":"qr"}}}`))
	})
	return mux
}

func setup(t *testing.T) (*fakeFactus, *Provider, *Client) {
	f := &fakeFactus{t: t}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	c := NewClient(config.FactusConfig{
		BaseURL: srv.URL + "/", ClientID: "cid", ClientSecret: "secret",
		Username: "api@empresa.co", Password: "pw", NumberingRangeID: 8, CreditRangeID: 9,
	}, srv.Client(), zerolog.Nop())
	return f, NewProvider(c), c
}

func invoiceDoc() *billing.InvoiceDocument {
	d := decimal.NewFromInt
	inv := &entity.Invoice{
		ID: "i1", Prefix: "SETP", Number: "990000203", PaymentForm: "2", PaymentMethod: "47",
		DueDate: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	return &billing.InvoiceDocument{
		Invoice:  inv,
		Company:  &entity.Company{Name: "Invorya", NIT: "900123456-8"},
		Customer: &entity.Customer{Name: "Cliente SAS", IdentificationType: "31", TaxID: "800.987.654-4"},
		Lines: []billing.DocumentLine{{
			ProductID: "p1", ProductCode: "SKU-1", Name: "Café", UnitCode: "KGM",
			Detail: &entity.InvoiceDetail{Quantity: d(2), UnitPrice: d(10000), Discount: d(2000), TaxRate: decimal.RequireFromString("0.19")},
		}},
	}
}

func TestSubmitInvoice_Accepted(t *testing.T) {
	f, p, _ := setup(t)
	res, err := p.SubmitInvoice(context.Background(), invoiceDoc())
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, "cufe-abc", res.CUFE)
	assert.Equal(t, "321", res.TrackID)
	assert.Equal(t, "SETP990000203", res.Number)

	body := f.lastBill
	assert.Equal(t, 8, body.NumberingRangeID)
	assert.Equal(t, "SETP990000203", body.ReferenceCode)
	assert.Equal(t, "2026-04-30", body.PaymentDueDate)
	assert.Equal(t, "800987654", body.Customer.Identification)
	assert.Equal(t, "4", body.Customer.DV)
	assert.Equal(t, 6, body.Customer.IdentificationDocumentID)
	assert.Equal(t, "Cliente SAS", body.Customer.Company)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "11900.00", body.Items[0].Price)
	assert.Equal(t, "10.00", body.Items[0].DiscountRate)
	assert.Equal(t, "19.00", body.Items[0].TaxRate)
	assert.Equal(t, 414, body.Items[0].UnitMeasureID)
	assert.Equal(t, 0, body.Items[0].IsExcluded)
}

func TestSubmitInvoice_TokenCachedAndRenewedOn401(t *testing.T) {
	f, p, _ := setup(t)
	_, err := p.SubmitInvoice(context.Background(), invoiceDoc())
	require.NoError(t, err)
	_, err = p.SubmitInvoice(context.Background(), invoiceDoc())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load())

	f.rejectToken.Store(true)
	_, err = p.SubmitInvoice(context.Background(), invoiceDoc())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestAccessToken_RefreshesWhenExpired(t *testing.T) {
	f, _, c := setup(t)
	now := time.Now()
	c.now = func() time.Time { return now }

	tok, err := c.accessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-password", tok)

	now = now.Add(2 * time.Hour)
	tok, err = c.accessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-refresh_token", tok)
	assert.Equal(t, int32(1), f.refreshes.Load())
}

func TestSubmitInvoice_Rejected(t *testing.T) {
	f, p, _ := setup(t)
	f.billStatus = http.StatusUnprocessableEntity
	res, err := p.SubmitInvoice(context.Background(), invoiceDoc())
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Contains(t, res.Errors, "customer.identification: El campo es obligatorio.")
}

func TestSubmitInvoice_ServerError(t *testing.T) {
	f, p, _ := setup(t)
	f.billStatus = http.StatusInternalServerError
	_, err := p.SubmitInvoice(context.Background(), invoiceDoc())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "oops", apiErr.Message)
}

func TestSubmitCreditNote(t *testing.T) {
	f, p, _ := setup(t)
	doc := invoiceDoc()
	doc.Invoice.TrackID = "321"
	note := &entity.CreditNote{
		Prefix: "NC", Number: "1", ConceptCode: "2", Reason: "Anulación",
		Lines: []entity.CreditNoteLine{{ProductID: "p1", Description: "Café", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10000), TaxRate: decimal.NewFromInt(19)}},
	}
	res, err := p.SubmitCreditNote(context.Background(), &billing.CreditNoteDocument{
		Note: note, Invoice: doc.Invoice, Company: doc.Company, Customer: doc.Customer,
		ProductCodes: map[string]string{"p1": "SKU-1"}, UnitCodes: map[string]string{},
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "cude-xyz", res.CUFE)
	assert.Equal(t, int64(321), f.lastNote.BillID)
	assert.Equal(t, 2, f.lastNote.CorrectionConceptCode)
	assert.Equal(t, 9, f.lastNote.NumberingRangeID)
	assert.Equal(t, "SKU-1", f.lastNote.Items[0].CodeReference)
	assert.Equal(t, 70, f.lastNote.Items[0].UnitMeasureID)

	doc.Invoice.TrackID = ""
	_, err = p.SubmitCreditNote(context.Background(), &billing.CreditNoteDocument{Note: note, Invoice: doc.Invoice, Customer: doc.Customer})
	assert.Error(t, err)
}
