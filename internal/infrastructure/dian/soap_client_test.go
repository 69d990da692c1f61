package dian

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soapServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), "<fileName>doc.zip</fileName>")
		assert.Contains(t, r.Header.Get("SOAPAction"), "SendTestSetAsync")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSOAPClient_Accepted(t *testing.T) {
	srv := soapServer(t, http.StatusOK, `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`+
		`<SendTestSetAsyncResponse><SendTestSetAsyncResult><HasErrors>false</HasErrors><ZipKey>zk-1</ZipKey></SendTestSetAsyncResult></SendTestSetAsyncResponse>`+
		`</s:Body></s:Envelope>`)
	c := NewSOAPDIANClient(srv.Client(), zerolog.Nop()).WithEndpoint(AppEnvTest, srv.URL)

	res, err := c.SubmitZip(context.Background(), []byte("zip"), "doc.zip", AppEnvTest)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "zk-1", res.TrackID)
}

func TestSOAPClient_Rejected(t *testing.T) {
	srv := soapServer(t, http.StatusOK, `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`+
		`<SendTestSetAsyncResponse><SendTestSetAsyncResult><HasErrors>true</HasErrors>`+
		`<ErrorMessageList><string>FAD06</string><string>FAJ43b</string></ErrorMessageList>`+
		`</SendTestSetAsyncResult></SendTestSetAsyncResponse></s:Body></s:Envelope>`)
	c := NewSOAPDIANClient(srv.Client(), zerolog.Nop()).WithEndpoint(AppEnvTest, srv.URL)

	res, err := c.SubmitZip(context.Background(), []byte("zip"), "doc.zip", AppEnvTest)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "FAD06; FAJ43b", res.Errors)
}

func TestSOAPClient_Fault(t *testing.T) {
	srv := soapServer(t, http.StatusInternalServerError, `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`+
		`<s:Fault><faultcode>s:Client</faultcode><faultstring>Firma inválida</faultstring></s:Fault></s:Body></s:Envelope>`)
	c := NewSOAPDIANClient(srv.Client(), zerolog.Nop()).WithEndpoint(AppEnvTest, srv.URL)

	res, err := c.SubmitZip(context.Background(), []byte("zip"), "doc.zip", AppEnvTest)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Contains(t, res.Errors, "Firma inválida")
}

func TestSOAPClient_ServerError(t *testing.T) {
	srv := soapServer(t, http.StatusBadGateway, "bad gateway")
	c := NewSOAPDIANClient(srv.Client(), zerolog.Nop()).WithEndpoint(AppEnvTest, srv.URL)

	_, err := c.SubmitZip(context.Background(), []byte("zip"), "doc.zip", AppEnvTest)
	assert.ErrorContains(t, err, "502")
}

func TestSOAPClient_UnknownEnv(t *testing.T) {
	c := NewSOAPDIANClient(http.DefaultClient, zerolog.Nop())
	_, err := c.SubmitZip(context.Background(), nil, "doc.zip", "staging")
	assert.Error(t, err)
}
