package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unsigned = `<Invoice Id="doc-1" xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2" xmlns:ext="urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">` +
	`<ext:UBLExtensions>` +
	`<ext:UBLExtension><ext:ExtensionContent><dian>1</dian></ext:ExtensionContent></ext:UBLExtension>` +
	`<ext:UBLExtension><ext:ExtensionContent></ext:ExtensionContent></ext:UBLExtension>` +
	`</ext:UBLExtensions><cbc:ID>SETP1</cbc:ID></Invoice>`

func selfSigned(t *testing.T) (tls.Certificate, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(4242),
		Subject:      pkix.Name{CommonName: "Empresa Demo SAS"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, key
}

func TestSign_InjectsSignatureInSecondExtension(t *testing.T) {
	cert, key := selfSigned(t)
	svc := NewDigitalSignatureService()
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC) }

	out, err := svc.Sign([]byte(unsigned), cert)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	exts := doc.Root().SelectElement("UBLExtensions").SelectElements("UBLExtension")
	require.Len(t, exts, 2)
	assert.Nil(t, exts[0].SelectElement("ExtensionContent").SelectElement("Signature"))
	sig := exts[1].SelectElement("ExtensionContent").SelectElement("Signature")
	require.NotNil(t, sig)

	ref := sig.FindElement("./SignedInfo/Reference")
	require.NotNil(t, ref)
	assert.Equal(t, "#doc-1", ref.SelectAttrValue("URI", ""))
	assert.Equal(t, "2026-03-01T15:00:00.000Z", sig.FindElement(".//SigningTime").Text())
	assert.Equal(t, "1092", sig.FindElement(".//X509SerialNumber").Text())

	// la firma verifica contra el SignedInfo canonicalizado
	signedInfo := sig.SelectElement("SignedInfo")
	canonical, err := canonicalize(elementBytes(signedInfo, false))
	require.NoError(t, err)
	value, err := base64.StdEncoding.DecodeString(sig.SelectElement("SignatureValue").Text())
	require.NoError(t, err)
	hash := sha256.Sum256(canonical)
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, hash[:], value))
}

func TestSign_Errors(t *testing.T) {
	cert, _ := selfSigned(t)
	svc := NewDigitalSignatureService()

	_, err := svc.Sign(nil, cert)
	assert.Error(t, err)

	_, err = svc.Sign([]byte(`<Invoice><cbc:ID>1</cbc:ID></Invoice>`), cert)
	assert.ErrorContains(t, err, "UBLExtensions")

	_, err = svc.Sign([]byte(unsigned), tls.Certificate{})
	assert.Error(t, err)
}

func TestLoadCertificate_EmptyPath(t *testing.T) {
	_, ok, err := LoadCertificate("", "", "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = LoadCertificate("/no/existe.p12", "", "x")
	assert.Error(t, err)
}
