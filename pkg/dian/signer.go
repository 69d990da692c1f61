package dian

import "crypto/tls"

// Signer firma un documento UBL (factura o nota crédito) con XAdES-EPES e inyecta
// ds:Signature dentro de ext:ExtensionContent.
type Signer interface {
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
