package signer

// Política de firma DIAN v2.
const SignaturePolicyURLV2 = "https://facturaelectronica.dian.gov.co/politicadefirma/v2/politicadefirmav2.pdf"

// SigPolicyHashDigest SHA-256 (Base64) de politicadefirmav2.pdf.
var SigPolicyHashDigest = "dMoMvtcG5aIzgYo0tIsSQeVJBDnUnfSOfBpxXrmor0Y="

const (
	NamespaceDS          = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceXAdES       = "http://uri.etsi.org/01903/v1.3.2#"
	AlgC14N              = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA256         = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256            = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped   = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	TypeSignedProperties = "http://uri.etsi.org/01903#SignedProperties"
)

const (
	// InvoiceElementID Id por defecto si la raíz no declara uno.
	InvoiceElementID   = "invoice-id"
	SignatureID        = "xmldsig-invorya"
	SignedPropertiesID = SignatureID + "-signedprops"
)
