// Package signer firma XAdES-EPES de documentos UBL DIAN (Anexo 1.9).
// La ds:Signature se inyecta en el segundo ext:ExtensionContent.
package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// DigitalSignatureService firma facturas y notas crédito.
type DigitalSignatureService struct {
	now func() time.Time
}

func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{now: time.Now}
}

var _ dian.Signer = (*DigitalSignatureService)(nil)

// Sign firma el documento referenciando el Id del elemento raíz.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("dian: XML vacío")
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("dian: certificado vacío")
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("dian: el certificado debe incluir llave privada RSA")
	}
	x509Cert := cert.Leaf
	if x509Cert == nil {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("dian: parsear certificado: %w", err)
		}
		x509Cert = parsed
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("dian: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("dian: documento sin raíz")
	}
	target, err := signatureSlot(root)
	if err != nil {
		return nil, err
	}
	refID := root.SelectAttrValue("Id", InvoiceElementID)

	docDigest, err := digest(xmlBytes)
	if err != nil {
		return nil, err
	}

	sig := etree.NewElement("ds:Signature")
	sig.CreateAttr("xmlns:ds", NamespaceDS)
	sig.CreateAttr("xmlns:xades", NamespaceXAdES)
	sig.CreateAttr("Id", SignatureID)

	qualifying := qualifyingProperties(x509Cert, s.now().UTC())
	signedProps := qualifying.FindElement("xades:SignedProperties")
	propsDigest, err := digest(elementBytes(signedProps, true))
	if err != nil {
		return nil, err
	}

	signedInfo := buildSignedInfo(refID, docDigest, propsDigest)
	canonicalSI, err := canonicalize(elementBytes(signedInfo, false))
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(canonicalSI)
	value, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, hash[:])
	if err != nil {
		return nil, fmt.Errorf("dian: firmar SignedInfo: %w", err)
	}

	sig.AddChild(signedInfo)
	sig.CreateElement("ds:SignatureValue").SetText(base64.StdEncoding.EncodeToString(value))
	sig.CreateElement("ds:KeyInfo").
		CreateElement("ds:X509Data").
		CreateElement("ds:X509Certificate").SetText(base64.StdEncoding.EncodeToString(x509Cert.Raw))
	sig.CreateElement("ds:Object").AddChild(qualifying)
	target.AddChild(sig)

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("dian: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

// signatureSlot segundo ext:ExtensionContent; etree separa prefijo y nombre local.
func signatureSlot(root *etree.Element) (*etree.Element, error) {
	exts := root.SelectElement("UBLExtensions")
	if exts == nil {
		return nil, fmt.Errorf("dian: no se encontró ext:UBLExtensions")
	}
	count := 0
	for _, ext := range exts.SelectElements("UBLExtension") {
		content := ext.SelectElement("ExtensionContent")
		if content == nil {
			continue
		}
		count++
		if count == 2 {
			return content, nil
		}
	}
	return nil, fmt.Errorf("dian: no se encontró el segundo ext:ExtensionContent para la firma")
}

func buildSignedInfo(refID, docDigest, propsDigest string) *etree.Element {
	si := etree.NewElement("ds:SignedInfo")
	si.CreateAttr("xmlns:ds", NamespaceDS)
	si.CreateElement("ds:CanonicalizationMethod").CreateAttr("Algorithm", AlgC14N)
	si.CreateElement("ds:SignatureMethod").CreateAttr("Algorithm", AlgRSASHA256)

	ref := si.CreateElement("ds:Reference")
	ref.CreateAttr("Id", SignatureID+"-ref0")
	ref.CreateAttr("URI", "#"+refID)
	transforms := ref.CreateElement("ds:Transforms")
	transforms.CreateElement("ds:Transform").CreateAttr("Algorithm", TransformEnveloped)
	transforms.CreateElement("ds:Transform").CreateAttr("Algorithm", AlgC14N)
	ref.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	ref.CreateElement("ds:DigestValue").SetText(docDigest)

	props := si.CreateElement("ds:Reference")
	props.CreateAttr("Type", TypeSignedProperties)
	props.CreateAttr("URI", "#"+SignedPropertiesID)
	props.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	props.CreateElement("ds:DigestValue").SetText(propsDigest)
	return si
}

func qualifyingProperties(cert *x509.Certificate, signingTime time.Time) *etree.Element {
	qp := etree.NewElement("xades:QualifyingProperties")
	qp.CreateAttr("Target", "#"+SignatureID)
	sp := qp.CreateElement("xades:SignedProperties")
	sp.CreateAttr("Id", SignedPropertiesID)
	ssp := sp.CreateElement("xades:SignedSignatureProperties")
	ssp.CreateElement("xades:SigningTime").SetText(signingTime.Format("2006-01-02T15:04:05.000Z"))

	certDigest, issuer, serial := CertDigestAndIssuerSerial(cert)
	c := ssp.CreateElement("xades:SigningCertificate").CreateElement("xades:Cert")
	cd := c.CreateElement("xades:CertDigest")
	cd.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	cd.CreateElement("ds:DigestValue").SetText(certDigest)
	is := c.CreateElement("xades:IssuerSerial")
	is.CreateElement("ds:X509IssuerName").SetText(issuer)
	is.CreateElement("ds:X509SerialNumber").SetText(serial)

	policy := ssp.CreateElement("xades:SignaturePolicyIdentifier").CreateElement("xades:SignaturePolicyId")
	policy.CreateElement("xades:SigPolicyId").CreateElement("xades:Identifier").SetText(SignaturePolicyURLV2)
	if SigPolicyHashDigest != "" {
		ph := policy.CreateElement("xades:SigPolicyHash")
		ph.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
		ph.CreateElement("ds:DigestValue").SetText(SigPolicyHashDigest)
	}
	ssp.CreateElement("xades:SignerRole").CreateElement("xades:ClaimedRoles").
		CreateElement("xades:ClaimedRole").SetText("supplier")
	return qp
}

// elementBytes serializa un elemento suelto; withNS declara los prefijos ds y xades.
func elementBytes(el *etree.Element, withNS bool) []byte {
	cp := el.Copy()
	if withNS {
		cp.CreateAttr("xmlns:ds", NamespaceDS)
		cp.CreateAttr("xmlns:xades", NamespaceXAdES)
	}
	doc := etree.NewDocument()
	doc.SetRoot(cp)
	b, _ := doc.WriteToBytes()
	return b
}

func digest(data []byte) (string, error) {
	canonical, err := canonicalize(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, fmt.Errorf("dian: canonicalizar: %w", err)
	}
	return out, nil
}
