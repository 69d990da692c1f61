// certcheck verifica el certificado de firma configurado para la DIAN.
//
// Uso: go run ./cmd/certcheck [--cert ruta.p12 --password clave]
// Sin argumentos usa DIAN_CERT_PATH, DIAN_CERT_KEY_PATH y DIAN_CERT_PASSWORD.
package main

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/jhoicas/invorya-erp/internal/infrastructure/dian/signer"
	"github.com/jhoicas/invorya-erp/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	certPath := pflag.String("cert", cfg.DIAN.CertPath, "certificado .p12/.pfx o .pem")
	keyPath := pflag.String("key", cfg.DIAN.CertKeyPath, "llave .pem (solo con certificado PEM)")
	password := pflag.String("password", cfg.DIAN.CertPassword, "contraseña del .p12")
	pflag.Parse()

	fmt.Println("Diagnóstico de certificado DIAN")
	fmt.Printf("Archivo: %s\n", *certPath)
	if *certPath == "" {
		fmt.Println("Sin certificado configurado: los documentos se envían sin firma.")
		os.Exit(1)
	}
	if _, err := os.Stat(*certPath); err != nil {
		fmt.Printf("No se puede abrir el archivo: %v\n", err)
		os.Exit(1)
	}

	cert, _, err := signer.LoadCertificate(*certPath, *keyPath, *password)
	if err != nil {
		fmt.Printf("Contraseña o formato inválido: %v\n", err)
		os.Exit(1)
	}
	leaf := cert.Leaf
	if leaf == nil {
		if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			fmt.Printf("Certificado ilegible: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Sujeto:   %s\n", leaf.Subject.String())
	fmt.Printf("Emisor:   %s\n", leaf.Issuer.String())
	fmt.Printf("Serial:   %s\n", leaf.SerialNumber.String())
	fmt.Printf("Llave:    %s\n", keyType(cert.PrivateKey))
	fmt.Printf("Vigencia: %s a %s\n", leaf.NotBefore.Format(time.DateOnly), leaf.NotAfter.Format(time.DateOnly))

	now := time.Now()
	switch {
	case now.Before(leaf.NotBefore):
		fmt.Println("El certificado aún no es válido.")
		os.Exit(1)
	case now.After(leaf.NotAfter):
		fmt.Println("El certificado está vencido.")
		os.Exit(1)
	}
	days := int(leaf.NotAfter.Sub(now).Hours() / 24)
	if days < 30 {
		fmt.Printf("Atención: vence en %d días.\n", days)
	}
	if _, ok := cert.PrivateKey.(*rsa.PrivateKey); !ok {
		fmt.Println("La firma XAdES requiere llave RSA.")
		os.Exit(1)
	}
	fmt.Println("Certificado y contraseña correctos.")
}

func keyType(k any) string {
	switch key := k.(type) {
	case *rsa.PrivateKey:
		return fmt.Sprintf("RSA %d bits", key.N.BitLen())
	case *ecdsa.PrivateKey:
		return "ECDSA " + key.Curve.Params().Name
	case nil:
		return "sin llave"
	}
	return fmt.Sprintf("%T", k)
}
