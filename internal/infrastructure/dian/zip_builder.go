package dian

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// CompressXMLToZip empaqueta el XML firmado en un ZIP en memoria con una sola entrada.
func CompressXMLToZip(xmlBytes []byte, xmlFilename string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.Create(xmlFilename)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlFilename, err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

// DIANFilenames {NIT sin DV}{PREFIJO}{NÚMERO}, ej. 900123456SETP000001.xml/.zip.
func DIANFilenames(nit, prefix, number string) (xmlName, zipName string) {
	base := dian.NITBase(nit) + strings.TrimSpace(prefix) + strings.TrimSpace(number)
	return base + ".xml", base + ".zip"
}
