// Package dian contiene validaciones de dominio para facturación electrónica DIAN (Colombia),
// según Anexo Técnico 1.9. Utiliza catálogos y reglas de pkg/dian.
package dian

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// ErrInvalidInvoice agrupa errores de validación de factura o nota crédito.
var ErrInvalidInvoice = errors.New("documento inválido para DIAN")

// ValidateInvoice valida la factura y sus detalles según reglas del Anexo Técnico 1.9.
// Para clientes jurídicos (NIT, tipo 31) exige que customerTaxID tenga dígito de verificación válido.
// Comprueba que los totales de impuestos y netos coincidan con la suma de los ítems.
func ValidateInvoice(
	invoice *entity.Invoice,
	details []*entity.InvoiceDetail,
	customerIdentificationTypeCode string,
	customerTaxID string,
) error {
	if invoice == nil {
		return fmt.Errorf("%w: factura nula", ErrInvalidInvoice)
	}
	var errs []error

	if customerIdentificationTypeCode == dian.IdentificationTypeNIT {
		if err := dian.ValidateNITVerificationDigit(customerTaxID); err != nil {
			errs = append(errs, fmt.Errorf("cliente NIT: %w", err))
		}
	}
	if invoice.PaymentForm != "" && invoice.PaymentForm != dian.PaymentFormContado && invoice.PaymentForm != dian.PaymentFormCredito {
		errs = append(errs, fmt.Errorf("forma de pago %q desconocida", invoice.PaymentForm))
	}

	if len(details) == 0 {
		errs = append(errs, errors.New("la factura debe tener al menos un detalle"))
	} else {
		var sumSubtotal, sumTax decimal.Decimal
		for i, d := range details {
			sumSubtotal = sumSubtotal.Add(d.Subtotal)
			sumTax = sumTax.Add(d.TaxAmount)
			// Impuesto por línea = Subtotal * TaxRate (IVA 19% sobre base).
			if expected := d.Subtotal.Mul(d.TaxRate).Round(2); !d.TaxAmount.Equal(expected) {
				errs = append(errs, fmt.Errorf("línea %d: IVA %s no corresponde a la base (%s)", i+1, d.TaxAmount.StringFixed(2), expected.StringFixed(2)))
			}
		}
		errs = append(errs, checkTotals(invoice.NetTotal, invoice.TaxTotal, invoice.GrandTotal, sumSubtotal, sumTax)...)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return nil
}

// ValidateCreditNote revisa concepto, referencia y totales de una nota crédito.
func ValidateCreditNote(note *entity.CreditNote, invoice *entity.Invoice) error {
	if note == nil || invoice == nil {
		return fmt.Errorf("%w: nota o factura nula", ErrInvalidInvoice)
	}
	var errs []error
	if _, ok := dian.CreditConceptDescriptions[note.ConceptCode]; !ok {
		errs = append(errs, fmt.Errorf("concepto de corrección %q desconocido", note.ConceptCode))
	}
	if invoice.CUFE == "" {
		errs = append(errs, errors.New("la factura referenciada no tiene CUFE"))
	}
	if len(note.Lines) == 0 {
		errs = append(errs, errors.New("la nota debe tener al menos una línea"))
	} else {
		var sumSubtotal, sumTax decimal.Decimal
		for _, l := range note.Lines {
			sumSubtotal = sumSubtotal.Add(l.Subtotal)
			sumTax = sumTax.Add(l.TaxAmount)
		}
		errs = append(errs, checkTotals(note.NetTotal, note.TaxTotal, note.GrandTotal, sumSubtotal, sumTax)...)
	}
	if note.GrandTotal.GreaterThan(invoice.GrandTotal) {
		errs = append(errs, fmt.Errorf("la nota (%s) supera el total de la factura (%s)", note.GrandTotal.StringFixed(2), invoice.GrandTotal.StringFixed(2)))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return nil
}

func checkTotals(net, tax, grand, sumSubtotal, sumTax decimal.Decimal) []error {
	var errs []error
	if !net.Equal(sumSubtotal.Round(2)) {
		errs = append(errs, fmt.Errorf("net total (%s) no coincide con la suma de subtotales de ítems (%s)", net.String(), sumSubtotal.Round(2).String()))
	}
	if !tax.Equal(sumTax.Round(2)) {
		errs = append(errs, fmt.Errorf("tax total (%s) no coincide con la suma de impuestos por ítems (%s)", tax.String(), sumTax.Round(2).String()))
	}
	if expected := sumSubtotal.Add(sumTax).Round(2); !grand.Equal(expected) {
		errs = append(errs, fmt.Errorf("grand total (%s) no coincide con net + tax (%s)", grand.String(), expected.String()))
	}
	return errs
}
