package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura.
// Los borradores no tienen representación gráfica; las emitidas sin CUFE se marcan como pendientes.
type PDFUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	companyRepo  repository.CompanyRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	generator    InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	generator InvoicePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		invoiceRepo:  invoiceRepo,
		companyRepo:  companyRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		generator:    generator,
	}
}

// DownloadInvoicePDF recupera la factura con empresa, cliente y detalle y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
//   - domain.ErrForbidden        si la factura no pertenece a la empresa del token.
//   - domain.ErrInvalidInput     si la factura sigue en borrador.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, companyID, invoiceID string) (pdfBytes []byte, filename string, err error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv, err = ownedInvoice(inv, companyID, invoiceID); err != nil {
		return nil, "", err
	}
	if inv.Status == entity.InvoiceStatusDraft || (inv.Status == entity.InvoiceStatusCancelled && inv.DIAN_Status == entity.DIANStatusDraft && inv.CreditedTotal.IsZero()) {
		return nil, "", fmt.Errorf("%w: la factura %s no ha sido emitida", domain.ErrInvalidInput, inv.FullNumber())
	}

	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil || company == nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", orNotFound(err))
	}
	customer, err := uc.customerRepo.GetByID(ctx, inv.CustomerID)
	if err != nil || customer == nil {
		return nil, "", fmt.Errorf("pdf: obtener cliente: %w", orNotFound(err))
	}

	rawDetails, err := uc.invoiceRepo.GetDetailsByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener detalles: %w", err)
	}
	enriched := make([]InvoiceDetailForPDF, 0, len(rawDetails))
	for _, d := range rawDetails {
		name := d.Description
		if name == "" {
			name = "Producto " + d.ProductID
			if product, pErr := uc.productRepo.GetByID(ctx, d.ProductID); pErr == nil && product != nil {
				name = product.Name
			}
		}
		enriched = append(enriched, InvoiceDetailForPDF{InvoiceDetail: *d, ProductName: name})
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, company, customer, enriched)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("factura_%s%s.pdf", inv.Prefix, inv.Number), nil
}

func orNotFound(err error) error {
	if err != nil {
		return err
	}
	return domain.ErrNotFound
}
