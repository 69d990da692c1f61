package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/invorya-erp/internal/domain"
	domaindian "github.com/jhoicas/invorya-erp/internal/domain/dian"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// DefaultSubmissionTimeout tiempo máximo de un envío en segundo plano.
const DefaultSubmissionTimeout = 30 * time.Second

// EInvoiceOrchestrator envía facturas y notas crédito al proveedor electrónico:
//
//	documento → Pending → proveedor (DIAN directo o Factus) → EXITOSO | RECHAZADO | ERROR_GENERATION
//
// ProcessAsync corre en una goroutine con su propio context.Background() y timeout,
// desacoplada del ciclo HTTP. Con el proveedor "none" los documentos quedan en DRAFT.
type EInvoiceOrchestrator struct {
	invoiceRepo    repository.InvoiceRepository
	creditNoteRepo repository.CreditNoteRepository
	companyRepo    repository.CompanyRepository
	customerRepo   repository.CustomerRepository
	productRepo    repository.ProductRepository
	resolutionRepo repository.BillingResolutionRepository
	provider       EInvoiceProvider
	timeout        time.Duration
	log            zerolog.Logger
	wg             sync.WaitGroup
}

var _ Dispatcher = (*EInvoiceOrchestrator)(nil)

func NewEInvoiceOrchestrator(
	invoiceRepo repository.InvoiceRepository,
	creditNoteRepo repository.CreditNoteRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	resolutionRepo repository.BillingResolutionRepository,
	provider EInvoiceProvider,
	log zerolog.Logger,
) *EInvoiceOrchestrator {
	if provider == nil {
		provider = NoopProvider{}
	}
	return &EInvoiceOrchestrator{
		invoiceRepo:    invoiceRepo,
		creditNoteRepo: creditNoteRepo,
		companyRepo:    companyRepo,
		customerRepo:   customerRepo,
		productRepo:    productRepo,
		resolutionRepo: resolutionRepo,
		provider:       provider,
		timeout:        DefaultSubmissionTimeout,
		log:            log.With().Str("component", "einvoice").Str("provider", provider.Name()).Logger(),
	}
}

// WithTimeout cambia el tiempo máximo por envío; valores no positivos se ignoran.
func (o *EInvoiceOrchestrator) WithTimeout(d time.Duration) *EInvoiceOrchestrator {
	if d > 0 {
		o.timeout = d
	}
	return o
}

// Enabled false cuando no hay proveedor configurado.
func (o *EInvoiceOrchestrator) Enabled() bool {
	return o.provider.Name() != ProviderNone
}

// ProcessAsync dispara el envío en segundo plano.
func (o *EInvoiceOrchestrator) ProcessAsync(kind, id string) {
	if !o.Enabled() {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()

		var err error
		switch kind {
		case DocInvoice:
			err = o.ProcessInvoice(ctx, id)
		case DocCreditNote:
			err = o.ProcessCreditNote(ctx, id)
		default:
			err = fmt.Errorf("tipo de documento %q desconocido", kind)
		}
		if err != nil {
			o.log.Error().Err(err).Str("kind", kind).Str("document_id", id).Msg("envío electrónico fallido")
		}
	}()
}

// Wait espera los envíos en curso (apagado ordenado y pruebas).
func (o *EInvoiceOrchestrator) Wait() {
	o.wg.Wait()
}

// Resubmittable estados desde los que se puede (re)enviar un documento.
func Resubmittable(status string) bool {
	switch status {
	case entity.DIANStatusDraft, entity.DIANStatusErrorGeneration, entity.DIANStatusError, entity.DIANStatusRechazado:
		return true
	}
	return false
}

// ProcessInvoice envía una factura emitida y persiste el resultado.
func (o *EInvoiceOrchestrator) ProcessInvoice(ctx context.Context, id string) error {
	if !o.Enabled() {
		return nil
	}
	log := o.log.With().Str("invoice_id", id).Logger()

	inv, err := o.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	if inv.Status == entity.InvoiceStatusDraft {
		return fmt.Errorf("%w: la factura %s no ha sido emitida", domain.ErrInvalidTransition, inv.FullNumber())
	}
	if !Resubmittable(inv.DIAN_Status) {
		log.Debug().Str("dian_status", inv.DIAN_Status).Msg("factura ya procesada, se omite")
		return nil
	}

	markError := func(step string, cause error) error {
		inv.DIAN_Status = entity.DIANStatusErrorGeneration
		inv.DIANErrors = cause.Error()
		inv.UpdatedAt = time.Now()
		if err := o.invoiceRepo.UpdateElectronic(ctx, inv); err != nil {
			log.Error().Err(err).Msg("no se pudo persistir ERROR_GENERATION")
		}
		log.Error().Err(cause).Str("step", step).Msg("error en envío de factura")
		return fmt.Errorf("%s: %w", step, cause)
	}

	doc, err := o.invoiceDocument(ctx, inv)
	if err != nil {
		return markError("fetch", err)
	}
	if err := domaindian.ValidateInvoice(inv, detailsOf(doc), doc.Customer.IdentificationType, doc.Customer.TaxID); err != nil {
		return markError("validate", err)
	}

	inv.DIAN_Status = entity.DIANStatusPending
	inv.Provider = o.provider.Name()
	inv.DIANErrors = ""
	inv.UpdatedAt = time.Now()
	if err := o.invoiceRepo.UpdateElectronic(ctx, inv); err != nil {
		return err
	}

	res, err := o.provider.SubmitInvoice(ctx, doc)
	if err != nil {
		return markError("submit", err)
	}

	inv.CUFE = res.CUFE
	inv.QRData = res.QRData
	inv.XMLSigned = res.XMLSigned
	inv.TrackID = res.TrackID
	inv.DIANErrors = res.Errors
	inv.DIAN_Status = entity.DIANStatusRechazado
	if res.Accepted {
		inv.DIAN_Status = entity.DIANStatusExitoso
	}
	inv.UpdatedAt = time.Now()
	if err := o.invoiceRepo.UpdateElectronic(ctx, inv); err != nil {
		return fmt.Errorf("persistir estado %s: %w", inv.DIAN_Status, err)
	}
	if res.Number != "" && res.Number != inv.FullNumber() {
		log.Warn().Str("provider_number", res.Number).Str("number", inv.FullNumber()).Msg("el proveedor asignó otro consecutivo")
	}
	log.Info().Str("dian_status", inv.DIAN_Status).Str("track_id", inv.TrackID).Msg("factura procesada")
	return nil
}

// ProcessCreditNote envía una nota crédito; la factura referenciada debe tener CUFE.
func (o *EInvoiceOrchestrator) ProcessCreditNote(ctx context.Context, id string) error {
	if !o.Enabled() {
		return nil
	}
	log := o.log.With().Str("credit_note_id", id).Logger()

	note, err := o.creditNoteRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("%w: nota crédito %s", domain.ErrNotFound, id)
	}
	if !Resubmittable(note.DIAN_Status) {
		log.Debug().Str("dian_status", note.DIAN_Status).Msg("nota ya procesada, se omite")
		return nil
	}

	markError := func(step string, cause error) error {
		note.DIAN_Status = entity.DIANStatusErrorGeneration
		note.DIANErrors = cause.Error()
		note.UpdatedAt = time.Now()
		if err := o.creditNoteRepo.UpdateElectronic(ctx, note); err != nil {
			log.Error().Err(err).Msg("no se pudo persistir ERROR_GENERATION")
		}
		log.Error().Err(cause).Str("step", step).Msg("error en envío de nota crédito")
		return fmt.Errorf("%s: %w", step, cause)
	}

	doc, err := o.creditNoteDocument(ctx, note)
	if err != nil {
		return markError("fetch", err)
	}
	if err := domaindian.ValidateCreditNote(note, doc.Invoice); err != nil {
		return markError("validate", err)
	}

	note.DIAN_Status = entity.DIANStatusPending
	note.DIANErrors = ""
	note.UpdatedAt = time.Now()
	if err := o.creditNoteRepo.UpdateElectronic(ctx, note); err != nil {
		return err
	}

	res, err := o.provider.SubmitCreditNote(ctx, doc)
	if err != nil {
		return markError("submit", err)
	}
	note.CUDE = res.CUFE
	note.XMLSigned = res.XMLSigned
	note.TrackID = res.TrackID
	note.DIANErrors = res.Errors
	note.DIAN_Status = entity.DIANStatusRechazado
	if res.Accepted {
		note.DIAN_Status = entity.DIANStatusExitoso
	}
	note.UpdatedAt = time.Now()
	if err := o.creditNoteRepo.UpdateElectronic(ctx, note); err != nil {
		return fmt.Errorf("persistir estado %s: %w", note.DIAN_Status, err)
	}
	log.Info().Str("dian_status", note.DIAN_Status).Str("track_id", note.TrackID).Msg("nota crédito procesada")
	return nil
}

// invoiceDocument reúne empresa, cliente, resolución y líneas con datos de producto.
func (o *EInvoiceOrchestrator) invoiceDocument(ctx context.Context, inv *entity.Invoice) (*InvoiceDocument, error) {
	company, customer, err := o.parties(ctx, inv)
	if err != nil {
		return nil, err
	}
	res, err := o.resolutionRepo.GetActive(ctx, inv.CompanyID, entity.ResolutionKindInvoice, inv.Prefix)
	if err != nil {
		return nil, fmt.Errorf("consultar resolución: %w", err)
	}
	details, err := o.invoiceRepo.GetDetailsByInvoiceID(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener detalles: %w", err)
	}
	doc := &InvoiceDocument{Invoice: inv, Company: company, Customer: customer, Resolution: res}
	for _, d := range details {
		line := DocumentLine{ProductID: d.ProductID, ProductCode: d.ProductID, Name: d.Description, UnitCode: dian.UnitUnit, Detail: d}
		if p, err := o.productRepo.GetByID(ctx, d.ProductID); err == nil && p != nil {
			line.ProductCode = p.SKU
			if line.Name == "" {
				line.Name = p.Name
			}
			if p.UnitMeasure != "" {
				line.UnitCode = p.UnitMeasure
			}
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}

func (o *EInvoiceOrchestrator) creditNoteDocument(ctx context.Context, note *entity.CreditNote) (*CreditNoteDocument, error) {
	inv, err := o.invoiceRepo.GetByID(ctx, note.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, note.InvoiceID)
	}
	company, customer, err := o.parties(ctx, inv)
	if err != nil {
		return nil, err
	}
	res, err := o.resolutionRepo.GetActive(ctx, note.CompanyID, entity.ResolutionKindCreditNote, "")
	if err != nil {
		return nil, fmt.Errorf("consultar resolución: %w", err)
	}
	doc := &CreditNoteDocument{
		Note: note, Invoice: inv, Company: company, Customer: customer, Resolution: res,
		UnitCodes: map[string]string{}, ProductCodes: map[string]string{},
	}
	for _, l := range note.Lines {
		if l.ProductID == "" {
			continue
		}
		if p, err := o.productRepo.GetByID(ctx, l.ProductID); err == nil && p != nil {
			doc.ProductCodes[l.ProductID] = p.SKU
			if p.UnitMeasure != "" {
				doc.UnitCodes[l.ProductID] = p.UnitMeasure
			}
		}
	}
	return doc, nil
}

func (o *EInvoiceOrchestrator) parties(ctx context.Context, inv *entity.Invoice) (*entity.Company, *entity.Customer, error) {
	company, err := o.companyRepo.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	if company == nil {
		return nil, nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, inv.CompanyID)
	}
	customer, err := o.customerRepo.GetByID(ctx, inv.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	if customer == nil {
		return nil, nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, inv.CustomerID)
	}
	return company, customer, nil
}

func detailsOf(doc *InvoiceDocument) []*entity.InvoiceDetail {
	out := make([]*entity.InvoiceDetail, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		out = append(out, l.Detail)
	}
	return out
}

// ErrNoProvider el proveedor "none" no envía documentos.
var ErrNoProvider = errors.New("facturación electrónica deshabilitada")

// NoopProvider proveedor vacío: los documentos quedan en DRAFT.
type NoopProvider struct{}

func (NoopProvider) Name() string { return ProviderNone }

func (NoopProvider) SubmitInvoice(context.Context, *InvoiceDocument) (*SubmissionResult, error) {
	return nil, ErrNoProvider
}

func (NoopProvider) SubmitCreditNote(context.Context, *CreditNoteDocument) (*SubmissionResult, error) {
	return nil, ErrNoProvider
}
