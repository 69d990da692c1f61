package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

// CustomerUseCase casos de uso para clientes (facturación).
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// Create crea un nuevo cliente. Con tipo 31 (NIT) exige dígito de verificación válido.
func (uc *CustomerUseCase) Create(ctx context.Context, companyID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	name, taxID := strings.TrimSpace(in.Name), strings.TrimSpace(in.TaxID)
	if name == "" || taxID == "" {
		return nil, fmt.Errorf("%w: nombre y documento son obligatorios", domain.ErrInvalidInput)
	}
	idType := in.IdentificationType
	if idType == "" {
		idType = dian.IdentificationTypeCC
	}
	if !dian.ValidIdentificationTypes[idType] {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, idType)
	}
	if idType == dian.IdentificationTypeNIT {
		if err := dian.ValidateNITVerificationDigit(taxID); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	if in.CreditDays < 0 {
		return nil, fmt.Errorf("%w: días de crédito negativos", domain.ErrInvalidInput)
	}
	existing, err := uc.repo.GetByCompanyAndTaxID(ctx, companyID, taxID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	customer := &entity.Customer{
		ID:                 uuid.New().String(),
		CompanyID:          companyID,
		Name:               name,
		IdentificationType: idType,
		TaxID:              taxID,
		Email:              strings.TrimSpace(in.Email),
		Phone:              in.Phone,
		Address:            in.Address,
		CreditDays:         in.CreditDays,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// Get cliente de la empresa.
func (uc *CustomerUseCase) Get(ctx context.Context, companyID, id string) (*dto.CustomerResponse, error) {
	c, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := toCustomerResponse(c)
	return &resp, nil
}

// Update cambia los datos de contacto y el plazo. El documento no se modifica.
func (uc *CustomerUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	c, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: nombre vacío", domain.ErrInvalidInput)
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.CreditDays != nil {
		if *in.CreditDays < 0 {
			return nil, fmt.Errorf("%w: días de crédito negativos", domain.ErrInvalidInput)
		}
		c.CreditDays = *in.CreditDays
	}
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := toCustomerResponse(c)
	return &resp, nil
}

// List lista clientes de la empresa; search filtra por nombre o documento.
func (uc *CustomerUseCase) List(ctx context.Context, companyID, search string, limit, offset int) ([]dto.CustomerResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, strings.TrimSpace(search), dto.NormalizeLimit(limit), max(offset, 0))
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

func (uc *CustomerUseCase) owned(ctx context.Context, companyID, id string) (*entity.Customer, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, id)
	}
	if c.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return c, nil
}
