package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/auth"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
	"github.com/jhoicas/invorya-erp/pkg/jwt"
)

const secret = "test-secret"

func TestRegisterYLogin(t *testing.T) {
	s := memstore.New()
	companyID, _, _ := s.SeedCompany("900123456")
	uc := auth.NewAuthUseCase(s.Users(), s.Companies(), auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "invorya"})
	ctx := context.Background()

	u, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "Caja@Test.co", Password: "secreto123", CompanyID: companyID})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleVendedor, u.Role)
	assert.Equal(t, "caja@test.co", u.Name)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "caja@test.co", Password: "otro12345", CompanyID: companyID})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "x@test.co", Password: "otro12345", CompanyID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := uc.Login(ctx, dto.LoginRequest{Email: "caja@test.co", Password: "secreto123"})
	require.NoError(t, err)
	claims, err := jwt.Parse(secret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, companyID, claims.CompanyID)
	assert.Equal(t, entity.RoleVendedor, claims.Role)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "caja@test.co", Password: "mala"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@test.co", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioSuspendido(t *testing.T) {
	s := memstore.New()
	companyID, _, _ := s.SeedCompany("900123456")
	uc := auth.NewAuthUseCase(s.Users(), s.Companies(), auth.JWTConfig{Secret: secret, ExpMinutes: 60})
	ctx := context.Background()
	u, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "p@test.co", Password: "secreto123", CompanyID: companyID, Role: entity.RoleOperador})
	require.NoError(t, err)

	stored, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	stored.Status = "suspended"
	require.NoError(t, s.Users().Update(ctx, stored))

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "p@test.co", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
