package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
)

func TestResolutionUseCase(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	companyID, _, userID := s.SeedCompany("900123456")
	uc := billing.NewResolutionUseCase(s.Resolutions(), s.Recorder())

	now := time.Now()
	req := dto.CreateResolutionRequest{
		Kind: "invoice", ResolutionNumber: "18764000001", Prefix: "seto",
		RangeFrom: 990000000, RangeTo: 995000000,
		DateFrom: now.AddDate(0, -1, 0), DateTo: now.AddDate(1, 0, 0),
	}

	t.Run("crea con prefijo en mayúsculas", func(t *testing.T) {
		res, err := uc.CreateResolution(ctx, companyID, userID, req)
		require.NoError(t, err)
		assert.Equal(t, "SETO", res.Prefix)
		assert.Equal(t, int64(990000000), res.NextNumber)
		assert.Equal(t, int64(5000001), res.Remaining)
		assert.True(t, res.IsActive)
	})

	t.Run("segunda activa con el mismo prefijo", func(t *testing.T) {
		_, err := uc.CreateResolution(ctx, companyID, userID, req)
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("rango y vigencia", func(t *testing.T) {
		bad := req
		bad.Prefix = "NC"
		bad.RangeTo = bad.RangeFrom - 1
		_, err := uc.CreateResolution(ctx, companyID, userID, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		bad = req
		bad.Prefix = "NC"
		bad.DateTo = bad.DateFrom
		_, err = uc.CreateResolution(ctx, companyID, userID, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("desactivar libera el prefijo", func(t *testing.T) {
		list, err := uc.ListResolutions(ctx, companyID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		_, err = uc.DeactivateResolution(ctx, "otra", userID, list[0].ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		off, err := uc.DeactivateResolution(ctx, companyID, userID, list[0].ID)
		require.NoError(t, err)
		assert.False(t, off.IsActive)

		_, err = uc.CreateResolution(ctx, companyID, userID, req)
		assert.NoError(t, err)
	})
}
