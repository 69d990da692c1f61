package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/ledger"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

const numberingLockTTL = 15 * time.Second

// lockNumbering toma el candado de consecutivos de la empresa para el tipo de documento.
// Sin locker configurado la unicidad queda a cargo de la base de datos.
func lockNumbering(ctx context.Context, locker ports.Locker, companyID, kind string) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, "numbering:"+companyID+":"+kind, numberingLockTTL)
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}

// reserveNumber toma el siguiente consecutivo de la resolución activa y verifica rango y vigencia.
func reserveNumber(ctx context.Context, repo repository.BillingResolutionRepository, companyID, kind, prefix string, at time.Time) (*entity.BillingResolution, string, error) {
	res, err := repo.GetActive(ctx, companyID, kind, prefix)
	if err != nil {
		return nil, "", err
	}
	if res == nil {
		return nil, "", fmt.Errorf("%w: no hay resolución activa (%s, prefijo %q)", domain.ErrInvalidInput, kind, prefix)
	}
	n, err := repo.NextNumber(ctx, res.ID)
	if err != nil {
		return nil, "", err
	}
	if !res.Covers(n, at) {
		return nil, "", fmt.Errorf("%w: resolución %s, número %d, rango %d-%d vigente hasta %s",
			domain.ErrResolutionExhausted, res.ResolutionNumber, n, res.RangeFrom, res.RangeTo, res.DateTo.Format("2006-01-02"))
	}
	return res, strconv.FormatInt(n, 10), nil
}

// syncReceivable deja la fila de cartera igual al estado de la factura.
func syncReceivable(ctx context.Context, repo repository.ReceivableRepository, inv *entity.Invoice, now time.Time) (*entity.AccountReceivable, error) {
	current, err := repo.GetByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	ar := ledger.MirrorReceivable(inv, current, now)
	if ar.ID == "" {
		ar.ID = uuid.New().String()
	}
	if err := repo.Upsert(ctx, ar); err != nil {
		return nil, err
	}
	return ar, nil
}

// loadInvoiceForUpdate bloquea la factura y verifica que sea de la empresa.
func loadInvoiceForUpdate(ctx context.Context, repo repository.InvoiceRepository, companyID, id string) (*entity.Invoice, error) {
	inv, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	return ownedInvoice(inv, companyID, id)
}

func ownedInvoice(inv *entity.Invoice, companyID, id string) (*entity.Invoice, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}
