package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ repository.BillingResolutionRepository = (*BillingResolutionRepo)(nil)

// BillingResolutionRepo implementa BillingResolutionRepository sobre PostgreSQL.
type BillingResolutionRepo struct {
	q Querier
}

// NewBillingResolutionRepository construye el repositorio. Pasar pool o tx (Querier).
func NewBillingResolutionRepository(q Querier) *BillingResolutionRepo {
	return &BillingResolutionRepo{q: q}
}

const resolutionColumns = `id, company_id, kind, resolution_number, prefix, range_from, range_to, next_number,
	date_from, date_to, technical_key, is_active, created_at, updated_at`

func scanResolution(row scanner) (*entity.BillingResolution, error) {
	var res entity.BillingResolution
	err := row.Scan(
		&res.ID, &res.CompanyID, &res.Kind, &res.ResolutionNumber, &res.Prefix,
		&res.RangeFrom, &res.RangeTo, &res.NextNumber,
		&res.DateFrom, &res.DateTo, &res.TechnicalKey,
		&res.IsActive, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *BillingResolutionRepo) Create(ctx context.Context, res *entity.BillingResolution) error {
	const q = `
		INSERT INTO billing_resolutions (` + resolutionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`
	_, err := r.q.Exec(ctx, q,
		res.ID, res.CompanyID, res.Kind, res.ResolutionNumber, res.Prefix,
		res.RangeFrom, res.RangeTo, res.NextNumber, res.DateFrom, res.DateTo, res.TechnicalKey, res.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya hay una resolución activa para %s %q", domain.ErrDuplicate, res.Kind, res.Prefix)
		}
		return fmt.Errorf("insert billing_resolution: %w", err)
	}
	return nil
}

func (r *BillingResolutionRepo) GetByID(ctx context.Context, id string) (*entity.BillingResolution, error) {
	res, err := scanResolution(r.q.QueryRow(ctx, `SELECT `+resolutionColumns+` FROM billing_resolutions WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get billing_resolution: %w", err)
	}
	return res, nil
}

// GetActive es la consulta crítica del flujo de numeración. nil, nil si no hay resolución activa.
// La vigencia la valida quien numera, para distinguir "sin resolución" de "resolución vencida".
func (r *BillingResolutionRepo) GetActive(ctx context.Context, companyID, kind, prefix string) (*entity.BillingResolution, error) {
	const q = `
		SELECT ` + resolutionColumns + `
		FROM billing_resolutions
		WHERE company_id = $1
		  AND kind       = $2
		  AND ($3 = '' OR prefix = $3)
		  AND is_active  = true
		ORDER BY date_from DESC
		LIMIT 1`
	res, err := scanResolution(r.q.QueryRow(ctx, q, companyID, kind, prefix))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active billing_resolution: %w", err)
	}
	return res, nil
}

func (r *BillingResolutionRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.BillingResolution, error) {
	const q = `
		SELECT ` + resolutionColumns + `
		FROM billing_resolutions
		WHERE company_id = $1
		ORDER BY kind, date_from DESC`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list billing_resolutions: %w", err)
	}
	defer rows.Close()
	list := []*entity.BillingResolution{}
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing_resolution: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// Update no toca next_number: el consecutivo solo avanza con NextNumber.
func (r *BillingResolutionRepo) Update(ctx context.Context, res *entity.BillingResolution) error {
	const q = `
		UPDATE billing_resolutions
		SET resolution_number = $2, prefix = $3, range_from = $4, range_to = $5,
		    date_from = $6, date_to = $7, technical_key = $8, is_active = $9, updated_at = now()
		WHERE id = $1`
	_, err := r.q.Exec(ctx, q,
		res.ID, res.ResolutionNumber, res.Prefix,
		res.RangeFrom, res.RangeTo, res.DateFrom, res.DateTo, res.TechnicalKey, res.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya hay una resolución activa para %s %q", domain.ErrDuplicate, res.Kind, res.Prefix)
		}
		return fmt.Errorf("update billing_resolution: %w", err)
	}
	return nil
}

// NextNumber avanza el consecutivo en un solo UPDATE; la fila queda bloqueada hasta el fin de la tx.
func (r *BillingResolutionRepo) NextNumber(ctx context.Context, resolutionID string) (int64, error) {
	const q = `
		UPDATE billing_resolutions
		SET next_number = next_number + 1, updated_at = now()
		WHERE id = $1
		RETURNING next_number - 1`
	var n int64
	if err := r.q.QueryRow(ctx, q, resolutionID).Scan(&n); err != nil {
		if isNoRows(err) {
			return 0, fmt.Errorf("%w: resolución %s", domain.ErrNotFound, resolutionID)
		}
		return 0, fmt.Errorf("next number: %w", err)
	}
	return n, nil
}
