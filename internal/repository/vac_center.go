package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/vacq/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VacCenterRepository struct {
	pool *pgxpool.Pool
}

func NewVacCenterRepository(pool *pgxpool.Pool) *VacCenterRepository {
	return &VacCenterRepository{pool: pool}
}

// List returns every vaccine center ordered by id.
func (r *VacCenterRepository) List(ctx context.Context) ([]model.VaccineCenter, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, tel FROM vac_centers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list vaccine centers: %w", err)
	}

	centers, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.VaccineCenter])
	if err != nil {
		return nil, fmt.Errorf("scan vaccine centers: %w", err)
	}

	return centers, nil
}
