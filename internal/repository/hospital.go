package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var hospitalColumns = strings.Join(model.HospitalSchema.Columns(), ", ")

type HospitalRepository struct {
	pool *pgxpool.Pool
}

func NewHospitalRepository(pool *pgxpool.Pool) *HospitalRepository {
	return &HospitalRepository{pool: pool}
}

// List returns one page of hospitals matching spec, each with its
// appointments, and the number of hospitals matching the filter.
//
// Count and page are read in one repeatable-read snapshot so they agree.
func (r *HospitalRepository) List(ctx context.Context, spec *query.Spec) ([]model.Hospital, int, error) {
	where, args := spec.WhereSQL(1)

	hospitals := []model.Hospital{}
	var total int

	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, r.pool, txOpts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, "SELECT count(*) FROM hospitals WHERE "+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count hospitals: %w", err)
		}

		if spec.Offset() >= total {
			return nil
		}

		sql := fmt.Sprintf(
			"SELECT %s FROM hospitals WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
			hospitalColumns, where, spec.OrderSQL(), len(args)+1, len(args)+2,
		)

		rows, err := tx.Query(ctx, sql, append(args, spec.Limit, spec.Offset())...)
		if err != nil {
			return fmt.Errorf("list hospitals: %w", err)
		}

		if hospitals, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Hospital]); err != nil {
			return fmt.Errorf("scan hospitals: %w", err)
		}

		return populateAppointments(ctx, tx, hospitals)
	})
	if err != nil {
		return nil, 0, err
	}

	return hospitals, total, nil
}

// populateAppointments attaches every appointment of the given hospitals.
// Hospitals without bookings get an empty, non-nil slice.
func populateAppointments(ctx context.Context, q querier, hospitals []model.Hospital) error {
	if len(hospitals) == 0 {
		return nil
	}

	ids := make([]string, len(hospitals))
	for i := range hospitals {
		ids[i] = hospitals[i].ID
		hospitals[i].Appointments = []model.Appointment{}
	}

	rows, err := q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE hospital_id = ANY($1::uuid[])
		ORDER BY appt_date, id`, ids)
	if err != nil {
		return fmt.Errorf("populate appointments: %w", err)
	}

	appts, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Appointment])
	if err != nil {
		return fmt.Errorf("scan appointments: %w", err)
	}

	byHospital := make(map[string][]model.Appointment, len(hospitals))
	for _, a := range appts {
		byHospital[a.HospitalID] = append(byHospital[a.HospitalID], a)
	}
	for i := range hospitals {
		if list, ok := byHospital[hospitals[i].ID]; ok {
			hospitals[i].Appointments = list
		}
	}

	return nil
}

func (r *HospitalRepository) GetByID(ctx context.Context, id string) (*model.Hospital, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+hospitalColumns+" FROM hospitals WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get hospital: %w", err)
	}

	h, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Hospital])
	if err != nil {
		return nil, notFound(err, "get hospital")
	}

	return &h, nil
}

func (r *HospitalRepository) Create(ctx context.Context, h *model.Hospital) (*model.Hospital, error) {
	rows, err := r.pool.Query(ctx, `
		INSERT INTO hospitals (name, address, district, province, postal_code, tel, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+hospitalColumns,
		h.Name, h.Address, h.District, h.Province, h.PostalCode, h.Tel, h.Region,
	)
	if err != nil {
		return nil, fmt.Errorf("create hospital: %w", err)
	}

	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Hospital])
	if err != nil {
		return nil, fmt.Errorf("create hospital: %w", err)
	}

	return &created, nil
}

// Update locks the row, lets apply change it and writes it back.
//
// When apply leaves every column as it was nothing is written and updatedAt
// keeps its value, so repeating an update is a no-op.
func (r *HospitalRepository) Update(ctx context.Context, id string, apply func(*model.Hospital) error) (*model.Hospital, error) {
	var updated model.Hospital

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "SELECT "+hospitalColumns+" FROM hospitals WHERE id = $1 FOR UPDATE", id)
		if err != nil {
			return fmt.Errorf("lock hospital: %w", err)
		}

		current, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Hospital])
		if err != nil {
			return notFound(err, "lock hospital")
		}

		updated = current
		if err := apply(&updated); err != nil {
			return err
		}

		if sameColumns(&updated, &current) {
			return nil
		}

		rows, err = tx.Query(ctx, `
			UPDATE hospitals
			SET name = $2, address = $3, district = $4, province = $5,
			    postal_code = $6, tel = $7, region = $8, updated_at = now()
			WHERE id = $1
			RETURNING `+hospitalColumns,
			id, updated.Name, updated.Address, updated.District, updated.Province,
			updated.PostalCode, updated.Tel, updated.Region,
		)
		if err != nil {
			return fmt.Errorf("update hospital: %w", err)
		}

		if updated, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Hospital]); err != nil {
			return fmt.Errorf("update hospital: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// sameColumns compares the writable columns of two hospitals.
func sameColumns(a, b *model.Hospital) bool {
	return a.Name == b.Name &&
		a.Address == b.Address &&
		a.District == b.District &&
		a.Province == b.Province &&
		a.PostalCode == b.PostalCode &&
		a.Tel == b.Tel &&
		a.Region == b.Region
}

// Delete removes the hospital and its appointments in one transaction.
func (r *HospitalRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM appointments WHERE hospital_id = $1", id); err != nil {
			return fmt.Errorf("delete hospital appointments: %w", err)
		}

		tag, err := tx.Exec(ctx, "DELETE FROM hospitals WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete hospital: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
