package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/vacq/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = "id, appt_date, user_id, hospital_id, created_at"

// appointmentWithHospital selects an appointment joined to its hospital
// summary; scanAppointment reads it.
const appointmentWithHospital = `
	SELECT a.id, a.appt_date, a.user_id, a.hospital_id, a.created_at,
	       h.name, h.province, h.tel
	FROM appointments a
	JOIN hospitals h ON h.id = a.hospital_id`

func scanAppointment(row pgx.CollectableRow) (model.Appointment, error) {
	var (
		a model.Appointment
		h model.HospitalSummary
	)

	err := row.Scan(&a.ID, &a.ApptDate, &a.User, &a.HospitalID, &a.CreatedAt, &h.Name, &h.Province, &h.Tel)
	if err != nil {
		return a, err
	}

	h.ID = a.HospitalID
	a.Hospital = &h
	return a, nil
}

// AppointmentFilter narrows a listing. Empty fields do not filter.
type AppointmentFilter struct {
	UserID     string
	HospitalID string
}

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// List returns matching appointments with their hospital, soonest first.
func (r *AppointmentRepository) List(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	var (
		clauses []string
		args    []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if f.HospitalID != "" {
		args = append(args, f.HospitalID)
		clauses = append(clauses, fmt.Sprintf("a.hospital_id = $%d", len(args)))
	}

	sql := appointmentWithHospital
	if len(clauses) > 0 {
		sql += " WHERE " + strings.Join(clauses, " AND ")
	}
	sql += " ORDER BY a.appt_date, a.id"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	appts, err := pgx.CollectRows(rows, scanAppointment)
	if err != nil {
		return nil, fmt.Errorf("scan appointments: %w", err)
	}

	return appts, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	rows, err := r.pool.Query(ctx, appointmentWithHospital+" WHERE a.id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAppointment)
	if err != nil {
		return nil, notFound(err, "get appointment")
	}

	return &a, nil
}

// Create inserts the appointment. When maxPerUser is positive the user's
// existing bookings are counted under a per-user advisory lock and
// ErrLimitReached is returned once the cap is met, so concurrent requests
// cannot overshoot it.
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment, maxPerUser int) (*model.Appointment, error) {
	var created model.Appointment

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if maxPerUser > 0 {
			if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", a.User); err != nil {
				return fmt.Errorf("lock user appointments: %w", err)
			}

			var count int
			if err := tx.QueryRow(ctx, "SELECT count(*) FROM appointments WHERE user_id = $1", a.User).Scan(&count); err != nil {
				return fmt.Errorf("count user appointments: %w", err)
			}
			if count >= maxPerUser {
				return ErrLimitReached
			}
		}

		rows, err := tx.Query(ctx, `
			INSERT INTO appointments (appt_date, user_id, hospital_id)
			VALUES ($1, $2, $3)
			RETURNING `+appointmentColumns,
			a.ApptDate, a.User, a.HospitalID,
		)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		if created, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Appointment]); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// Update locks the appointment, lets apply change it and writes it back.
// apply sees the populated hospital and may reject the change.
func (r *AppointmentRepository) Update(ctx context.Context, id string, apply func(*model.Appointment) error) (*model.Appointment, error) {
	var updated model.Appointment

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, appointmentWithHospital+" WHERE a.id = $1 FOR UPDATE OF a", id)
		if err != nil {
			return fmt.Errorf("lock appointment: %w", err)
		}

		current, err := pgx.CollectExactlyOneRow(rows, scanAppointment)
		if err != nil {
			return notFound(err, "lock appointment")
		}

		updated = current
		if err := apply(&updated); err != nil {
			return err
		}

		if updated.ApptDate.Equal(current.ApptDate) {
			return nil
		}

		if _, err := tx.Exec(ctx, "UPDATE appointments SET appt_date = $2 WHERE id = $1", id, updated.ApptDate); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes the appointment when check accepts the stored row.
func (r *AppointmentRepository) Delete(ctx context.Context, id string, check func(*model.Appointment) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, appointmentWithHospital+" WHERE a.id = $1 FOR UPDATE OF a", id)
		if err != nil {
			return fmt.Errorf("lock appointment: %w", err)
		}

		current, err := pgx.CollectExactlyOneRow(rows, scanAppointment)
		if err != nil {
			return notFound(err, "lock appointment")
		}

		if err := check(&current); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, "DELETE FROM appointments WHERE id = $1", id); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		return nil
	})
}
