package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/db"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

const appointmentColumns = `id, patient_id, hcp_id, slot_id, date_time, priority, status, notes, created_at, updated_at`

var dialect = goqu.Dialect("postgres")

type PgRepository struct {
	runner *db.Runner
}

func NewPgRepository(runner *db.Runner) *PgRepository {
	return &PgRepository{runner: runner}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.HcpID,
		&a.SlotID,
		&a.DateTime,
		&a.Priority,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.DateTime = a.DateTime.UTC()
	return &a, nil
}

func (r *PgRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return r.runner.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, pgTx{q: tx})
	})
}

func (r *PgRepository) AppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.runner.Pool().QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) SlotByID(ctx context.Context, id uuid.UUID) (*schedule.Slot, error) {
	row := r.runner.Pool().QueryRow(ctx, `SELECT `+schedule.SlotColumns+` FROM slots WHERE id = $1`, id)
	return schedule.ScanSlot(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	ds := dialect.Select(
		"id", "patient_id", "hcp_id", "slot_id", "date_time",
		"priority", "status", "notes", "created_at", "updated_at",
	).From("appointments")

	if f.HcpID != nil {
		ds = ds.Where(goqu.Ex{"hcp_id": f.HcpID.String()})
	}
	if f.PatientID != nil {
		ds = ds.Where(goqu.Ex{"patient_id": f.PatientID.String()})
	}
	if f.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(f.Status)})
	}
	if f.Priority != "" {
		ds = ds.Where(goqu.Ex{"priority": string(f.Priority)})
	}

	ds = ds.Order(goqu.I("date_time").Asc(), goqu.I("id").Asc())

	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.runner.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type pgTx struct {
	q db.Querier
}

func (t pgTx) LockSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error) {
	row := t.q.QueryRow(ctx, `SELECT `+schedule.SlotColumns+` FROM slots WHERE id = $1 FOR UPDATE`, id)
	return schedule.ScanSlot(row)
}

func (t pgTx) MarkSlotBooked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := t.q.Exec(ctx, `
		UPDATE slots
		SET occupancy = $2,
		    updated_at = $3
		WHERE id = $1
		  AND occupancy = $4
	`, id, schedule.OccupancyBooked, at, schedule.OccupancyFree)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t pgTx) ReleaseSlot(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := t.q.Exec(ctx, `
		UPDATE slots
		SET occupancy = $2,
		    updated_at = $3
		WHERE id = $1
	`, id, schedule.OccupancyFree, at)
	return err
}

func (t pgTx) InsertAppointment(ctx context.Context, a Appointment) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.PatientID, a.HcpID, a.SlotID, a.DateTime, a.Priority, a.Status, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict(ErrSlotUnavailable, "slot no longer available")
		}
		return err
	}
	return nil
}

func (t pgTx) LockAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := t.q.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
	return scanAppointment(row)
}

func (t pgTx) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) (*Appointment, error) {
	row := t.q.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = $4
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, to, from, at)
	return scanAppointment(row)
}
