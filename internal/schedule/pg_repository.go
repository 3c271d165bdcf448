package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/db"
)

// SlotColumns is the column list ScanSlot expects.
const SlotColumns = `id, hcp_id, slot_date, start_time, end_time, occupancy, created_at, updated_at`

type PgRepository struct {
	runner *db.Runner
}

func NewPgRepository(runner *db.Runner) *PgRepository {
	return &PgRepository{runner: runner}
}

// ScanSlot reads one row selected with SlotColumns.
func ScanSlot(row pgx.Row) (*Slot, error) {
	var (
		s          Slot
		date       pgtype.Date
		start, end pgtype.Time
	)
	err := row.Scan(
		&s.ID,
		&s.HcpID,
		&date,
		&start,
		&end,
		&s.Occupancy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	if s.Date, err = db.DateValue(date); err != nil {
		return nil, err
	}
	if s.Start, err = db.TimeValue(start); err != nil {
		return nil, err
	}
	if s.End, err = db.TimeValue(end); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	defer rows.Close()

	result := []Slot{}
	for rows.Next() {
		s, err := ScanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return r.runner.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, pgTx{q: tx})
	})
}

func (r *PgRepository) SlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return pgTx{q: r.runner.Pool()}.SlotByID(ctx, id)
}

func (r *PgRepository) ListSlots(ctx context.Context, hcpID uuid.UUID, date civil.Date, freeOnly bool) ([]Slot, error) {
	query := `
		SELECT ` + SlotColumns + `
		FROM slots
		WHERE hcp_id = $1 AND slot_date = $2`
	args := []any{hcpID, db.DateParam(date)}
	if freeOnly {
		query += ` AND occupancy = $3`
		args = append(args, OccupancyFree)
	}
	query += ` ORDER BY start_time`

	rows, err := r.runner.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	return collectSlots(rows)
}

func (r *PgRepository) ListUpcoming(ctx context.Context, hcpID uuid.UUID, from civil.Date) ([]Slot, error) {
	rows, err := r.runner.Pool().Query(ctx, `
		SELECT `+SlotColumns+`
		FROM slots
		WHERE hcp_id = $1 AND slot_date >= $2
		ORDER BY slot_date, start_time
	`, hcpID, db.DateParam(from))
	if err != nil {
		return nil, fmt.Errorf("query upcoming slots: %w", err)
	}
	return collectSlots(rows)
}

type pgTx struct {
	q db.Querier
}

func (t pgTx) LockSchedule(ctx context.Context, hcpID uuid.UUID, date civil.Date) error {
	_, err := t.q.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		"schedule:"+hcpID.String()+":"+date.String())
	return err
}

func (t pgTx) SlotsOn(ctx context.Context, hcpID uuid.UUID, date civil.Date) ([]Slot, error) {
	rows, err := t.q.Query(ctx, `
		SELECT `+SlotColumns+`
		FROM slots
		WHERE hcp_id = $1 AND slot_date = $2
		ORDER BY start_time
	`, hcpID, db.DateParam(date))
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (t pgTx) SlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := t.q.QueryRow(ctx, `SELECT `+SlotColumns+` FROM slots WHERE id = $1`, id)
	return ScanSlot(row)
}

func (t pgTx) InsertSlot(ctx context.Context, s Slot) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO slots (id, hcp_id, slot_date, start_time, end_time, occupancy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.HcpID, db.DateParam(s.Date), db.TimeParam(s.Start), db.TimeParam(s.End),
		s.Occupancy, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		// The exclusion constraint backs up the schedule lock.
		if db.IsUniqueViolation(err) {
			return apperr.ConflictWith(ErrSlotConflict, []Conflict{}, "slot overlaps an existing slot")
		}
		return err
	}
	return nil
}

func (t pgTx) DeleteFreeSlot(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := t.q.Exec(ctx, `DELETE FROM slots WHERE id = $1 AND occupancy = $2`, id, OccupancyFree)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
