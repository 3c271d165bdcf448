package admission

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
)

const (
	roomColumns      = `id, room_number, room_type, capacity, charges_per_day, status, created_at, updated_at`
	admissionColumns = `id, patient_id, room_id, admit_date, discharge_date, total_fees, remaining_fees, created_at, updated_at`
)

var dialect = goqu.Dialect("postgres")

type PgRepository struct {
	runner *db.Runner
}

func NewPgRepository(runner *db.Runner) *PgRepository {
	return &PgRepository{runner: runner}
}

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	err := row.Scan(
		&r.ID,
		&r.RoomNumber,
		&r.Type,
		&r.Capacity,
		&r.ChargesPerDay,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &r, nil
}

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.RoomID,
		&a.AdmitDate,
		&a.DischargeDate,
		&a.TotalFees,
		&a.RemainingFees,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdmissionNotFound
		}
		return nil, err
	}
	a.AdmitDate = a.AdmitDate.UTC()
	if a.DischargeDate != nil {
		d := a.DischargeDate.UTC()
		a.DischargeDate = &d
	}
	return &a, nil
}

func loadPayments(ctx context.Context, q db.Querier, admissionIDs []uuid.UUID) (map[uuid.UUID][]Payment, error) {
	out := make(map[uuid.UUID][]Payment, len(admissionIDs))
	if len(admissionIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx, `
		SELECT admission_id, amount_paid, payment_method, payment_date, transaction_id, note
		FROM fee_payments
		WHERE admission_id = ANY($1)
		ORDER BY id
	`, admissionIDs)
	if err != nil {
		return nil, fmt.Errorf("query fee payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id uuid.UUID
			p  Payment
		)
		if err := rows.Scan(&id, &p.AmountPaid, &p.PaymentMethod, &p.PaymentDate, &p.TransactionID, &p.Note); err != nil {
			return nil, err
		}
		p.PaymentDate = p.PaymentDate.UTC()
		out[id] = append(out[id], p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func withPayments(ctx context.Context, q db.Querier, adm *Admission) (*Admission, error) {
	payments, err := loadPayments(ctx, q, []uuid.UUID{adm.ID})
	if err != nil {
		return nil, err
	}
	adm.FeePaidDetails = payments[adm.ID]
	if adm.FeePaidDetails == nil {
		adm.FeePaidDetails = []Payment{}
	}
	return adm, nil
}

func (r *PgRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return r.runner.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, pgTx{q: tx})
	})
}

func (r *PgRepository) AdmissionByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	pool := r.runner.Pool()
	adm, err := scanAdmission(pool.QueryRow(ctx, `SELECT `+admissionColumns+` FROM admissions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return withPayments(ctx, pool, adm)
}

func (r *PgRepository) ListActive(ctx context.Context) ([]Admission, error) {
	pool := r.runner.Pool()
	rows, err := pool.Query(ctx, `
		SELECT `+admissionColumns+`
		FROM admissions
		WHERE discharge_date IS NULL
		ORDER BY admit_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query active admissions: %w", err)
	}

	result := []Admission{}
	var ids []uuid.UUID
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, *a)
		ids = append(ids, a.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	payments, err := loadPayments(ctx, pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].FeePaidDetails = payments[result[i].ID]
		if result[i].FeePaidDetails == nil {
			result[i].FeePaidDetails = []Payment{}
		}
	}
	return result, nil
}

func (r *PgRepository) RoomByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	return scanRoom(r.runner.Pool().QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
}

func (r *PgRepository) ListRooms(ctx context.Context, f RoomFilter) ([]Room, error) {
	ds := dialect.Select(
		"id", "room_number", "room_type", "capacity", "charges_per_day",
		"status", "created_at", "updated_at",
	).From("rooms")

	if f.Type != "" {
		ds = ds.Where(goqu.Ex{"room_type": string(f.Type)})
	}
	if f.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(f.Status)})
	}
	ds = ds.Order(goqu.I("room_number").Asc())

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build room query: %w", err)
	}

	rows, err := r.runner.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	result := []Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type pgTx struct {
	q db.Querier
}

func (t pgTx) LockRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	return scanRoom(t.q.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, id))
}

func (t pgTx) CountActive(ctx context.Context, roomID uuid.UUID) (int, error) {
	var n int
	err := t.q.QueryRow(ctx, `
		SELECT count(*)
		FROM admissions
		WHERE room_id = $1 AND discharge_date IS NULL
	`, roomID).Scan(&n)
	return n, err
}

func (t pgTx) SetRoomStatus(ctx context.Context, roomID uuid.UUID, status RoomStatus, at time.Time) error {
	_, err := t.q.Exec(ctx, `UPDATE rooms SET status = $2, updated_at = $3 WHERE id = $1`, roomID, status, at)
	return err
}

func roomWriteError(err error, number string) error {
	if db.PgCode(err) == db.CodeUniqueViolation {
		return apperr.Conflict(ErrRoomNumberTaken, "room number %s already exists", number)
	}
	return err
}

func (t pgTx) InsertRoom(ctx context.Context, room Room) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, room.ID, room.RoomNumber, room.Type, room.Capacity, room.ChargesPerDay, room.Status, room.CreatedAt, room.UpdatedAt)
	return roomWriteError(err, room.RoomNumber)
}

func (t pgTx) UpdateRoom(ctx context.Context, room Room) error {
	_, err := t.q.Exec(ctx, `
		UPDATE rooms
		SET room_number = $2,
		    room_type = $3,
		    capacity = $4,
		    charges_per_day = $5,
		    status = $6,
		    updated_at = $7
		WHERE id = $1
	`, room.ID, room.RoomNumber, room.Type, room.Capacity, room.ChargesPerDay, room.Status, room.UpdatedAt)
	return roomWriteError(err, room.RoomNumber)
}

func (t pgTx) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	_, err := t.q.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	return err
}

func (t pgTx) ActiveAdmissionFor(ctx context.Context, patientID uuid.UUID) (*Admission, error) {
	return scanAdmission(t.q.QueryRow(ctx, `
		SELECT `+admissionColumns+`
		FROM admissions
		WHERE patient_id = $1 AND discharge_date IS NULL
	`, patientID))
}

func (t pgTx) InsertAdmission(ctx context.Context, a Admission) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO admissions (`+admissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.PatientID, a.RoomID, a.AdmitDate, a.DischargeDate, a.TotalFees, a.RemainingFees, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if db.PgCode(err) == db.CodeUniqueViolation {
			return apperr.Conflict(ErrPatientAdmitted, "patient %s is already admitted", a.PatientID)
		}
		return err
	}
	for _, p := range a.FeePaidDetails {
		if err := t.AppendPayment(ctx, a.ID, p); err != nil {
			return err
		}
	}
	return nil
}

func (t pgTx) LockAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	adm, err := scanAdmission(t.q.QueryRow(ctx, `SELECT `+admissionColumns+` FROM admissions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	return withPayments(ctx, t.q, adm)
}

func (t pgTx) AppendPayment(ctx context.Context, admissionID uuid.UUID, p Payment) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO fee_payments (admission_id, amount_paid, payment_method, payment_date, transaction_id, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, admissionID, p.AmountPaid, p.PaymentMethod, p.PaymentDate, p.TransactionID, p.Note)
	return err
}

func (t pgTx) UpdateFees(ctx context.Context, id uuid.UUID, total, remaining Money, at time.Time) error {
	_, err := t.q.Exec(ctx, `
		UPDATE admissions
		SET total_fees = $2,
		    remaining_fees = $3,
		    updated_at = $4
		WHERE id = $1 AND discharge_date IS NULL
	`, id, total, remaining, at)
	return err
}

func (t pgTx) MarkDischarged(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE admissions
		SET discharge_date = $2,
		    updated_at = $2
		WHERE id = $1 AND discharge_date IS NULL
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return apperr.State(ErrAlreadyDischarged, "admission %s is already discharged", id)
	}
	return nil
}
