package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const patientColumns = `id, name, email, contact, address, gender, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Contact,
		&p.Address,
		&p.Gender,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanClinician(row pgx.Row) (*Clinician, error) {
	var c Clinician
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Specialty,
		&c.Email,
		&c.Contact,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicianNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PgRepository) Patient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) Clinician(ctx context.Context, id uuid.UUID) (*Clinician, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, email, contact, created_at, updated_at
		FROM clinicians
		WHERE id = $1
	`, id)
	return scanClinician(row)
}

func (r *PgRepository) PatientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Patient, error) {
	out := make(map[uuid.UUID]Patient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgRepository) SavePatient(ctx context.Context, p Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, email, contact, address, gender, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    contact = EXCLUDED.contact,
		    address = EXCLUDED.address,
		    gender = EXCLUDED.gender,
		    updated_at = now()
	`, p.ID, p.Name, p.Email, p.Contact, p.Address, p.Gender)
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}

func (r *PgRepository) SaveClinician(ctx context.Context, c Clinician) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clinicians (id, name, specialty, email, contact, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    specialty = EXCLUDED.specialty,
		    email = EXCLUDED.email,
		    contact = EXCLUDED.contact,
		    updated_at = now()
	`, c.ID, c.Name, c.Specialty, c.Email, c.Contact)
	if err != nil {
		return fmt.Errorf("save clinician: %w", err)
	}
	return nil
}
