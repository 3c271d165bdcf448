// Package directory is the read side of the patient and clinician registry.
// The registry itself is managed elsewhere; this service only resolves ids to
// the names and contact details shown on appointments and bills.
package directory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrClinicianNotFound = errors.New("clinician not found")
)

type Patient struct {
	ID        uuid.UUID `json:"patient_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Contact   *string   `json:"contact,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Gender    *string   `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Clinician struct {
	ID        uuid.UUID `json:"hcp_id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Contact   *string   `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Reader interface {
	Patient(ctx context.Context, id uuid.UUID) (*Patient, error)
	Clinician(ctx context.Context, id uuid.UUID) (*Clinician, error)
	// PatientsByIDs returns the patients that exist; unknown ids are skipped.
	PatientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Patient, error)
}

// Writer is used by the seed tool only.
type Writer interface {
	SavePatient(ctx context.Context, p Patient) error
	SaveClinician(ctx context.Context, c Clinician) error
}

// Memory is an in-process directory for the memory storage driver and tests.
type Memory struct {
	mu         sync.RWMutex
	patients   map[uuid.UUID]Patient
	clinicians map[uuid.UUID]Clinician
}

func NewMemory() *Memory {
	return &Memory{
		patients:   make(map[uuid.UUID]Patient),
		clinicians: make(map[uuid.UUID]Clinician),
	}
}

func (m *Memory) SavePatient(_ context.Context, p Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	m.patients[p.ID] = p
	return nil
}

func (m *Memory) SaveClinician(_ context.Context, c Clinician) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&c.CreatedAt, &c.UpdatedAt)
	m.clinicians[c.ID] = c
	return nil
}

func (m *Memory) Patient(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m *Memory) Clinician(_ context.Context, id uuid.UUID) (*Clinician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clinicians[id]
	if !ok {
		return nil, ErrClinicianNotFound
	}
	return &c, nil
}

func (m *Memory) PatientsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]Patient, len(ids))
	for _, id := range ids {
		if p, ok := m.patients[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}
