// Package memstore keeps every aggregate in process memory. Transactions are
// serialised by one mutex and rolled back by restoring a snapshot taken when
// they began.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

type state struct {
	slots        map[uuid.UUID]schedule.Slot
	appointments map[uuid.UUID]appointment.Appointment
	rooms        map[uuid.UUID]admission.Room
	admissions   map[uuid.UUID]admission.Admission
}

func (s state) clone() state {
	return state{
		slots:        maps.Clone(s.slots),
		appointments: maps.Clone(s.appointments),
		rooms:        maps.Clone(s.rooms),
		admissions:   maps.Clone(s.admissions),
	}
}

type Store struct {
	mu sync.Mutex
	st state
}

func New() *Store {
	return &Store{st: state{
		slots:        make(map[uuid.UUID]schedule.Slot),
		appointments: make(map[uuid.UUID]appointment.Appointment),
		rooms:        make(map[uuid.UUID]admission.Room),
		admissions:   make(map[uuid.UUID]admission.Admission),
	}}
}

// inTx runs fn with the store locked. Any error restores the state as it was
// before fn ran.
func (s *Store) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) read(fn func(st state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

func (s *Store) Slots() *SlotRepository { return &SlotRepository{store: s} }

func (s *Store) Appointments() *AppointmentRepository { return &AppointmentRepository{store: s} }

func (s *Store) Admissions() *AdmissionRepository { return &AdmissionRepository{store: s} }
