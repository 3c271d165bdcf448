package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

type AppointmentRepository struct {
	store *Store
}

var _ appointment.Repository = (*AppointmentRepository)(nil)

func (r *AppointmentRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx appointment.Tx) error) error {
	return r.store.inTx(ctx, func(ctx context.Context) error {
		return fn(ctx, appointmentTx{st: &r.store.st})
	})
}

func (r *AppointmentRepository) AppointmentByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var (
		a  appointment.Appointment
		ok bool
	)
	r.store.read(func(st state) { a, ok = st.appointments[id] })
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *AppointmentRepository) SlotByID(ctx context.Context, id uuid.UUID) (*schedule.Slot, error) {
	return r.store.Slots().SlotByID(ctx, id)
}

func (r *AppointmentRepository) List(_ context.Context, f appointment.ListFilter) ([]appointment.Appointment, error) {
	out := []appointment.Appointment{}
	r.store.read(func(st state) {
		for _, a := range st.appointments {
			if f.Matches(a) {
				out = append(out, a)
			}
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].DateTime.Before(out[j].DateTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []appointment.Appointment{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

type appointmentTx struct {
	st *state
}

func (t appointmentTx) LockSlot(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	s, ok := t.st.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	return &s, nil
}

func (t appointmentTx) MarkSlotBooked(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s, ok := t.st.slots[id]
	if !ok || s.Occupancy != schedule.OccupancyFree {
		return false, nil
	}
	s.Occupancy = schedule.OccupancyBooked
	s.UpdatedAt = at
	t.st.slots[id] = s
	return true, nil
}

func (t appointmentTx) ReleaseSlot(_ context.Context, id uuid.UUID, at time.Time) error {
	s, ok := t.st.slots[id]
	if !ok {
		return nil
	}
	s.Occupancy = schedule.OccupancyFree
	s.UpdatedAt = at
	t.st.slots[id] = s
	return nil
}

func (t appointmentTx) InsertAppointment(_ context.Context, a appointment.Appointment) error {
	if a.SlotID != nil {
		for _, other := range t.st.appointments {
			if other.SlotID != nil && *other.SlotID == *a.SlotID && other.Status == appointment.StatusScheduled {
				return apperr.Conflict(appointment.ErrSlotUnavailable, "slot no longer available")
			}
		}
	}
	t.st.appointments[a.ID] = a
	return nil
}

func (t appointmentTx) LockAppointment(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := t.st.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (t appointmentTx) UpdateStatus(_ context.Context, id uuid.UUID, from, to appointment.Status, at time.Time) (*appointment.Appointment, error) {
	a, ok := t.st.appointments[id]
	if !ok || a.Status != from {
		return nil, appointment.ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = at
	t.st.appointments[id] = a
	return &a, nil
}
