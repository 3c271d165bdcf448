package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotUnavailable     = errors.New("slot no longer available")
	ErrSlotBeingBooked     = errors.New("slot is currently being booked")
	ErrTerminalStatus      = errors.New("appointment is already closed")
)

// Tx holds the writes of booking and status changes.
type Tx interface {
	// LockSlot loads the slot and holds its row lock until the transaction
	// ends. Returns schedule.ErrSlotNotFound when missing.
	LockSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
	// MarkSlotBooked flips a Free slot to Booked and reports whether it did.
	MarkSlotBooked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ReleaseSlot(ctx context.Context, id uuid.UUID, at time.Time) error

	InsertAppointment(ctx context.Context, a Appointment) error
	LockAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpdateStatus moves an appointment from one status to another and
	// returns ErrAppointmentNotFound when it is not in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) (*Appointment, error)
}

type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	AppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SlotByID(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
	// List orders by date_time then id.
	List(ctx context.Context, f ListFilter) ([]Appointment, error)
}
