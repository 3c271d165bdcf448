package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/civil"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrSlotBooked   = errors.New("slot is booked")
	ErrSlotConflict = errors.New("slot overlaps an existing slot")
)

// Tx is the set of writes that must happen under the schedule lock.
type Tx interface {
	// LockSchedule serialises slot creation for one clinician and day until
	// the transaction ends.
	LockSchedule(ctx context.Context, hcpID uuid.UUID, date civil.Date) error
	SlotsOn(ctx context.Context, hcpID uuid.UUID, date civil.Date) ([]Slot, error)
	SlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	InsertSlot(ctx context.Context, s Slot) error
	// DeleteFreeSlot reports whether a Free slot with id existed and was removed.
	DeleteFreeSlot(ctx context.Context, id uuid.UUID) (bool, error)
}

type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	SlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListSlots(ctx context.Context, hcpID uuid.UUID, date civil.Date, freeOnly bool) ([]Slot, error)
	ListUpcoming(ctx context.Context, hcpID uuid.UUID, from civil.Date) ([]Slot, error)
}
