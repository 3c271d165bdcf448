package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/events"
)

type Service struct {
	repo     Repository
	events   *events.Recorder
	maxWeeks int
	now      func() time.Time
}

func NewService(repo Repository, rec *events.Recorder, cfg config.Config) *Service {
	maxWeeks := cfg.MaxRecurrence
	if maxWeeks <= 0 {
		maxWeeks = 52
	}
	return &Service{
		repo:     repo,
		events:   rec,
		maxWeeks: maxWeeks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddSlot creates a Free slot. Any existing slot of the same clinician and day
// whose interval intersects the new one blocks it, booked or not.
func (s *Service) AddSlot(ctx context.Context, req AddSlotRequest) (*Slot, error) {
	if err := validateInterval(req.HcpID, req.Start, req.End); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, apperr.Validation("slot_date is required")
	}

	now := s.now()
	slot := Slot{
		ID:        uuid.New(),
		HcpID:     req.HcpID,
		Date:      req.Date,
		Start:     req.Start,
		End:       req.End,
		Occupancy: OccupancyFree,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.LockSchedule(ctx, slot.HcpID, slot.Date); err != nil {
			return fmt.Errorf("lock schedule: %w", err)
		}
		existing, err := tx.SlotsOn(ctx, slot.HcpID, slot.Date)
		if err != nil {
			return fmt.Errorf("load slots: %w", err)
		}
		if conflicts := overlapping(existing, slot); len(conflicts) > 0 {
			return apperr.ConflictWith(ErrSlotConflict, conflicts,
				"slot overlaps %d existing slot(s)", len(conflicts))
		}
		if err := tx.InsertSlot(ctx, slot); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Stringer("slot_id", slot.ID).
		Stringer("hcp_id", slot.HcpID).
		Stringer("slot_date", slot.Date).
		Msg("slot created")
	s.events.Record(ctx, events.SlotCreated, events.AggregateSlot, slot.ID, slot.Conflict())

	return &slot, nil
}

// DeleteSlot removes a Free slot. Booked slots are kept; their appointment has
// to be cancelled first.
func (s *Service) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	var deleted *Slot

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		slot, err := tx.SlotByID(ctx, slotID)
		if err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return apperr.NotFound(err, "slot %s not found", slotID)
			}
			return fmt.Errorf("load slot: %w", err)
		}

		ok, err := tx.DeleteFreeSlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		if !ok {
			return apperr.State(ErrSlotBooked, "slot %s is booked and cannot be deleted", slotID)
		}
		deleted = slot
		return nil
	})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Stringer("slot_id", slotID).Msg("slot deleted")
	s.events.Record(ctx, events.SlotDeleted, events.AggregateSlot, slotID, deleted.Conflict())
	return nil
}

// ListSlots returns the clinician's slots on date ordered by start time.
func (s *Service) ListSlots(ctx context.Context, hcpID uuid.UUID, date civil.Date, freeOnly bool) ([]Slot, error) {
	if hcpID == uuid.Nil {
		return nil, apperr.Validation("hcp_id is required")
	}
	if date.IsZero() {
		return nil, apperr.Validation("date is required")
	}
	slots, err := s.repo.ListSlots(ctx, hcpID, date, freeOnly)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// ListUpcoming returns every slot from the given day onward. A zero from means
// today.
func (s *Service) ListUpcoming(ctx context.Context, hcpID uuid.UUID, from civil.Date) ([]Slot, error) {
	if hcpID == uuid.Nil {
		return nil, apperr.Validation("hcp_id is required")
	}
	if from.IsZero() {
		from = civil.DateOf(s.now())
	}
	slots, err := s.repo.ListUpcoming(ctx, hcpID, from)
	if err != nil {
		return nil, fmt.Errorf("list upcoming slots: %w", err)
	}
	return slots, nil
}

func (s *Service) GetSlot(ctx context.Context, slotID uuid.UUID) (*Slot, error) {
	slot, err := s.repo.SlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, apperr.NotFound(err, "slot %s not found", slotID)
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}
	return slot, nil
}

func validateInterval(hcpID uuid.UUID, start, end civil.TimeOfDay) error {
	if hcpID == uuid.Nil {
		return apperr.Validation("hcp_id is required")
	}
	if !start.Valid() || !end.Valid() {
		return apperr.Validation("start_time and end_time must be within one day")
	}
	if end <= start {
		return apperr.Validation("end_time %s must be after start_time %s", end, start)
	}
	return nil
}

func overlapping(existing []Slot, candidate Slot) []Conflict {
	var out []Conflict
	for _, e := range existing {
		if e.Overlaps(candidate) {
			out = append(out, e.Conflict())
		}
	}
	return out
}
