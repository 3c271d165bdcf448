package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/events"
)

// UpdateStatus is the single entry point for status changes requested over
// the API. Only Completed and Cancelled can be requested.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target Status) (*Appointment, error) {
	switch target {
	case StatusCompleted:
		return s.Complete(ctx, id)
	case StatusCancelled:
		return s.Cancel(ctx, id)
	default:
		return nil, apperr.Validation("status must be %q or %q, got %q", StatusCompleted, StatusCancelled, target)
	}
}

// Complete closes a Scheduled appointment. The slot stays Booked.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.transition(ctx, id, StatusCompleted)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, events.AppointmentCompleted, appt)
	return appt, nil
}

// Cancel closes a Scheduled appointment and frees its slot in the same
// transaction.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.transition(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, events.AppointmentCancelled, appt)
	return appt, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	var updated *Appointment

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.LockAppointment(ctx, id)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return apperr.NotFound(err, "appointment %s not found", id)
			}
			return fmt.Errorf("lock appointment: %w", err)
		}
		if current.Status != StatusScheduled {
			return apperr.State(ErrTerminalStatus, "appointment %s is %s and cannot become %s", id, current.Status, to)
		}

		now := s.now()
		appt, err := tx.UpdateStatus(ctx, id, StatusScheduled, to, now)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return apperr.State(ErrTerminalStatus, "appointment %s is no longer scheduled", id)
			}
			return fmt.Errorf("update status: %w", err)
		}

		if to == StatusCancelled && appt.SlotID != nil {
			if err := tx.ReleaseSlot(ctx, *appt.SlotID, now); err != nil {
				return fmt.Errorf("release slot: %w", err)
			}
		}
		updated = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(to))
	return updated, nil
}
