package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/events"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

// Book creates a Scheduled appointment. A normal booking claims its slot;
// an emergency booking needs no slot.
func (s *Service) Book(ctx context.Context, req Booking) (*Appointment, error) {
	var (
		appt *Appointment
		err  error
	)
	switch b := req.(type) {
	case NormalBooking:
		appt, err = s.bookNormal(ctx, b)
	case EmergencyBooking:
		appt, err = s.bookEmergency(ctx, b)
	default:
		err = apperr.Validation("unsupported booking type %T", req)
	}

	priority := ""
	if req != nil {
		priority = string(req.Priority())
	}
	s.metrics.ObserveBooking(priority, bookingOutcome(err))

	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, events.AppointmentBooked, appt)
	return appt, nil
}

func (s *Service) bookNormal(ctx context.Context, b NormalBooking) (*Appointment, error) {
	if b.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	if b.SlotID == uuid.Nil {
		return nil, apperr.Validation("slot_id is required for a Normal booking")
	}

	var created *Appointment

	// The Redis lock turns most races away early with a retryable error, since
	// the holder may still fail and leave the slot Free. The row lock and the
	// conditional update below are what make the booking exclusive.
	err := s.locker.WithLock(ctx, redisclient.SlotKey(b.SlotID), func(lockCtx context.Context) error {
		return s.repo.InTx(lockCtx, func(ctx context.Context, tx Tx) error {
			slot, err := tx.LockSlot(ctx, b.SlotID)
			if err != nil {
				if errors.Is(err, schedule.ErrSlotNotFound) {
					return apperr.NotFound(err, "slot %s not found", b.SlotID)
				}
				return fmt.Errorf("lock slot: %w", err)
			}
			if b.HcpID != uuid.Nil && slot.HcpID != b.HcpID {
				return apperr.Validation("slot %s does not belong to clinician %s", b.SlotID, b.HcpID)
			}
			if !b.Date.IsZero() && b.Date != slot.Date {
				return apperr.Validation("date %s does not match slot date %s", b.Date, slot.Date)
			}
			if slot.Occupancy != schedule.OccupancyFree {
				return apperr.Conflict(ErrSlotUnavailable, "slot no longer available")
			}

			now := s.now()
			ok, err := tx.MarkSlotBooked(ctx, slot.ID, now)
			if err != nil {
				return fmt.Errorf("mark slot booked: %w", err)
			}
			if !ok {
				return apperr.Conflict(ErrSlotUnavailable, "slot no longer available")
			}

			slotID := slot.ID
			appt := Appointment{
				ID:        uuid.New(),
				PatientID: b.PatientID,
				HcpID:     slot.HcpID,
				SlotID:    &slotID,
				DateTime:  slot.StartsAt(s.loc),
				Priority:  PriorityNormal,
				Status:    StatusScheduled,
				Notes:     b.Notes,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.InsertAppointment(ctx, appt); err != nil {
				return fmt.Errorf("insert appointment: %w", err)
			}
			created = &appt
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, apperr.Retryable(ErrSlotBeingBooked, "slot %s is being booked by another request, retry shortly", b.SlotID)
		}
		return nil, err
	}
	return created, nil
}

func (s *Service) bookEmergency(ctx context.Context, b EmergencyBooking) (*Appointment, error) {
	if b.PatientID == uuid.Nil || b.HcpID == uuid.Nil {
		return nil, apperr.Validation("patient_id and hcp_id are required")
	}

	now := s.now()
	at := now
	switch {
	case b.DateTime != nil && !b.DateTime.IsZero():
		at = b.DateTime.UTC()
	case !b.Date.IsZero() && b.Date != civil.DateOf(now.In(s.loc)):
		at = b.Date.In(s.loc)
	}

	appt := Appointment{
		ID:        uuid.New(),
		PatientID: b.PatientID,
		HcpID:     b.HcpID,
		DateTime:  at,
		Priority:  PriorityEmergency,
		Status:    StatusScheduled,
		Notes:     b.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertAppointment(ctx, appt); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func bookingOutcome(err error) string {
	switch apperr.KindOf(err) {
	case "":
		if err == nil {
			return metrics.OutcomeBooked
		}
		return metrics.OutcomeError
	case apperr.KindConflict:
		return metrics.OutcomeConflict
	case apperr.KindRetryable:
		return metrics.OutcomeBusy
	case apperr.KindValidation, apperr.KindNotFound:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
