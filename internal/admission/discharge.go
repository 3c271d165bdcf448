package admission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/events"
)

// Discharge closes an admission, frees its bed and returns the final bill.
// Fees are reported as recorded; nothing is recomputed.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID) (*BillingSummary, error) {
	var (
		adm  *Admission
		room *Room
	)

	err := s.withAdmissionLock(ctx, id, func(ctx context.Context) error {
		return s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
			var err error
			adm, err = tx.LockAdmission(ctx, id)
			if err != nil {
				return notFoundAdmission(err, id)
			}
			if !adm.Active() {
				return apperr.State(ErrAlreadyDischarged, "admission %s is already discharged", id)
			}

			room, err = tx.LockRoom(ctx, adm.RoomID)
			if err != nil {
				return notFoundRoom(err, adm.RoomID)
			}
			occupants, err := tx.CountActive(ctx, room.ID)
			if err != nil {
				return fmt.Errorf("count occupants: %w", err)
			}

			now := s.now()
			if err := tx.MarkDischarged(ctx, id, now); err != nil {
				return fmt.Errorf("mark discharged: %w", err)
			}
			room.Status = room.StatusFor(occupants - 1)
			room.UpdatedAt = now
			if err := tx.SetRoomStatus(ctx, room.ID, room.Status, now); err != nil {
				return fmt.Errorf("update room status: %w", err)
			}

			adm.DischargeDate = &now
			adm.UpdatedAt = now
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Stringer("admission_id", id).
		Stringer("room_id", room.ID).
		Stringer("remaining_fees", adm.RemainingFees).
		Msg("patient discharged")
	s.events.Record(ctx, events.PatientDischarged, events.AggregateAdmission, id, map[string]any{
		"patient_id":     adm.PatientID,
		"room_id":        adm.RoomID,
		"total_fees":     adm.TotalFees,
		"fee_paid":       adm.Paid(),
		"remaining_fees": adm.RemainingFees,
	})

	// The discharge is committed; a directory outage only drops the name.
	patient, err := s.patient(ctx, adm.PatientID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Stringer("admission_id", id).
			Msg("discharge summary without patient details")
	}
	return summarize(adm, room, patient), nil
}

// StayDays counts calendar days between admission and discharge; a same-day
// stay is one day.
func StayDays(adm *Admission) int {
	if adm.DischargeDate == nil {
		return 0
	}
	days := civil.DateOf(*adm.DischargeDate).DaysSince(civil.DateOf(adm.AdmitDate))
	if days < 1 {
		return 1
	}
	return days
}

func summarize(adm *Admission, room *Room, patient *directory.Patient) *BillingSummary {
	payments := adm.FeePaidDetails
	if payments == nil {
		payments = []Payment{}
	}
	return &BillingSummary{
		Patient: patient,
		Admission: Stay{
			AdmissionID:   adm.ID,
			PatientID:     adm.PatientID,
			AdmitDate:     adm.AdmitDate,
			DischargeDate: *adm.DischargeDate,
			StayDays:      StayDays(adm),
		},
		Room: *room,
		Billing: Billing{
			TotalFees:     adm.TotalFees,
			FeePaid:       adm.Paid(),
			RemainingFees: adm.RemainingFees,
			Payments:      payments,
		},
	}
}
