package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/events"
)

// Admit places a patient in a room with an opening fee ledger. The room row
// is locked for the bed count and status update.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Admission, error) {
	if req.PatientID == uuid.Nil || req.RoomID == uuid.Nil {
		return nil, apperr.Validation("patient_id and room_id are required")
	}
	if req.TotalFees < 0 {
		return nil, apperr.Validation("total_fees must not be negative")
	}

	now := s.now()
	payments := make([]Payment, 0, len(req.FeePaidDetails))
	var paid Money
	for i, p := range req.FeePaidDetails {
		if p.AmountPaid < 0 {
			return nil, apperr.Validation("fee_paid_details[%d].amount_paid must not be negative", i)
		}
		if p.AmountPaid == 0 {
			continue
		}
		if p.PaymentDate.IsZero() {
			p.PaymentDate = now
		}
		paid += p.AmountPaid
		payments = append(payments, p)
	}
	if paid > req.TotalFees {
		return nil, apperr.Validation("amount paid %s exceeds total fees %s", paid, req.TotalFees)
	}
	remaining := req.TotalFees - paid
	if req.RemainingFees != nil && *req.RemainingFees != remaining {
		return nil, apperr.Validation("remaining_fees %s must equal total_fees - paid = %s", *req.RemainingFees, remaining)
	}

	admitDate := now
	if req.AdmitDate != nil && !req.AdmitDate.IsZero() {
		admitDate = req.AdmitDate.UTC()
	}

	adm := Admission{
		ID:             uuid.New(),
		PatientID:      req.PatientID,
		RoomID:         req.RoomID,
		AdmitDate:      admitDate,
		TotalFees:      req.TotalFees,
		RemainingFees:  remaining,
		FeePaidDetails: payments,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		room, err := tx.LockRoom(ctx, req.RoomID)
		if err != nil {
			return notFoundRoom(err, req.RoomID)
		}

		existing, err := tx.ActiveAdmissionFor(ctx, req.PatientID)
		switch {
		case err == nil:
			return apperr.Conflict(ErrPatientAdmitted, "patient %s is already admitted (admission %s)", req.PatientID, existing.ID)
		case !errors.Is(err, ErrAdmissionNotFound):
			return fmt.Errorf("check active admission: %w", err)
		}

		occupants, err := tx.CountActive(ctx, room.ID)
		if err != nil {
			return fmt.Errorf("count occupants: %w", err)
		}
		if occupants >= room.Beds() {
			return apperr.Capacity(ErrRoomFull, "room %s has no free bed", room.RoomNumber)
		}

		if err := tx.InsertAdmission(ctx, adm); err != nil {
			return fmt.Errorf("insert admission: %w", err)
		}
		if err := tx.SetRoomStatus(ctx, room.ID, room.StatusFor(occupants+1), now); err != nil {
			return fmt.Errorf("update room status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Stringer("admission_id", adm.ID).
		Stringer("patient_id", adm.PatientID).
		Stringer("room_id", adm.RoomID).
		Msg("patient admitted")
	s.events.Record(ctx, events.PatientAdmitted, events.AggregateAdmission, adm.ID, map[string]any{
		"patient_id":     adm.PatientID,
		"room_id":        adm.RoomID,
		"total_fees":     adm.TotalFees,
		"remaining_fees": adm.RemainingFees,
	})
	for range payments {
		s.metrics.ObserveFeePayment()
	}

	return &adm, nil
}

// AddFees raises the bill by ExtraAmount and records a payment of
// PaidAmount. Payments may not exceed what is owed after the raise.
func (s *Service) AddFees(ctx context.Context, id uuid.UUID, req AddFeesRequest) (*Admission, error) {
	if req.ExtraAmount < 0 || req.PaidAmount < 0 {
		return nil, apperr.Validation("extra_amount and paid_amount must not be negative")
	}

	var updated *Admission

	err := s.withAdmissionLock(ctx, id, func(ctx context.Context) error {
		return s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
			adm, err := tx.LockAdmission(ctx, id)
			if err != nil {
				return notFoundAdmission(err, id)
			}
			if !adm.Active() {
				return apperr.State(ErrAlreadyDischarged, "admission %s is discharged", id)
			}

			owed := adm.RemainingFees + req.ExtraAmount
			if req.PaidAmount > owed {
				return apperr.Validation("paid amount %s exceeds outstanding fees %s", req.PaidAmount, owed)
			}

			now := s.now()
			adm.TotalFees += req.ExtraAmount
			adm.RemainingFees = owed - req.PaidAmount
			adm.UpdatedAt = now

			if req.PaidAmount > 0 {
				p := Payment{
					AmountPaid:    req.PaidAmount,
					PaymentMethod: req.PaymentMethod,
					PaymentDate:   now,
					TransactionID: req.TransactionID,
					Note:          req.Note,
				}
				if err := tx.AppendPayment(ctx, id, p); err != nil {
					return fmt.Errorf("append payment: %w", err)
				}
				adm.FeePaidDetails = append(adm.FeePaidDetails, p)
			}

			if err := tx.UpdateFees(ctx, id, adm.TotalFees, adm.RemainingFees, now); err != nil {
				return fmt.Errorf("update fees: %w", err)
			}
			updated = adm
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Stringer("admission_id", id).
		Stringer("extra_amount", req.ExtraAmount).
		Stringer("paid_amount", req.PaidAmount).
		Stringer("remaining_fees", updated.RemainingFees).
		Msg("fees updated")
	s.events.Record(ctx, events.FeesUpdated, events.AggregateAdmission, id, map[string]any{
		"extra_amount":   req.ExtraAmount,
		"paid_amount":    req.PaidAmount,
		"payment_method": req.PaymentMethod,
		"total_fees":     updated.TotalFees,
		"remaining_fees": updated.RemainingFees,
	})
	if req.PaidAmount > 0 {
		s.metrics.ObserveFeePayment()
	}

	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Admission, error) {
	adm, err := s.repo.AdmissionByID(ctx, id)
	if err != nil {
		return nil, notFoundAdmission(err, id)
	}
	return adm, nil
}

// ListAdmitted returns every active admission with patient and room names.
func (s *Service) ListAdmitted(ctx context.Context) ([]AdmittedPatient, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active admissions: %w", err)
	}

	rooms, err := s.repo.ListRooms(ctx, RoomFilter{})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	roomByID := make(map[uuid.UUID]Room, len(rooms))
	for _, r := range rooms {
		roomByID[r.ID] = r
	}

	patients := map[uuid.UUID]directory.Patient{}
	if s.directory != nil && len(active) > 0 {
		ids := make([]uuid.UUID, 0, len(active))
		for _, a := range active {
			ids = append(ids, a.PatientID)
		}
		if patients, err = s.directory.PatientsByIDs(ctx, ids); err != nil {
			return nil, fmt.Errorf("load patients: %w", err)
		}
	}

	out := make([]AdmittedPatient, 0, len(active))
	for _, a := range active {
		row := AdmittedPatient{Admission: a}
		if p, ok := patients[a.PatientID]; ok {
			row.PatientName = p.Name
		}
		if r, ok := roomByID[a.RoomID]; ok {
			row.RoomNumber = r.RoomNumber
			row.RoomType = r.Type
		}
		out = append(out, row)
	}
	return out, nil
}
