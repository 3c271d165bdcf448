package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/events"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

const maxListLimit = 500

type Service struct {
	repo      Repository
	locker    redisclient.Locker
	directory directory.Reader
	events    *events.Recorder
	metrics   *metrics.Metrics
	loc       *time.Location
	now       func() time.Time
}

func NewService(
	repo Repository,
	locker redisclient.Locker,
	dir directory.Reader,
	rec *events.Recorder,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:      repo,
		locker:    locker,
		directory: dir,
		events:    rec,
		metrics:   m,
		loc:       time.UTC,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	appt, err := s.repo.AppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, apperr.NotFound(err, "appointment %s not found", id)
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	detail := &Detail{Appointment: *appt}

	if appt.SlotID != nil {
		slot, err := s.repo.SlotByID(ctx, *appt.SlotID)
		switch {
		case err == nil:
			detail.Slot = slot
		case !errors.Is(err, schedule.ErrSlotNotFound):
			return nil, fmt.Errorf("load slot: %w", err)
		}
	}

	if s.directory != nil {
		patient, err := s.directory.Patient(ctx, appt.PatientID)
		switch {
		case err == nil:
			detail.Patient = patient
		case !errors.Is(err, directory.ErrPatientNotFound):
			return nil, fmt.Errorf("load patient: %w", err)
		}

		clinician, err := s.directory.Clinician(ctx, appt.HcpID)
		switch {
		case err == nil:
			detail.Clinician = clinician
		case !errors.Is(err, directory.ErrClinicianNotFound):
			return nil, fmt.Errorf("load clinician: %w", err)
		}
	}

	return detail, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return nil, apperr.Validation("limit and offset must not be negative")
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return list, nil
}

// ListByClinician applies f to one clinician's appointments; any owner
// already set on f is replaced.
func (s *Service) ListByClinician(ctx context.Context, hcpID uuid.UUID, f ListFilter) ([]Appointment, error) {
	f.HcpID, f.PatientID = &hcpID, nil
	return s.List(ctx, f)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, f ListFilter) ([]Appointment, error) {
	f.HcpID, f.PatientID = nil, &patientID
	return s.List(ctx, f)
}

// Records lists completed appointments with the patient attached, for the
// clinician and patient history screens.
func (s *Service) Records(ctx context.Context, f ListFilter) ([]Detail, error) {
	f.Status = StatusCompleted
	list, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	patients := map[uuid.UUID]directory.Patient{}
	if s.directory != nil && len(list) > 0 {
		ids := make([]uuid.UUID, 0, len(list))
		for _, a := range list {
			ids = append(ids, a.PatientID)
		}
		patients, err = s.directory.PatientsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load patients: %w", err)
		}
	}

	out := make([]Detail, 0, len(list))
	for _, a := range list {
		d := Detail{Appointment: a}
		if p, ok := patients[a.PatientID]; ok {
			d.Patient = &p
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Service) logEvent(ctx context.Context, eventType string, appt *Appointment) {
	zerolog.Ctx(ctx).Info().
		Str("event_type", eventType).
		Stringer("appointment_id", appt.ID).
		Str("status", string(appt.Status)).
		Msg("appointment event")

	payload := map[string]any{
		"patient_id": appt.PatientID,
		"hcp_id":     appt.HcpID,
		"priority":   appt.Priority,
		"status":     appt.Status,
		"date_time":  appt.DateTime,
	}
	if appt.SlotID != nil {
		payload["slot_id"] = *appt.SlotID
	}
	s.events.Record(ctx, eventType, events.AggregateAppointment, appt.ID, payload)
}
