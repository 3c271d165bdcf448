package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/events"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
)

type Service struct {
	repo      Repository
	locker    redisclient.Locker
	directory directory.Reader
	events    *events.Recorder
	metrics   *metrics.Metrics
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
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// withAdmissionLock runs fn while holding the admission's Redis lock. A busy
// lock means another fee update or discharge is in flight.
func (s *Service) withAdmissionLock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, redisclient.AdmissionKey(id), fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return apperr.Retryable(ErrAdmissionBusy, "admission %s is being updated, retry shortly", id)
	}
	return err
}

func notFoundAdmission(err error, id uuid.UUID) error {
	if errors.Is(err, ErrAdmissionNotFound) {
		return apperr.NotFound(err, "admission %s not found", id)
	}
	return fmt.Errorf("load admission: %w", err)
}

func notFoundRoom(err error, id uuid.UUID) error {
	if errors.Is(err, ErrRoomNotFound) {
		return apperr.NotFound(err, "room %s not found", id)
	}
	return fmt.Errorf("load room: %w", err)
}

func (s *Service) patient(ctx context.Context, id uuid.UUID) (*directory.Patient, error) {
	if s.directory == nil {
		return nil, nil
	}
	p, err := s.directory.Patient(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrPatientNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return p, nil
}
