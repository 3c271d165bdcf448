package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/app"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/logging"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

const (
	clinicianCount = 100
	patientCount   = 9000
	weeksAhead     = 4
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var rooms = []struct {
	prefix   string
	typ      admission.RoomType
	count    int
	capacity int
	perDay   admission.Money
}{
	{"N", admission.RoomNormal, 20, 1, 250000},
	{"I", admission.RoomICU, 6, 1, 900000},
	{"G", admission.RoomGeneral, 4, 8, 80000},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.Init("seed", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn().Msg("seeding the memory driver only exercises the write path")
	}

	gofakeit.Seed(time.Now().UnixNano())

	clinicians, err := seedClinicians(ctx, a.Directory, clinicianCount)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed clinicians")
	}
	if err := seedPatients(ctx, a.Directory, patientCount); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedRooms(ctx, a.Admissions); err != nil {
		logger.Fatal().Err(err).Msg("seed rooms")
	}
	if err := seedSlots(ctx, a.Schedule, clinicians); err != nil {
		logger.Fatal().Err(err).Msg("seed slots")
	}

	logger.Info().Msg("seed complete")
}

func seedClinicians(ctx context.Context, dir app.Directory, count int) ([]uuid.UUID, error) {
	zerolog.Ctx(ctx).Info().Int("count", count).Msg("seeding clinicians")

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		email := gofakeit.Email()
		contact := gofakeit.Phone()
		c := directory.Clinician{
			ID:        uuid.New(),
			Name:      "Dr. " + gofakeit.Name(),
			Specialty: &spec,
			Email:     &email,
			Contact:   &contact,
		}
		if err := dir.SaveClinician(ctx, c); err != nil {
			return nil, err
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func seedPatients(ctx context.Context, dir app.Directory, count int) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Int("count", count).Msg("seeding patients")

	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		contact := gofakeit.Phone()
		address := gofakeit.Address().Address
		gender := gofakeit.Gender()
		p := directory.Patient{
			ID:      uuid.New(),
			Name:    gofakeit.Name(),
			Email:   &email,
			Contact: &contact,
			Address: &address,
			Gender:  &gender,
		}
		if err := dir.SavePatient(ctx, p); err != nil {
			return err
		}
		if (i+1)%500 == 0 {
			logger.Info().Int("done", i+1).Int("total", count).Msg("patients seeded")
		}
	}
	return nil
}

func seedRooms(ctx context.Context, svc *admission.Service) error {
	for _, r := range rooms {
		for i := 1; i <= r.count; i++ {
			_, err := svc.AddRoom(ctx, admission.RoomRequest{
				RoomNumber:    fmt.Sprintf("%s-%03d", r.prefix, i),
				Type:          r.typ,
				Capacity:      r.capacity,
				ChargesPerDay: r.perDay,
			})
			if err != nil {
				return fmt.Errorf("room %s-%03d: %w", r.prefix, i, err)
			}
		}
		zerolog.Ctx(ctx).Info().Str("type", string(r.typ)).Int("count", r.count).Msg("rooms seeded")
	}
	return nil
}

// seedSlots gives every clinician two weekday clinics of half-hour slots.
func seedSlots(ctx context.Context, svc *schedule.Service, clinicians []uuid.UUID) error {
	start := civil.DateOf(time.Now()).AddDays(1)
	until := start.AddDays(7*weeksAhead - 1)

	total := 0
	for _, hcp := range clinicians {
		days := []time.Weekday{
			time.Weekday(gofakeit.Number(1, 3)),
			time.Weekday(gofakeit.Number(4, 5)),
		}
		for _, day := range days {
			for from := civil.NewTimeOfDay(9, 0); from < civil.NewTimeOfDay(12, 0); from += 30 {
				slots, err := svc.AddRecurring(ctx, schedule.RecurringRequest{
					HcpID:       hcp,
					DayOfWeek:   day,
					Start:       from,
					End:         from + 30,
					StartDate:   start,
					RepeatUntil: until,
				})
				if err != nil {
					return fmt.Errorf("clinician %s: %w", hcp, err)
				}
				total += len(slots)
			}
		}
	}
	zerolog.Ctx(ctx).Info().Int("slots", total).Msg("slots seeded")
	return nil
}
