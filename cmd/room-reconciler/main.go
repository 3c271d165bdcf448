package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/app"
	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/logging"
)

// room-reconciler periodically recomputes room status from active admissions,
// repairing rooms left stale by manual edits or interrupted writes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.Init("room-reconciler", cfg)
	logger.Info().Dur("interval", cfg.WorkerInterval).Msg("room reconciler starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rootCtx = logger.WithContext(rootCtx)

	a, err := app.New(rootCtx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	runOnce(rootCtx, a.Admissions)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping room reconciler")
			return
		case <-ticker.C:
			runOnce(rootCtx, a.Admissions)
		}
	}
}

func runOnce(ctx context.Context, svc *admission.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	fixed, err := svc.ReconcileRooms(runCtx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("reconcile run failed")
		return
	}
	log.Ctx(ctx).Info().
		Int("rooms_fixed", fixed).
		Dur("took", time.Since(start)).
		Msg("reconcile run complete")
}
