// Package app assembles the services over the configured storage driver. Every
// binary builds its dependencies through New so they agree on wiring.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/db"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/events"
	"github.com/hackgods/hospital-scheduling/internal/memstore"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

// Directory is what the binaries need from the patient and clinician store.
type Directory interface {
	directory.Reader
	directory.Writer
}

type App struct {
	Config       config.Config
	Pool         *pgxpool.Pool // nil for the memory driver
	Redis        *redis.Client // nil when Redis is disabled
	Metrics      *metrics.Metrics
	Directory    Directory
	Schedule     *schedule.Service
	Appointments *appointment.Service
	Admissions   *admission.Service
}

// New connects the storage and lock backends and builds the services.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := zerolog.Ctx(ctx)
	a := &App{Config: cfg, Metrics: metrics.New()}

	var (
		slots        schedule.Repository
		appointments appointment.Repository
		admissions   admission.Repository
		eventStore   events.Store
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memstore.New()
		slots, appointments, admissions = store.Slots(), store.Appointments(), store.Admissions()
		eventStore = events.NewMemoryStore()
		a.Directory = directory.NewMemory()
		logger.Warn().Msg("using in-memory storage; data is lost on exit")

	default:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.Pool = pool
		logger.Info().Msg("connected to Postgres")

		if cfg.AutoMigrate {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}

		runner := db.NewRunner(pool, cfg.TxLockTimeout)
		slots = schedule.NewPgRepository(runner)
		appointments = appointment.NewPgRepository(runner)
		admissions = admission.NewPgRepository(runner)
		eventStore = events.NewPgStore(pool)
		a.Directory = directory.NewPgRepository(pool)
	}

	var locker redisclient.Locker
	if cfg.RedisDisabled {
		locker = redisclient.NewLocalLocker()
		logger.Warn().Msg("redis disabled; using in-process locks")
	} else {
		rdb, err := redisclient.NewRedisClient(ctx, redisclient.OptionsFromConfig(cfg))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Redis = rdb
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	}

	rec := events.NewRecorder(eventStore)
	a.Schedule = schedule.NewService(slots, rec, cfg)
	a.Appointments = appointment.NewService(appointments, locker, a.Directory, rec, a.Metrics)
	a.Admissions = admission.NewService(admissions, locker, a.Directory, rec, a.Metrics)

	return a, nil
}

// Close releases the Redis client and the Postgres pool.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
