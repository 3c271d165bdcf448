package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/db"
	"github.com/hackgods/hospital-scheduling/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	StatusRatio  float64
	FeesRatio    float64
	ReadRatio    float64
	PatientLimit int
	SlotLimit    int
	PostgresDSN  string
}

type freeSlot struct {
	ID    uuid.UUID
	HcpID uuid.UUID
}

type DataPool struct {
	Patients   []uuid.UUID
	Slots      []freeSlot
	Admissions []uuid.UUID

	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

// OperationMetrics counts outcomes per operation. Busy covers 409 and 503,
// the expected answers when workers race for the same slot or admission.
type OperationMetrics struct {
	Total     int64
	Success   int64
	Busy      int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err == nil && status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case err == nil && (status == http.StatusConflict || status == http.StatusServiceUnavailable):
		atomic.AddInt64(&om.Busy, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	pct := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}
	return sum / time.Duration(len(latencies)), latencies[0], latencies[len(latencies)-1], pct(50), pct(95)
}

type Metrics struct {
	Booking       OperationMetrics
	Status        OperationMetrics
	Fees          OperationMetrics
	ReadByID      OperationMetrics
	ListByPatient OperationMetrics
	ListUpcoming  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.Init("simulate", baseCfg)

	cfg := loadConfig(baseCfg)
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("status", cfg.StatusRatio).
		Float64("fees", cfg.FeesRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background()), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load data pool")
	}
	logger.Info().
		Int("patients", len(dataPool.Patients)).
		Int("slots", len(dataPool.Slots)).
		Int("admissions", len(dataPool.Admissions)).
		Msg("data pool loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	sim.Run(logger)
	sim.PrintReport()
}

func loadConfig(base config.Config) SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:"+base.HTTPPort),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.4),
		StatusRatio:  getFloat("SIM_STATUS_RATIO", 0.15),
		FeesRatio:    getFloat("SIM_FEES_RATIO", 0.15),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 4000),
		SlotLimit:    getInt("SIM_SLOT_LIMIT", 2400),
		PostgresDSN:  base.PostgresDSN,
	}

	total := cfg.BookingRatio + cfg.StatusRatio + cfg.FeesRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.FeesRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	rows, err = pool.Query(ctx, `
		SELECT id, hcp_id FROM slots
		WHERE occupancy = 'Free' AND slot_date >= CURRENT_DATE
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	for rows.Next() {
		var s freeSlot
		if err := rows.Scan(&s.ID, &s.HcpID); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Slots = append(dataPool.Slots, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	rows, err = pool.Query(ctx, `SELECT id FROM admissions WHERE discharge_date IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("load admissions: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Admissions = append(dataPool.Admissions, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load admissions: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Slots) == 0 {
		return nil, fmt.Errorf("no free slots loaded")
	}
	return dataPool, nil
}

func (s *Simulator) Run(logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	logger.Info().Msg("simulation running")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()

	logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	c := s.config

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < c.BookingRatio:
			s.doBooking(ctx, rng)
		case r < c.BookingRatio+c.StatusRatio:
			s.doStatusChange(ctx, rng)
		case r < c.BookingRatio+c.StatusRatio+c.FeesRatio:
			s.doAddFees(ctx, rng)
		default:
			switch rng.Intn(3) {
			case 0:
				s.doReadByID(ctx, rng)
			case 1:
				s.doListByPatient(ctx, rng)
			case 2:
				s.doListUpcoming(ctx, rng)
			}
		}
	}
}

// send issues one request and decodes a 2xx body into out when out is set.
func (s *Simulator) send(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// doBooking draws slots from a shared pool, so concurrent workers regularly
// race for the same slot and all but one must get a 409.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()
	var appt struct {
		ID uuid.UUID `json:"appointment_id"`
	}
	status, err := s.send(ctx, http.MethodPost, "/book", map[string]any{
		"patient_id": patientID,
		"hcp_id":     slot.HcpID,
		"slot_id":    slot.ID,
		"priority":   "Normal",
	}, &appt)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Booking.Record(time.Since(start), status, err)

	if err == nil && appt.ID != uuid.Nil {
		s.pool.AddAppointment(appt.ID)
	}
}

func (s *Simulator) doStatusChange(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	target := "Cancelled"
	if rng.Intn(2) == 0 {
		target = "Completed"
	}

	start := time.Now()
	status, err := s.send(ctx, http.MethodPatch, "/appointments/"+apptID.String()+"/status",
		map[string]string{"status": target}, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Status.Record(time.Since(start), status, err)
}

func (s *Simulator) doAddFees(ctx context.Context, rng *rand.Rand) {
	if len(s.pool.Admissions) == 0 {
		return
	}
	id := s.pool.Admissions[rng.Intn(len(s.pool.Admissions))]

	start := time.Now()
	status, err := s.send(ctx, http.MethodPut, "/admission/fees/"+id.String(), map[string]any{
		"extra_amount":   rng.Intn(500) + 1,
		"paid_amount":    rng.Intn(200),
		"payment_method": "Card",
		"transaction_id": uuid.NewString(),
	}, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Fees.Record(time.Since(start), status, err)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	start := time.Now()
	status, err := s.send(ctx, http.MethodGet, "/appointment/"+apptID.String(), nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.ReadByID.Record(time.Since(start), status, err)
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	start := time.Now()
	status, err := s.send(ctx, http.MethodGet, "/appointments/patient/"+patientID.String(), nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.ListByPatient.Record(time.Since(start), status, err)
}

func (s *Simulator) doListUpcoming(ctx context.Context, rng *rand.Rand) {
	slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	start := time.Now()
	status, err := s.send(ctx, http.MethodGet, "/slots/upcoming/"+slot.HcpID.String(), nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.ListUpcoming.Record(time.Since(start), status, err)
}

func (s *Simulator) PrintReport() {
	line := strings.Repeat("=", 80)
	fmt.Println("\n" + line)
	fmt.Println("SIMULATION REPORT")
	fmt.Println(line)
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status change", &s.metrics.Status)
	printOperationReport("Add fees", &s.metrics.Fees)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by patient", &s.metrics.ListByPatient)
	printOperationReport("Upcoming slots", &s.metrics.ListUpcoming)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}
	success := atomic.LoadInt64(&om.Success)
	busy := atomic.LoadInt64(&om.Busy)
	failed := atomic.LoadInt64(&om.Error)
	avg, min, max, p50, p95 := om.Stats()
	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, pct(success))
	if busy > 0 {
		fmt.Printf("  Conflict/busy: %d (%.1f%%)\n", busy, pct(busy))
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, pct(failed))
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
