package appointment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/events"
	"github.com/hackgods/hospital-scheduling/internal/memstore"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

type fixture struct {
	svc      *appointment.Service
	schedule *schedule.Service
	dir      *directory.Memory
	events   *events.MemoryStore
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	evs := events.NewMemoryStore()
	rec := events.NewRecorder(evs)
	m := metrics.New()
	dir := directory.NewMemory()

	return &fixture{
		svc:      appointment.NewService(store.Appointments(), redisclient.NewLocalLocker(), dir, rec, m),
		schedule: schedule.NewService(store.Slots(), rec, config.Config{}),
		dir:      dir,
		events:   evs,
		metrics:  m,
	}
}

func (f *fixture) slot(t *testing.T, hcp uuid.UUID, day, start string) *schedule.Slot {
	t.Helper()
	d, err := civil.ParseDate(day)
	require.NoError(t, err)
	s, err := civil.ParseTimeOfDay(start)
	require.NoError(t, err)

	slot, err := f.schedule.AddSlot(context.Background(), schedule.AddSlotRequest{HcpID: hcp, Date: d, Start: s, End: s + 30})
	require.NoError(t, err)
	return slot
}

func TestBookNormal_ClaimsSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hcp, patient := uuid.New(), uuid.New()
	slot := f.slot(t, hcp, "2024-06-10", "09:00")

	appt, err := f.svc.Book(ctx, appointment.NormalBooking{PatientID: patient, SlotID: slot.ID, Notes: "checkup"})
	require.NoError(t, err)

	assert.Equal(t, appointment.StatusScheduled, appt.Status)
	assert.Equal(t, appointment.PriorityNormal, appt.Priority)
	assert.Equal(t, hcp, appt.HcpID, "clinician comes from the slot")
	require.NotNil(t, appt.SlotID)
	assert.Equal(t, slot.ID, *appt.SlotID)
	assert.Equal(t, time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC), appt.DateTime)

	booked, err := f.schedule.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.OccupancyBooked, booked.Occupancy)

	_, err = f.svc.Book(ctx, appointment.NormalBooking{PatientID: uuid.New(), SlotID: slot.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)

	series, err := testutil.GatherAndCount(f.metrics.Registry(), "hospital_bookings_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "one booked and one conflict series")
}

func TestBookNormal_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hcp := uuid.New()
	slot := f.slot(t, hcp, "2024-06-10", "09:00")
	other, err := civil.ParseDate("2024-06-11")
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, appointment.NormalBooking{PatientID: uuid.New(), SlotID: uuid.New()})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.svc.Book(ctx, appointment.NormalBooking{PatientID: uuid.New(), HcpID: uuid.New(), SlotID: slot.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "slot of another clinician")

	_, err = f.svc.Book(ctx, appointment.NormalBooking{PatientID: uuid.New(), SlotID: slot.ID, Date: other})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "date mismatch")

	_, err = f.svc.Book(ctx, appointment.NormalBooking{SlotID: slot.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "missing patient")

	still, err := f.schedule.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.OccupancyFree, still.Occupancy)
}

func TestBookNormal_ConcurrentRequestsBookOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.slot(t, uuid.New(), "2024-06-10", "09:00")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		losers    int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(ctx, appointment.NormalBooking{PatientID: uuid.New(), SlotID: slot.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperr.IsKind(err, apperr.KindConflict):
				losers++
			case apperr.IsKind(err, apperr.KindRetryable):
				assert.ErrorIs(t, err, appointment.ErrSlotBeingBooked)
				losers++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, losers)

	scheduled, err := f.svc.List(ctx, appointment.ListFilter{Status: appointment.StatusScheduled})
	require.NoError(t, err)
	assert.Len(t, scheduled, 1)
}

func TestCancel_FreesSlotForRebooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.slot(t, uuid.New(), "2024-06-10", "09:00")

	first, err := f.svc.Book(ctx, appointment.NormalBooking{PatientID: uuid.New(), SlotID: slot.ID})
	require.NoError(t, err)

	cancelled, err := f.svc.UpdateStatus(ctx, first.ID, appointment.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)

	freed, err := f.schedule.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.OccupancyFree, freed.Occupancy)

	second, err := f.svc.Book(ctx, appointment.NormalBooking{PatientID: uuid.New(), SlotID: slot.ID})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	assert.Equal(t, []string{
		events.SlotCreated,
		events.AppointmentBooked,
		events.AppointmentCancelled,
		events.AppointmentBooked,
	}, f.events.Types())
}

func TestTransitions_TerminalStatusesAreFinal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.slot(t, uuid.New(), "2024-06-10", "09:00")

	appt, err := f.svc.Book(ctx, appointment.NormalBooking{PatientID: uuid.New(), SlotID: slot.ID})
	require.NoError(t, err)

	completed, err := f.svc.Complete(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, completed.Status)

	kept, err := f.schedule.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.OccupancyBooked, kept.Occupancy, "completing keeps the slot booked")

	_, err = f.svc.Cancel(ctx, appt.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindState))
	assert.ErrorIs(t, err, appointment.ErrTerminalStatus)

	_, err = f.svc.Complete(ctx, appt.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindState))

	_, err = f.svc.UpdateStatus(ctx, appt.ID, appointment.StatusScheduled)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.Cancel(ctx, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestBookEmergency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hcp, patient := uuid.New(), uuid.New()
	at := time.Date(2024, time.June, 10, 14, 30, 0, 0, time.UTC)

	appt, err := f.svc.Book(ctx, appointment.EmergencyBooking{PatientID: patient, HcpID: hcp, DateTime: &at})
	require.NoError(t, err)
	assert.Equal(t, appointment.PriorityEmergency, appt.Priority)
	assert.Equal(t, appointment.StatusScheduled, appt.Status)
	assert.Nil(t, appt.SlotID)
	assert.Equal(t, at, appt.DateTime)

	future, err := civil.ParseDate("2999-01-02")
	require.NoError(t, err)
	later, err := f.svc.Book(ctx, appointment.EmergencyBooking{PatientID: patient, HcpID: hcp, Date: future})
	require.NoError(t, err)
	assert.Equal(t, future.In(time.UTC), later.DateTime)

	before := time.Now().UTC()
	now, err := f.svc.Book(ctx, appointment.EmergencyBooking{PatientID: patient, HcpID: hcp})
	require.NoError(t, err)
	assert.False(t, now.DateTime.Before(before.Add(-time.Second)))

	cancelled, err := f.svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)

	_, err = f.svc.Book(ctx, appointment.EmergencyBooking{PatientID: patient})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestList_FiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hcp, patient := uuid.New(), uuid.New()

	late := f.slot(t, hcp, "2024-06-10", "11:00")
	early := f.slot(t, hcp, "2024-06-10", "09:00")
	otherHcp := f.slot(t, uuid.New(), "2024-06-10", "10:00")

	for _, s := range []*schedule.Slot{late, early, otherHcp} {
		_, err := f.svc.Book(ctx, appointment.NormalBooking{PatientID: patient, SlotID: s.ID})
		require.NoError(t, err)
	}

	stranger := uuid.New()
	byHcp, err := f.svc.ListByClinician(ctx, hcp, appointment.ListFilter{PatientID: &stranger})
	require.NoError(t, err)
	require.Len(t, byHcp, 2)
	assert.Equal(t, early.ID, *byHcp[0].SlotID)
	assert.Equal(t, late.ID, *byHcp[1].SlotID)

	byPatient, err := f.svc.ListByPatient(ctx, patient, appointment.ListFilter{Status: appointment.StatusScheduled})
	require.NoError(t, err)
	assert.Len(t, byPatient, 3)

	paged, err := f.svc.ListByPatient(ctx, patient, appointment.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged, 2)

	page, err := f.svc.List(ctx, appointment.ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, otherHcp.ID, *page[0].SlotID)

	_, err = f.svc.List(ctx, appointment.ListFilter{Limit: -1})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestGetAndRecords_AttachDirectoryEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hcp, patient := uuid.New(), uuid.New()
	specialty := "Surgery"
	require.NoError(t, f.dir.SavePatient(ctx, directory.Patient{ID: patient, Name: "Ada Lovelace"}))
	require.NoError(t, f.dir.SaveClinician(ctx, directory.Clinician{ID: hcp, Name: "Dr. Grey", Specialty: &specialty}))

	slot := f.slot(t, hcp, "2024-06-10", "09:00")
	appt, err := f.svc.Book(ctx, appointment.NormalBooking{PatientID: patient, SlotID: slot.ID})
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, appt.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Slot)
	require.NotNil(t, detail.Patient)
	require.NotNil(t, detail.Clinician)
	assert.Equal(t, "Ada Lovelace", detail.Patient.Name)
	assert.Equal(t, &specialty, detail.Clinician.Specialty)

	records, err := f.svc.Records(ctx, appointment.ListFilter{HcpID: &hcp})
	require.NoError(t, err)
	assert.Empty(t, records, "only completed visits are records")

	_, err = f.svc.Complete(ctx, appt.ID)
	require.NoError(t, err)

	records, err = f.svc.Records(ctx, appointment.ListFilter{HcpID: &hcp})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Patient)
	assert.Equal(t, "Ada Lovelace", records[0].Patient.Name)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
