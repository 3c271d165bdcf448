package admission_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/events"
	"github.com/hackgods/hospital-scheduling/internal/memstore"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
)

type fixture struct {
	svc    *admission.Service
	repo   *memstore.AdmissionRepository
	dir    *directory.Memory
	events *events.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	evs := events.NewMemoryStore()
	dir := directory.NewMemory()
	repo := store.Admissions()
	return &fixture{
		svc:    admission.NewService(repo, redisclient.NewLocalLocker(), dir, events.NewRecorder(evs), metrics.New()),
		repo:   repo,
		dir:    dir,
		events: evs,
	}
}

func (f *fixture) room(t *testing.T, number string, typ admission.RoomType, capacity int) *admission.Room {
	t.Helper()
	room, err := f.svc.AddRoom(context.Background(), admission.RoomRequest{
		RoomNumber:    number,
		Type:          typ,
		Capacity:      capacity,
		ChargesPerDay: 150000,
	})
	require.NoError(t, err)
	return room
}

func (f *fixture) admit(t *testing.T, roomID uuid.UUID, total, paid admission.Money) *admission.Admission {
	t.Helper()
	var payments []admission.Payment
	if paid > 0 {
		payments = []admission.Payment{{AmountPaid: paid, PaymentMethod: "Cash"}}
	}
	adm, err := f.svc.Admit(context.Background(), admission.AdmitRequest{
		PatientID:      uuid.New(),
		RoomID:         roomID,
		TotalFees:      total,
		FeePaidDetails: payments,
	})
	require.NoError(t, err)
	return adm
}

func TestAdmitPayDischarge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.room(t, "101", admission.RoomICU, 0)

	patient := uuid.New()
	require.NoError(t, f.dir.SavePatient(ctx, directory.Patient{ID: patient, Name: "Grace Hopper"}))

	adm, err := f.svc.Admit(ctx, admission.AdmitRequest{PatientID: patient, RoomID: room.ID, TotalFees: 500000})
	require.NoError(t, err)
	assert.Equal(t, admission.Money(500000), adm.RemainingFees)
	assert.True(t, adm.Active())

	occupied, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, admission.RoomOccupied, occupied.Status)

	adm, err = f.svc.AddFees(ctx, adm.ID, admission.AddFeesRequest{PaidAmount: 200000, PaymentMethod: "Card"})
	require.NoError(t, err)
	assert.Equal(t, admission.Money(500000), adm.TotalFees)
	assert.Equal(t, admission.Money(300000), adm.RemainingFees)
	require.Len(t, adm.FeePaidDetails, 1)
	assert.Equal(t, "Card", adm.FeePaidDetails[0].PaymentMethod)

	summary, err := f.svc.Discharge(ctx, adm.ID)
	require.NoError(t, err)
	assert.Equal(t, admission.Money(500000), summary.Billing.TotalFees)
	assert.Equal(t, admission.Money(200000), summary.Billing.FeePaid)
	assert.Equal(t, admission.Money(300000), summary.Billing.RemainingFees)
	assert.Equal(t, 1, summary.Admission.StayDays)
	require.NotNil(t, summary.Patient)
	assert.Equal(t, "Grace Hopper", summary.Patient.Name)
	assert.Equal(t, admission.RoomAvailable, summary.Room.Status)

	freed, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, admission.RoomAvailable, freed.Status)

	_, err = f.svc.Discharge(ctx, adm.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindState))
	assert.ErrorIs(t, err, admission.ErrAlreadyDischarged)

	_, err = f.svc.AddFees(ctx, adm.ID, admission.AddFeesRequest{PaidAmount: 100})
	assert.True(t, apperr.IsKind(err, apperr.KindState))

	assert.Equal(t, []string{events.PatientAdmitted, events.FeesUpdated, events.PatientDischarged}, f.events.Types())
}

type unavailableDirectory struct{}

var errDirectoryDown = errors.New("directory timeout")

func (unavailableDirectory) Patient(context.Context, uuid.UUID) (*directory.Patient, error) {
	return nil, errDirectoryDown
}

func (unavailableDirectory) Clinician(context.Context, uuid.UUID) (*directory.Clinician, error) {
	return nil, errDirectoryDown
}

func (unavailableDirectory) PatientsByIDs(context.Context, []uuid.UUID) (map[uuid.UUID]directory.Patient, error) {
	return nil, errDirectoryDown
}

func TestDischarge_DirectoryUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := admission.NewService(store.Admissions(), redisclient.NewLocalLocker(), unavailableDirectory{},
		events.NewRecorder(events.NewMemoryStore()), metrics.New())

	room, err := svc.AddRoom(ctx, admission.RoomRequest{RoomNumber: "301", Type: admission.RoomNormal})
	require.NoError(t, err)
	adm, err := svc.Admit(ctx, admission.AdmitRequest{
		PatientID:      uuid.New(),
		RoomID:         room.ID,
		TotalFees:      400000,
		FeePaidDetails: []admission.Payment{{AmountPaid: 100000, PaymentMethod: "Cash"}},
	})
	require.NoError(t, err)

	summary, err := svc.Discharge(ctx, adm.ID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Nil(t, summary.Patient)
	assert.Equal(t, adm.ID, summary.Admission.AdmissionID)
	assert.Equal(t, admission.Money(100000), summary.Billing.FeePaid)
	assert.Equal(t, admission.Money(300000), summary.Billing.RemainingFees)
	assert.Equal(t, admission.RoomAvailable, summary.Room.Status)

	_, err = svc.Discharge(ctx, adm.ID)
	assert.ErrorIs(t, err, admission.ErrAlreadyDischarged)
}

func TestAdmit_LedgerValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.room(t, "102", admission.RoomNormal, 0)

	overpaid := admission.AdmitRequest{
		PatientID:      uuid.New(),
		RoomID:         room.ID,
		TotalFees:      1000,
		FeePaidDetails: []admission.Payment{{AmountPaid: 1500}},
	}
	_, err := f.svc.Admit(ctx, overpaid)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	wrong := admission.Money(999)
	mismatch := admission.AdmitRequest{
		PatientID:      uuid.New(),
		RoomID:         room.ID,
		TotalFees:      1000,
		RemainingFees:  &wrong,
		FeePaidDetails: []admission.Payment{{AmountPaid: 400}},
	}
	_, err = f.svc.Admit(ctx, mismatch)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.Admit(ctx, admission.AdmitRequest{PatientID: uuid.New(), RoomID: room.ID, TotalFees: -1})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.Admit(ctx, admission.AdmitRequest{PatientID: uuid.New(), RoomID: uuid.New(), TotalFees: 1000})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	right := admission.Money(600)
	adm, err := f.svc.Admit(ctx, admission.AdmitRequest{
		PatientID:      uuid.New(),
		RoomID:         room.ID,
		TotalFees:      1000,
		RemainingFees:  &right,
		FeePaidDetails: []admission.Payment{{AmountPaid: 400}, {AmountPaid: 0}},
	})
	require.NoError(t, err)
	require.Len(t, adm.FeePaidDetails, 1, "zero payments are dropped")
	assert.False(t, adm.FeePaidDetails[0].PaymentDate.IsZero())
	assert.Equal(t, adm.TotalFees, adm.Paid()+adm.RemainingFees)
}

func TestAddFees_Overpayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.room(t, "103", admission.RoomNormal, 0)
	adm := f.admit(t, room.ID, 1000, 0)

	_, err := f.svc.AddFees(ctx, adm.ID, admission.AddFeesRequest{PaidAmount: 1001})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	updated, err := f.svc.AddFees(ctx, adm.ID, admission.AddFeesRequest{ExtraAmount: 500, PaidAmount: 1500})
	require.NoError(t, err, "extra raises what may be paid in the same call")
	assert.Equal(t, admission.Money(1500), updated.TotalFees)
	assert.Equal(t, admission.Money(0), updated.RemainingFees)

	_, err = f.svc.AddFees(ctx, adm.ID, admission.AddFeesRequest{ExtraAmount: -1})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.AddFees(ctx, uuid.New(), admission.AddFeesRequest{PaidAmount: 1})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAddFees_LedgerInvariantUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.room(t, "104", admission.RoomNormal, 0)
	adm := f.admit(t, room.ID, 100000, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddFees(ctx, adm.ID, admission.AddFeesRequest{ExtraAmount: 100, PaidAmount: 250})
			if err != nil {
				assert.True(t, apperr.IsKind(err, apperr.KindRetryable), "unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.svc.Get(ctx, adm.ID)
	require.NoError(t, err)
	assert.Equal(t, got.TotalFees, got.Paid()+got.RemainingFees)
	assert.GreaterOrEqual(t, got.RemainingFees, admission.Money(0))
}

func TestAdmit_OnePatientOneActiveAdmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ward := f.room(t, "W1", admission.RoomGeneral, 4)
	patient := uuid.New()

	_, err := f.svc.Admit(ctx, admission.AdmitRequest{PatientID: patient, RoomID: ward.ID, TotalFees: 100})
	require.NoError(t, err)

	_, err = f.svc.Admit(ctx, admission.AdmitRequest{PatientID: patient, RoomID: ward.ID, TotalFees: 100})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.ErrorIs(t, err, admission.ErrPatientAdmitted)
}

func TestGeneralWardCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ward := f.room(t, "W2", admission.RoomGeneral, 2)

	first := f.admit(t, ward.ID, 100, 0)
	room, err := f.svc.GetRoom(ctx, ward.ID)
	require.NoError(t, err)
	assert.Equal(t, admission.RoomPartiallyOccupied, room.Status)

	available, err := f.svc.ListAvailableRooms(ctx)
	require.NoError(t, err)
	require.Len(t, available[admission.RoomGeneral], 1)
	assert.Empty(t, available[admission.RoomICU])
	assert.Contains(t, available, admission.RoomNormal)

	f.admit(t, ward.ID, 100, 0)
	room, err = f.svc.GetRoom(ctx, ward.ID)
	require.NoError(t, err)
	assert.Equal(t, admission.RoomOccupied, room.Status)

	_, err = f.svc.Admit(ctx, admission.AdmitRequest{PatientID: uuid.New(), RoomID: ward.ID, TotalFees: 100})
	assert.True(t, apperr.IsKind(err, apperr.KindCapacity))
	assert.ErrorIs(t, err, admission.ErrRoomFull)

	available, err = f.svc.ListAvailableRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, available[admission.RoomGeneral])

	_, err = f.svc.Discharge(ctx, first.ID)
	require.NoError(t, err)
	room, err = f.svc.GetRoom(ctx, ward.ID)
	require.NoError(t, err)
	assert.Equal(t, admission.RoomPartiallyOccupied, room.Status)
}

func TestRooms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	icu := f.room(t, "ICU-1", admission.RoomICU, 0)
	assert.Equal(t, 1, icu.Capacity, "single rooms hold one patient")
	assert.Equal(t, admission.RoomAvailable, icu.Status)

	_, err := f.svc.AddRoom(ctx, admission.RoomRequest{RoomNumber: "ICU-1", Type: admission.RoomICU})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	cases := map[string]admission.RoomRequest{
		"no number":       {Type: admission.RoomNormal},
		"bad type":        {RoomNumber: "X", Type: "Suite"},
		"icu capacity":    {RoomNumber: "X", Type: admission.RoomICU, Capacity: 3},
		"ward capacity":   {RoomNumber: "X", Type: admission.RoomGeneral},
		"negative charge": {RoomNumber: "X", Type: admission.RoomNormal, ChargesPerDay: -1},
	}
	for name, req := range cases {
		_, err := f.svc.AddRoom(ctx, req)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), name)
	}

	ward := f.room(t, "W3", admission.RoomGeneral, 3)
	f.admit(t, ward.ID, 100, 0)
	f.admit(t, ward.ID, 100, 0)

	_, err = f.svc.UpdateRoom(ctx, ward.ID, admission.RoomRequest{RoomNumber: "W3", Type: admission.RoomGeneral, Capacity: 1})
	assert.True(t, apperr.IsKind(err, apperr.KindState), "capacity below occupants")

	_, err = f.svc.UpdateRoom(ctx, ward.ID, admission.RoomRequest{RoomNumber: "W3", Type: admission.RoomNormal})
	assert.True(t, apperr.IsKind(err, apperr.KindState), "type change while occupied")

	updated, err := f.svc.UpdateRoom(ctx, ward.ID, admission.RoomRequest{RoomNumber: "W3-B", Type: admission.RoomGeneral, Capacity: 2, ChargesPerDay: 5000})
	require.NoError(t, err)
	assert.Equal(t, admission.RoomOccupied, updated.Status)
	assert.Equal(t, "W3-B", updated.RoomNumber)

	err = f.svc.DeleteRoom(ctx, ward.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindState))

	require.NoError(t, f.svc.DeleteRoom(ctx, icu.ID))
	_, err = f.svc.GetRoom(ctx, icu.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	rooms, err := f.svc.ListRooms(ctx, admission.RoomFilter{Type: admission.RoomGeneral})
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	_, err = f.svc.ListRooms(ctx, admission.RoomFilter{Type: "Suite"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestListAdmitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.room(t, "201", admission.RoomNormal, 0)
	patient := uuid.New()
	require.NoError(t, f.dir.SavePatient(ctx, directory.Patient{ID: patient, Name: "Alan Turing"}))

	_, err := f.svc.Admit(ctx, admission.AdmitRequest{PatientID: patient, RoomID: room.ID, TotalFees: 100})
	require.NoError(t, err)

	list, err := f.svc.ListAdmitted(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alan Turing", list[0].PatientName)
	assert.Equal(t, "201", list[0].RoomNumber)
	assert.Equal(t, admission.RoomNormal, list[0].RoomType)
}

func TestReconcileRooms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.room(t, "301", admission.RoomNormal, 0)

	err := f.repo.InTx(ctx, func(ctx context.Context, tx admission.Tx) error {
		return tx.SetRoomStatus(ctx, room.ID, admission.RoomOccupied, time.Now())
	})
	require.NoError(t, err)

	fixed, err := f.svc.ReconcileRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	got, err := f.svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, admission.RoomAvailable, got.Status)

	fixed, err = f.svc.ReconcileRooms(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestStayDays(t *testing.T) {
	admit := time.Date(2024, time.June, 10, 22, 0, 0, 0, time.UTC)
	sameDay := admit.Add(time.Hour)
	threeDays := admit.Add(72 * time.Hour)

	assert.Equal(t, 0, admission.StayDays(&admission.Admission{AdmitDate: admit}))
	assert.Equal(t, 1, admission.StayDays(&admission.Admission{AdmitDate: admit, DischargeDate: &sameDay}))
	assert.Equal(t, 3, admission.StayDays(&admission.Admission{AdmitDate: admit, DischargeDate: &threeDays}))
}
