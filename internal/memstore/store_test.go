package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

func newSlot(hcp uuid.UUID, day civil.Date, start civil.TimeOfDay) schedule.Slot {
	return schedule.Slot{
		ID:        uuid.New(),
		HcpID:     hcp,
		Date:      day,
		Start:     start,
		End:       start + 30,
		Occupancy: schedule.OccupancyFree,
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := New()
	day := civil.Date{Year: 2024, Month: time.June, Day: 10}
	slot := newSlot(uuid.New(), day, civil.NewTimeOfDay(9, 0))

	require.NoError(t, store.Slots().InTx(ctx, func(ctx context.Context, tx schedule.Tx) error {
		return tx.InsertSlot(ctx, slot)
	}))

	boom := errors.New("boom")
	err := store.Appointments().InTx(ctx, func(ctx context.Context, tx appointment.Tx) error {
		ok, err := tx.MarkSlotBooked(ctx, slot.ID, time.Now())
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.InsertAppointment(ctx, appointment.Appointment{
			ID:       uuid.New(),
			SlotID:   &slot.ID,
			Status:   appointment.StatusScheduled,
			Priority: appointment.PriorityNormal,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Slots().SlotByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.OccupancyFree, got.Occupancy)

	list, err := store.Appointments().List(ctx, appointment.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInTx_RollbackKeepsPaymentLedger(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Admissions()
	adm := admission.Admission{
		ID:             uuid.New(),
		PatientID:      uuid.New(),
		RoomID:         uuid.New(),
		TotalFees:      1000,
		RemainingFees:  600,
		FeePaidDetails: []admission.Payment{{AmountPaid: 400}},
	}
	require.NoError(t, repo.InTx(ctx, func(ctx context.Context, tx admission.Tx) error {
		return tx.InsertAdmission(ctx, adm)
	}))

	err := repo.InTx(ctx, func(ctx context.Context, tx admission.Tx) error {
		require.NoError(t, tx.AppendPayment(ctx, adm.ID, admission.Payment{AmountPaid: 100}))
		require.NoError(t, tx.UpdateFees(ctx, adm.ID, 1000, 500, time.Now()))
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := repo.AdmissionByID(ctx, adm.ID)
	require.NoError(t, err)
	assert.Len(t, got.FeePaidDetails, 1)
	assert.Equal(t, admission.Money(600), got.RemainingFees)
}

func TestInTx_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().Slots().InTx(ctx, func(context.Context, schedule.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestInsertAppointment_OneScheduledPerSlot(t *testing.T) {
	ctx := context.Background()
	store := New()
	slotID := uuid.New()

	insert := func(status appointment.Status) error {
		return store.Appointments().InTx(ctx, func(ctx context.Context, tx appointment.Tx) error {
			return tx.InsertAppointment(ctx, appointment.Appointment{ID: uuid.New(), SlotID: &slotID, Status: status})
		})
	}

	require.NoError(t, insert(appointment.StatusCancelled))
	require.NoError(t, insert(appointment.StatusScheduled))
	assert.ErrorIs(t, insert(appointment.StatusScheduled), appointment.ErrSlotUnavailable)
}

func TestListSlots_SortedByStart(t *testing.T) {
	ctx := context.Background()
	store := New()
	hcp := uuid.New()
	day := civil.Date{Year: 2024, Month: time.June, Day: 10}

	require.NoError(t, store.Slots().InTx(ctx, func(ctx context.Context, tx schedule.Tx) error {
		for _, h := range []int{15, 9, 12} {
			if err := tx.InsertSlot(ctx, newSlot(hcp, day, civil.NewTimeOfDay(h, 0))); err != nil {
				return err
			}
		}
		return tx.InsertSlot(ctx, newSlot(hcp, day.AddDays(1), civil.NewTimeOfDay(8, 0)))
	}))

	slots, err := store.Slots().ListSlots(ctx, hcp, day, false)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, 9, slots[0].Start.Hour())
	assert.Equal(t, 12, slots[1].Start.Hour())
	assert.Equal(t, 15, slots[2].Start.Hour())

	upcoming, err := store.Slots().ListUpcoming(ctx, hcp, day)
	require.NoError(t, err)
	require.Len(t, upcoming, 4)
	assert.Equal(t, day.AddDays(1), upcoming[3].Date)
}
