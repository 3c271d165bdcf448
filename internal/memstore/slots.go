package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

type SlotRepository struct {
	store *Store
}

var _ schedule.Repository = (*SlotRepository)(nil)

func (r *SlotRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx schedule.Tx) error) error {
	return r.store.inTx(ctx, func(ctx context.Context) error {
		return fn(ctx, slotTx{st: &r.store.st})
	})
}

func (r *SlotRepository) SlotByID(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	var (
		slot schedule.Slot
		ok   bool
	)
	r.store.read(func(st state) { slot, ok = st.slots[id] })
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	return &slot, nil
}

func (r *SlotRepository) ListSlots(_ context.Context, hcpID uuid.UUID, date civil.Date, freeOnly bool) ([]schedule.Slot, error) {
	var out []schedule.Slot
	r.store.read(func(st state) {
		out = filterSlots(st, func(s schedule.Slot) bool {
			return s.HcpID == hcpID && s.Date == date &&
				(!freeOnly || s.Occupancy == schedule.OccupancyFree)
		})
	})
	return out, nil
}

func (r *SlotRepository) ListUpcoming(_ context.Context, hcpID uuid.UUID, from civil.Date) ([]schedule.Slot, error) {
	var out []schedule.Slot
	r.store.read(func(st state) {
		out = filterSlots(st, func(s schedule.Slot) bool {
			return s.HcpID == hcpID && !s.Date.Before(from)
		})
	})
	return out, nil
}

// filterSlots returns matching slots ordered by date then start time.
func filterSlots(st state, keep func(schedule.Slot) bool) []schedule.Slot {
	out := []schedule.Slot{}
	for _, s := range st.slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

type slotTx struct {
	st *state
}

func (slotTx) LockSchedule(context.Context, uuid.UUID, civil.Date) error { return nil }

func (t slotTx) SlotsOn(_ context.Context, hcpID uuid.UUID, date civil.Date) ([]schedule.Slot, error) {
	return filterSlots(*t.st, func(s schedule.Slot) bool {
		return s.HcpID == hcpID && s.Date == date
	}), nil
}

func (t slotTx) SlotByID(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	s, ok := t.st.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	return &s, nil
}

func (t slotTx) InsertSlot(_ context.Context, s schedule.Slot) error {
	t.st.slots[s.ID] = s
	return nil
}

func (t slotTx) DeleteFreeSlot(_ context.Context, id uuid.UUID) (bool, error) {
	s, ok := t.st.slots[id]
	if !ok || s.Occupancy != schedule.OccupancyFree {
		return false, nil
	}
	delete(t.st.slots, id)
	return true, nil
}
