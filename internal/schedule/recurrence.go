package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/events"
)

// ExpandDates lists every date in [from, until] that falls on weekday.
func ExpandDates(weekday time.Weekday, from, until civil.Date) []civil.Date {
	if until.Before(from) {
		return nil
	}
	offset := (int(weekday) - int(from.Weekday()) + 7) % 7
	var out []civil.Date
	for d := from.AddDays(offset); !d.After(until); d = d.AddDays(7) {
		out = append(out, d)
	}
	return out
}

// AddRecurring creates one slot per matching weekday in the range. Either
// every slot is created or none is: all conflicts are collected first and
// returned together.
func (s *Service) AddRecurring(ctx context.Context, req RecurringRequest) ([]Slot, error) {
	if err := validateInterval(req.HcpID, req.Start, req.End); err != nil {
		return nil, err
	}
	if req.StartDate.IsZero() || req.RepeatUntil.IsZero() {
		return nil, apperr.Validation("start_date and repeat_until are required")
	}
	if req.RepeatUntil.Before(req.StartDate) {
		return nil, apperr.Validation("repeat_until %s is before start_date %s", req.RepeatUntil, req.StartDate)
	}
	if req.RepeatUntil.DaysSince(req.StartDate) > s.maxWeeks*7 {
		return nil, apperr.Validation("recurrence may span at most %d weeks", s.maxWeeks)
	}

	dates := ExpandDates(req.DayOfWeek, req.StartDate, req.RepeatUntil)
	if len(dates) == 0 {
		return nil, apperr.Validation("no %s between %s and %s", req.DayOfWeek, req.StartDate, req.RepeatUntil)
	}

	now := s.now()
	generated := make([]Slot, 0, len(dates))
	for _, d := range dates {
		generated = append(generated, Slot{
			ID:        uuid.New(),
			HcpID:     req.HcpID,
			Date:      d,
			Start:     req.Start,
			End:       req.End,
			Occupancy: OccupancyFree,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		// dates are ascending, so locks are always taken in the same order.
		for _, d := range dates {
			if err := tx.LockSchedule(ctx, req.HcpID, d); err != nil {
				return fmt.Errorf("lock schedule %s: %w", d, err)
			}
		}

		var conflicts []Conflict
		for i, slot := range generated {
			existing, err := tx.SlotsOn(ctx, slot.HcpID, slot.Date)
			if err != nil {
				return fmt.Errorf("load slots %s: %w", slot.Date, err)
			}
			conflicts = append(conflicts, overlapping(existing, slot)...)
			conflicts = append(conflicts, overlapping(generated[:i], slot)...)
		}
		if len(conflicts) > 0 {
			return apperr.ConflictWith(ErrSlotConflict, conflicts,
				"%d generated slot(s) overlap existing slots", len(conflicts))
		}

		for _, slot := range generated {
			if err := tx.InsertSlot(ctx, slot); err != nil {
				return fmt.Errorf("insert slot %s: %w", slot.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Stringer("hcp_id", req.HcpID).
		Int("count", len(generated)).
		Stringer("start_date", req.StartDate).
		Stringer("repeat_until", req.RepeatUntil).
		Msg("recurring slots created")

	ids := make([]string, 0, len(generated))
	for _, slot := range generated {
		ids = append(ids, slot.ID.String())
	}
	s.events.Record(ctx, events.SlotsGenerated, events.AggregateSlot, generated[0].ID, map[string]any{
		"hcp_id":       req.HcpID,
		"day_of_week":  req.DayOfWeek.String(),
		"start_time":   req.Start,
		"end_time":     req.End,
		"start_date":   req.StartDate,
		"repeat_until": req.RepeatUntil,
		"slot_ids":     ids,
	})

	return generated, nil
}
