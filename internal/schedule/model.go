package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/civil"
)

type Occupancy string

const (
	OccupancyFree   Occupancy = "Free"
	OccupancyBooked Occupancy = "Booked"
)

// Slot is one bookable interval [Start, End) on a clinician's calendar.
type Slot struct {
	ID        uuid.UUID       `json:"slot_id"`
	HcpID     uuid.UUID       `json:"hcp_id"`
	Date      civil.Date      `json:"slot_date"`
	Start     civil.TimeOfDay `json:"start_time"`
	End       civil.TimeOfDay `json:"end_time"`
	Occupancy Occupancy       `json:"occupancy"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s Slot) Overlaps(o Slot) bool {
	return s.HcpID == o.HcpID && s.Date == o.Date && civil.Overlaps(s.Start, s.End, o.Start, o.End)
}

// StartsAt is the slot's start as an instant in loc.
func (s Slot) StartsAt(loc *time.Location) time.Time {
	return s.Date.At(s.Start, loc)
}

// Conflict identifies a slot that blocks a new one.
type Conflict struct {
	SlotID    uuid.UUID       `json:"slot_id"`
	SlotDate  civil.Date      `json:"slot_date"`
	StartTime civil.TimeOfDay `json:"start_time"`
	EndTime   civil.TimeOfDay `json:"end_time"`
}

func (s Slot) Conflict() Conflict {
	return Conflict{SlotID: s.ID, SlotDate: s.Date, StartTime: s.Start, EndTime: s.End}
}

type AddSlotRequest struct {
	HcpID uuid.UUID
	Date  civil.Date
	Start civil.TimeOfDay
	End   civil.TimeOfDay
}

type RecurringRequest struct {
	HcpID       uuid.UUID
	DayOfWeek   time.Weekday
	Start       civil.TimeOfDay
	End         civil.TimeOfDay
	StartDate   civil.Date
	RepeatUntil civil.Date
}
