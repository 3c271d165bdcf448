package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/directory"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

type Priority string

const (
	PriorityNormal    Priority = "Normal"
	PriorityEmergency Priority = "Emergency"
)

func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityNormal, PriorityEmergency:
		return Priority(s), true
	}
	return "", false
}

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Appointment struct {
	ID        uuid.UUID  `json:"appointment_id"`
	PatientID uuid.UUID  `json:"patient_id"`
	HcpID     uuid.UUID  `json:"hcp_id"`
	SlotID    *uuid.UUID `json:"slot_id"`
	DateTime  time.Time  `json:"date_time"`
	Priority  Priority   `json:"priority"`
	Status    Status     `json:"status"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Detail is an appointment with the records it points at. Missing directory
// entries are left nil.
type Detail struct {
	Appointment
	Slot      *schedule.Slot       `json:"slot,omitempty"`
	Patient   *directory.Patient   `json:"patient,omitempty"`
	Clinician *directory.Clinician `json:"clinician,omitempty"`
}

// Booking is either a NormalBooking or an EmergencyBooking.
type Booking interface {
	Priority() Priority
	isBooking()
}

// NormalBooking claims a Free slot. HcpID and Date are optional; when set
// they must match the slot.
type NormalBooking struct {
	PatientID uuid.UUID
	HcpID     uuid.UUID
	SlotID    uuid.UUID
	Date      civil.Date
	Notes     string
}

func (NormalBooking) Priority() Priority { return PriorityNormal }
func (NormalBooking) isBooking()         {}

// EmergencyBooking bypasses slots. DateTime wins over Date; a booking for
// today or with neither set is timed now.
type EmergencyBooking struct {
	PatientID uuid.UUID
	HcpID     uuid.UUID
	Date      civil.Date
	DateTime  *time.Time
	Notes     string
}

func (EmergencyBooking) Priority() Priority { return PriorityEmergency }
func (EmergencyBooking) isBooking()         {}

type ListFilter struct {
	HcpID     *uuid.UUID
	PatientID *uuid.UUID
	Status    Status
	Priority  Priority
	Limit     int
	Offset    int
}

// Matches applies the filter to one appointment, ignoring paging.
func (f ListFilter) Matches(a Appointment) bool {
	if f.HcpID != nil && a.HcpID != *f.HcpID {
		return false
	}
	if f.PatientID != nil && a.PatientID != *f.PatientID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Priority != "" && a.Priority != f.Priority {
		return false
	}
	return true
}
