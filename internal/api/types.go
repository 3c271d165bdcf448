package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/apperr"
	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/civil"
	"github.com/hackgods/hospital-scheduling/internal/schedule"
)

type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Conflict any    `json:"conflict,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AddSlotRequest struct {
	HcpID     uuid.UUID       `json:"hcp_id"`
	SlotDate  civil.Date      `json:"slot_date"`
	StartTime civil.TimeOfDay `json:"start_time"`
	EndTime   civil.TimeOfDay `json:"end_time"`
}

func (r AddSlotRequest) toDomain() schedule.AddSlotRequest {
	return schedule.AddSlotRequest{HcpID: r.HcpID, Date: r.SlotDate, Start: r.StartTime, End: r.EndTime}
}

// weekdayField accepts "Monday", "mon" or 0-6.
type weekdayField struct {
	day time.Weekday
	set bool
}

func (w *weekdayField) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*w = weekdayField{}
		return nil
	}
	day, err := civil.ParseWeekday(raw)
	if err != nil {
		return err
	}
	*w = weekdayField{day: day, set: true}
	return nil
}

type RecurringSlotRequest struct {
	HcpID       uuid.UUID       `json:"hcp_id"`
	DayOfWeek   weekdayField    `json:"day_of_week"`
	StartTime   civil.TimeOfDay `json:"start_time"`
	EndTime     civil.TimeOfDay `json:"end_time"`
	StartDate   civil.Date      `json:"start_date"`
	RepeatUntil civil.Date      `json:"repeat_until"`
}

func (r RecurringSlotRequest) toDomain() (schedule.RecurringRequest, error) {
	if !r.DayOfWeek.set {
		return schedule.RecurringRequest{}, apperr.Validation("day_of_week is required")
	}
	return schedule.RecurringRequest{
		HcpID:       r.HcpID,
		DayOfWeek:   r.DayOfWeek.day,
		Start:       r.StartTime,
		End:         r.EndTime,
		StartDate:   r.StartDate,
		RepeatUntil: r.RepeatUntil,
	}, nil
}

type RecurringSlotResponse struct {
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Slots   []schedule.Slot `json:"slots"`
}

// BookRequest is the wire form of both booking kinds. The front desk sends
// doctor_id where the patient portal sends hcp_id.
type BookRequest struct {
	PatientID uuid.UUID  `json:"patient_id"`
	HcpID     *uuid.UUID `json:"hcp_id"`
	DoctorID  *uuid.UUID `json:"doctor_id"`
	SlotID    *uuid.UUID `json:"slot_id"`
	Date      civil.Date `json:"date"`
	DateTime  *time.Time `json:"date_time"`
	Priority  string     `json:"priority"`
	Notes     string     `json:"notes"`
}

func (r BookRequest) hcpID() uuid.UUID {
	switch {
	case r.HcpID != nil:
		return *r.HcpID
	case r.DoctorID != nil:
		return *r.DoctorID
	}
	return uuid.Nil
}

func (r BookRequest) toBooking() (appointment.Booking, error) {
	priority := appointment.PriorityNormal
	if r.Priority != "" {
		p, ok := appointment.ParsePriority(r.Priority)
		if !ok {
			return nil, apperr.Validation("priority must be Normal or Emergency, got %q", r.Priority)
		}
		priority = p
	}

	if priority == appointment.PriorityEmergency {
		if r.SlotID != nil && *r.SlotID != uuid.Nil {
			return nil, apperr.Validation("slot_id must be empty for an Emergency booking")
		}
		return appointment.EmergencyBooking{
			PatientID: r.PatientID,
			HcpID:     r.hcpID(),
			Date:      r.Date,
			DateTime:  r.DateTime,
			Notes:     r.Notes,
		}, nil
	}

	if r.SlotID == nil || *r.SlotID == uuid.Nil {
		return nil, apperr.Validation("slot_id is required for a Normal booking")
	}
	return appointment.NormalBooking{
		PatientID: r.PatientID,
		HcpID:     r.hcpID(),
		SlotID:    *r.SlotID,
		Date:      r.Date,
		Notes:     r.Notes,
	}, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type PaymentInput struct {
	AmountPaid    admission.Money `json:"amount_paid"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   string          `json:"payment_date"`
	TransactionID string          `json:"transaction_id"`
	Note          string          `json:"note"`
}

type AdmitRequest struct {
	PatientID      uuid.UUID        `json:"patient_id"`
	RoomID         uuid.UUID        `json:"room_id"`
	AdmitDate      *time.Time       `json:"admit_date"`
	TotalFees      admission.Money  `json:"total_fees"`
	RemainingFees  *admission.Money `json:"remaining_fees"`
	FeePaidDetails []PaymentInput   `json:"fee_paid_details"`
}

func (r AdmitRequest) toDomain() (admission.AdmitRequest, error) {
	payments := make([]admission.Payment, 0, len(r.FeePaidDetails))
	for i, p := range r.FeePaidDetails {
		date, err := parseTimestamp(p.PaymentDate)
		if err != nil {
			return admission.AdmitRequest{}, apperr.Validation("fee_paid_details[%d].payment_date: %v", i, err)
		}
		payments = append(payments, admission.Payment{
			AmountPaid:    p.AmountPaid,
			PaymentMethod: p.PaymentMethod,
			PaymentDate:   date,
			TransactionID: p.TransactionID,
			Note:          p.Note,
		})
	}
	return admission.AdmitRequest{
		PatientID:      r.PatientID,
		RoomID:         r.RoomID,
		AdmitDate:      r.AdmitDate,
		TotalFees:      r.TotalFees,
		RemainingFees:  r.RemainingFees,
		FeePaidDetails: payments,
	}, nil
}

type AddFeesRequest struct {
	ExtraAmount   admission.Money `json:"extra_amount"`
	PaidAmount    admission.Money `json:"paid_amount"`
	Method        string          `json:"method"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	Note          string          `json:"note"`
}

func (r AddFeesRequest) toDomain() admission.AddFeesRequest {
	method := r.PaymentMethod
	if method == "" {
		method = r.Method
	}
	return admission.AddFeesRequest{
		ExtraAmount:   r.ExtraAmount,
		PaidAmount:    r.PaidAmount,
		PaymentMethod: method,
		TransactionID: r.TransactionID,
		Note:          r.Note,
	}
}

// flexInt accepts 4 and "4"; the room form posts numbers as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %q", raw)
	}
	*f = flexInt(n)
	return nil
}

type RoomRequest struct {
	RoomNumber    string          `json:"room_number"`
	Type          string          `json:"type"`
	RoomType      string          `json:"room_type"`
	Capacity      flexInt         `json:"capacity"`
	ChargesPerDay admission.Money `json:"charges_per_day"`
}

func (r RoomRequest) toDomain() admission.RoomRequest {
	t := r.RoomType
	if t == "" {
		t = r.Type
	}
	return admission.RoomRequest{
		RoomNumber:    r.RoomNumber,
		Type:          admission.RoomType(t),
		Capacity:      int(r.Capacity),
		ChargesPerDay: r.ChargesPerDay,
	}
}

// parseTimestamp accepts RFC3339 and plain dates. Empty means unset.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.In(time.UTC), nil
}
