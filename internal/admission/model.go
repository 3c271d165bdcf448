package admission

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/directory"
)

type RoomType string

const (
	RoomNormal  RoomType = "Normal"
	RoomICU     RoomType = "ICU"
	RoomGeneral RoomType = "General"
)

var RoomTypes = []RoomType{RoomNormal, RoomICU, RoomGeneral}

func ParseRoomType(s string) (RoomType, bool) {
	for _, t := range RoomTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type RoomStatus string

const (
	RoomAvailable         RoomStatus = "Available"
	RoomOccupied          RoomStatus = "Occupied"
	RoomPartiallyOccupied RoomStatus = "PartiallyOccupied"
)

type Room struct {
	ID            uuid.UUID  `json:"room_id"`
	RoomNumber    string     `json:"room_number"`
	Type          RoomType   `json:"room_type"`
	Capacity      int        `json:"capacity"`
	ChargesPerDay Money      `json:"charges_per_day"`
	Status        RoomStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Beds is how many patients the room holds at once. Only General wards hold
// more than one.
func (r Room) Beds() int {
	if r.Type != RoomGeneral {
		return 1
	}
	if r.Capacity < 1 {
		return 1
	}
	return r.Capacity
}

// StatusFor derives the room status from its active admissions.
func (r Room) StatusFor(occupants int) RoomStatus {
	switch {
	case occupants <= 0:
		return RoomAvailable
	case occupants >= r.Beds():
		return RoomOccupied
	default:
		return RoomPartiallyOccupied
	}
}

type Payment struct {
	AmountPaid    Money     `json:"amount_paid"`
	PaymentMethod string    `json:"payment_method"`
	PaymentDate   time.Time `json:"payment_date"`
	TransactionID string    `json:"transaction_id"`
	Note          string    `json:"note"`
}

type Admission struct {
	ID             uuid.UUID  `json:"admission_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	RoomID         uuid.UUID  `json:"room_id"`
	AdmitDate      time.Time  `json:"admit_date"`
	DischargeDate  *time.Time `json:"discharge_date"`
	TotalFees      Money      `json:"total_fees"`
	RemainingFees  Money      `json:"remaining_fees"`
	FeePaidDetails []Payment  `json:"fee_paid_details"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (a Admission) Active() bool { return a.DischargeDate == nil }

// Paid sums the ledger.
func (a Admission) Paid() Money {
	var sum Money
	for _, p := range a.FeePaidDetails {
		sum += p.AmountPaid
	}
	return sum
}

type AdmitRequest struct {
	PatientID      uuid.UUID
	RoomID         uuid.UUID
	AdmitDate      *time.Time
	TotalFees      Money
	RemainingFees  *Money
	FeePaidDetails []Payment
}

type AddFeesRequest struct {
	ExtraAmount   Money
	PaidAmount    Money
	PaymentMethod string
	TransactionID string
	Note          string
}

type RoomRequest struct {
	RoomNumber    string
	Type          RoomType
	Capacity      int
	ChargesPerDay Money
}

// AdmittedPatient is one row of the admitted-patients board.
type AdmittedPatient struct {
	Admission
	PatientName string   `json:"patient_name"`
	RoomNumber  string   `json:"room_number"`
	RoomType    RoomType `json:"room_type"`
}

type Stay struct {
	AdmissionID   uuid.UUID `json:"admission_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	AdmitDate     time.Time `json:"admit_date"`
	DischargeDate time.Time `json:"discharge_date"`
	StayDays      int       `json:"stay_days"`
}

type Billing struct {
	TotalFees     Money     `json:"total_fees"`
	FeePaid       Money     `json:"fee_paid"`
	RemainingFees Money     `json:"remaining_fees"`
	Payments      []Payment `json:"payments"`
}

// BillingSummary is what the discharge document is rendered from.
type BillingSummary struct {
	Patient   *directory.Patient `json:"patient"`
	Admission Stay               `json:"admission"`
	Room      Room               `json:"room"`
	Billing   Billing            `json:"billing"`
}
