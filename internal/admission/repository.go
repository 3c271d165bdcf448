package admission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAdmissionNotFound = errors.New("admission not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrAlreadyDischarged = errors.New("admission already discharged")
	ErrPatientAdmitted   = errors.New("patient already has an active admission")
	ErrRoomFull          = errors.New("room has no free bed")
	ErrRoomOccupied      = errors.New("room is occupied")
	ErrRoomNumberTaken   = errors.New("room number already exists")
	ErrAdmissionBusy     = errors.New("admission is being updated")
)

// Tx locks an admission before its room when it needs both.
type Tx interface {
	LockRoom(ctx context.Context, id uuid.UUID) (*Room, error)
	CountActive(ctx context.Context, roomID uuid.UUID) (int, error)
	SetRoomStatus(ctx context.Context, roomID uuid.UUID, status RoomStatus, at time.Time) error
	InsertRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	DeleteRoom(ctx context.Context, id uuid.UUID) error

	// ActiveAdmissionFor returns ErrAdmissionNotFound when the patient is not
	// admitted.
	ActiveAdmissionFor(ctx context.Context, patientID uuid.UUID) (*Admission, error)
	InsertAdmission(ctx context.Context, a Admission) error
	LockAdmission(ctx context.Context, id uuid.UUID) (*Admission, error)
	AppendPayment(ctx context.Context, admissionID uuid.UUID, p Payment) error
	UpdateFees(ctx context.Context, id uuid.UUID, total, remaining Money, at time.Time) error
	MarkDischarged(ctx context.Context, id uuid.UUID, at time.Time) error
}

type RoomFilter struct {
	Type   RoomType
	Status RoomStatus
}

type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	AdmissionByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	// ListActive orders by admit date.
	ListActive(ctx context.Context) ([]Admission, error)
	RoomByID(ctx context.Context, id uuid.UUID) (*Room, error)
	// ListRooms orders by room number.
	ListRooms(ctx context.Context, f RoomFilter) ([]Room, error)
}
