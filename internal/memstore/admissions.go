package memstore

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/admission"
	"github.com/hackgods/hospital-scheduling/internal/apperr"
)

type AdmissionRepository struct {
	store *Store
}

var _ admission.Repository = (*AdmissionRepository)(nil)

// copyAdmission detaches the ledger slice so callers never share a backing
// array with the store.
func copyAdmission(a admission.Admission) admission.Admission {
	a.FeePaidDetails = append([]admission.Payment{}, a.FeePaidDetails...)
	if a.DischargeDate != nil {
		d := *a.DischargeDate
		a.DischargeDate = &d
	}
	return a
}

func (r *AdmissionRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx admission.Tx) error) error {
	return r.store.inTx(ctx, func(ctx context.Context) error {
		return fn(ctx, admissionTx{st: &r.store.st})
	})
}

func (r *AdmissionRepository) AdmissionByID(_ context.Context, id uuid.UUID) (*admission.Admission, error) {
	var (
		a  admission.Admission
		ok bool
	)
	r.store.read(func(st state) {
		a, ok = st.admissions[id]
		a = copyAdmission(a)
	})
	if !ok {
		return nil, admission.ErrAdmissionNotFound
	}
	return &a, nil
}

func (r *AdmissionRepository) ListActive(_ context.Context) ([]admission.Admission, error) {
	out := []admission.Admission{}
	r.store.read(func(st state) {
		for _, a := range st.admissions {
			if a.Active() {
				out = append(out, copyAdmission(a))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AdmitDate.Equal(out[j].AdmitDate) {
			return out[i].AdmitDate.Before(out[j].AdmitDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *AdmissionRepository) RoomByID(_ context.Context, id uuid.UUID) (*admission.Room, error) {
	var (
		room admission.Room
		ok   bool
	)
	r.store.read(func(st state) { room, ok = st.rooms[id] })
	if !ok {
		return nil, admission.ErrRoomNotFound
	}
	return &room, nil
}

func (r *AdmissionRepository) ListRooms(_ context.Context, f admission.RoomFilter) ([]admission.Room, error) {
	out := []admission.Room{}
	r.store.read(func(st state) {
		for _, room := range st.rooms {
			if f.Type != "" && room.Type != f.Type {
				continue
			}
			if f.Status != "" && room.Status != f.Status {
				continue
			}
			out = append(out, room)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

type admissionTx struct {
	st *state
}

func (t admissionTx) LockRoom(_ context.Context, id uuid.UUID) (*admission.Room, error) {
	room, ok := t.st.rooms[id]
	if !ok {
		return nil, admission.ErrRoomNotFound
	}
	return &room, nil
}

func (t admissionTx) CountActive(_ context.Context, roomID uuid.UUID) (int, error) {
	n := 0
	for _, a := range t.st.admissions {
		if a.RoomID == roomID && a.Active() {
			n++
		}
	}
	return n, nil
}

func (t admissionTx) SetRoomStatus(_ context.Context, roomID uuid.UUID, status admission.RoomStatus, at time.Time) error {
	room, ok := t.st.rooms[roomID]
	if !ok {
		return admission.ErrRoomNotFound
	}
	room.Status = status
	room.UpdatedAt = at
	t.st.rooms[roomID] = room
	return nil
}

func (t admissionTx) numberTaken(room admission.Room) bool {
	for _, other := range t.st.rooms {
		if other.ID != room.ID && other.RoomNumber == room.RoomNumber {
			return true
		}
	}
	return false
}

func (t admissionTx) InsertRoom(_ context.Context, room admission.Room) error {
	if t.numberTaken(room) {
		return apperr.Conflict(admission.ErrRoomNumberTaken, "room number %s already exists", room.RoomNumber)
	}
	t.st.rooms[room.ID] = room
	return nil
}

func (t admissionTx) UpdateRoom(_ context.Context, room admission.Room) error {
	if _, ok := t.st.rooms[room.ID]; !ok {
		return admission.ErrRoomNotFound
	}
	if t.numberTaken(room) {
		return apperr.Conflict(admission.ErrRoomNumberTaken, "room number %s already exists", room.RoomNumber)
	}
	t.st.rooms[room.ID] = room
	return nil
}

func (t admissionTx) DeleteRoom(_ context.Context, id uuid.UUID) error {
	delete(t.st.rooms, id)
	return nil
}

func (t admissionTx) ActiveAdmissionFor(_ context.Context, patientID uuid.UUID) (*admission.Admission, error) {
	for _, a := range t.st.admissions {
		if a.PatientID == patientID && a.Active() {
			a = copyAdmission(a)
			return &a, nil
		}
	}
	return nil, admission.ErrAdmissionNotFound
}

func (t admissionTx) InsertAdmission(_ context.Context, a admission.Admission) error {
	t.st.admissions[a.ID] = copyAdmission(a)
	return nil
}

func (t admissionTx) LockAdmission(_ context.Context, id uuid.UUID) (*admission.Admission, error) {
	a, ok := t.st.admissions[id]
	if !ok {
		return nil, admission.ErrAdmissionNotFound
	}
	a = copyAdmission(a)
	return &a, nil
}

func (t admissionTx) AppendPayment(_ context.Context, admissionID uuid.UUID, p admission.Payment) error {
	a, ok := t.st.admissions[admissionID]
	if !ok {
		return admission.ErrAdmissionNotFound
	}
	a.FeePaidDetails = append(slices.Clip(a.FeePaidDetails), p)
	t.st.admissions[admissionID] = a
	return nil
}

func (t admissionTx) UpdateFees(_ context.Context, id uuid.UUID, total, remaining admission.Money, at time.Time) error {
	a, ok := t.st.admissions[id]
	if !ok {
		return admission.ErrAdmissionNotFound
	}
	a.TotalFees = total
	a.RemainingFees = remaining
	a.UpdatedAt = at
	t.st.admissions[id] = a
	return nil
}

func (t admissionTx) MarkDischarged(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := t.st.admissions[id]
	if !ok {
		return admission.ErrAdmissionNotFound
	}
	if !a.Active() {
		return apperr.State(admission.ErrAlreadyDischarged, "admission %s is already discharged", id)
	}
	a.DischargeDate = &at
	a.UpdatedAt = at
	t.st.admissions[id] = a
	return nil
}
