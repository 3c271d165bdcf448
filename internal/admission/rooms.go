package admission

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
)

func validateRoom(req RoomRequest) (RoomRequest, error) {
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if req.RoomNumber == "" {
		return req, apperr.Validation("room_number is required")
	}
	if _, ok := ParseRoomType(string(req.Type)); !ok {
		return req, apperr.Validation("room_type must be one of Normal, ICU, General")
	}
	if req.ChargesPerDay < 0 {
		return req, apperr.Validation("charges_per_day must not be negative")
	}

	switch req.Type {
	case RoomGeneral:
		if req.Capacity < 1 {
			return req, apperr.Validation("a General room needs a capacity of at least 1")
		}
	default:
		if req.Capacity > 1 {
			return req, apperr.Validation("%s rooms hold a single patient", req.Type)
		}
		req.Capacity = 1
	}
	return req, nil
}

func (s *Service) AddRoom(ctx context.Context, req RoomRequest) (*Room, error) {
	req, err := validateRoom(req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	room := Room{
		ID:            uuid.New(),
		RoomNumber:    req.RoomNumber,
		Type:          req.Type,
		Capacity:      req.Capacity,
		ChargesPerDay: req.ChargesPerDay,
		Status:        RoomAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertRoom(ctx, room)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Stringer("room_id", room.ID).Str("room_number", room.RoomNumber).Msg("room added")
	return &room, nil
}

// UpdateRoom edits a room. Capacity cannot drop below the current occupants
// and the type is fixed while anyone is admitted.
func (s *Service) UpdateRoom(ctx context.Context, id uuid.UUID, req RoomRequest) (*Room, error) {
	req, err := validateRoom(req)
	if err != nil {
		return nil, err
	}

	var updated *Room

	err = s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		room, err := tx.LockRoom(ctx, id)
		if err != nil {
			return notFoundRoom(err, id)
		}
		occupants, err := tx.CountActive(ctx, id)
		if err != nil {
			return fmt.Errorf("count occupants: %w", err)
		}
		if occupants > 0 && req.Type != room.Type {
			return apperr.State(ErrRoomOccupied, "room %s is occupied; its type cannot change", room.RoomNumber)
		}

		room.RoomNumber = req.RoomNumber
		room.Type = req.Type
		room.Capacity = req.Capacity
		room.ChargesPerDay = req.ChargesPerDay
		if occupants > room.Beds() {
			return apperr.State(ErrRoomOccupied, "room %s has %d occupants; capacity cannot be %d",
				room.RoomNumber, occupants, room.Capacity)
		}
		room.Status = room.StatusFor(occupants)
		room.UpdatedAt = s.now()

		if err := tx.UpdateRoom(ctx, *room); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Stringer("room_id", id).Str("status", string(updated.Status)).Msg("room updated")
	return updated, nil
}

func (s *Service) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		room, err := tx.LockRoom(ctx, id)
		if err != nil {
			return notFoundRoom(err, id)
		}
		occupants, err := tx.CountActive(ctx, id)
		if err != nil {
			return fmt.Errorf("count occupants: %w", err)
		}
		if occupants > 0 {
			return apperr.State(ErrRoomOccupied, "room %s is occupied and cannot be deleted", room.RoomNumber)
		}
		return tx.DeleteRoom(ctx, id)
	})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Stringer("room_id", id).Msg("room deleted")
	return nil
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	room, err := s.repo.RoomByID(ctx, id)
	if err != nil {
		return nil, notFoundRoom(err, id)
	}
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context, f RoomFilter) ([]Room, error) {
	if f.Type != "" {
		if _, ok := ParseRoomType(string(f.Type)); !ok {
			return nil, apperr.Validation("unknown room type %q", f.Type)
		}
	}
	rooms, err := s.repo.ListRooms(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListAvailableRooms groups rooms with at least one free bed by type. Every
// type is present in the result, possibly with no rooms.
func (s *Service) ListAvailableRooms(ctx context.Context) (map[RoomType][]Room, error) {
	rooms, err := s.ListRooms(ctx, RoomFilter{})
	if err != nil {
		return nil, err
	}

	out := make(map[RoomType][]Room, len(RoomTypes))
	for _, t := range RoomTypes {
		out[t] = []Room{}
	}
	for _, r := range rooms {
		if r.Status == RoomOccupied {
			continue
		}
		out[r.Type] = append(out[r.Type], r)
	}
	return out, nil
}

// ReconcileRooms recomputes every room's status from its active admissions
// and returns how many rooms were corrected.
func (s *Service) ReconcileRooms(ctx context.Context) (int, error) {
	rooms, err := s.repo.ListRooms(ctx, RoomFilter{})
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}

	fixed := 0
	for _, r := range rooms {
		var changed bool
		err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
			room, err := tx.LockRoom(ctx, r.ID)
			if err != nil {
				return err
			}
			occupants, err := tx.CountActive(ctx, room.ID)
			if err != nil {
				return err
			}
			want := room.StatusFor(occupants)
			if want == room.Status {
				return nil
			}
			changed = true
			return tx.SetRoomStatus(ctx, room.ID, want, s.now())
		})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Stringer("room_id", r.ID).Msg("failed to reconcile room")
			continue
		}
		if changed {
			fixed++
			zerolog.Ctx(ctx).Info().Stringer("room_id", r.ID).Str("room_number", r.RoomNumber).Msg("room status corrected")
		}
	}
	return fixed, nil
}
