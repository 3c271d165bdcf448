// Package events keeps the audit trail of state changes in event_logs.
// Recording is best effort: a failed insert is logged and never fails the
// operation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	SlotCreated          = "SLOT_CREATED"
	SlotsGenerated       = "SLOTS_GENERATED"
	SlotDeleted          = "SLOT_DELETED"
	AppointmentBooked    = "APPOINTMENT_BOOKED"
	AppointmentCompleted = "APPOINTMENT_COMPLETED"
	AppointmentCancelled = "APPOINTMENT_CANCELLED"
	PatientAdmitted      = "PATIENT_ADMITTED"
	FeesUpdated          = "FEES_UPDATED"
	PatientDischarged    = "PATIENT_DISCHARGED"
)

const (
	AggregateSlot        = "slot"
	AggregateAppointment = "appointment"
	AggregateAdmission   = "admission"
)

type Event struct {
	ID            int64           `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Store interface {
	Insert(ctx context.Context, ev Event) error
}

type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record stores one event. payload is marshalled to JSON.
func (r *Recorder) Record(ctx context.Context, eventType, aggregateType string, aggregateID uuid.UUID, payload any) {
	if r == nil || r.store == nil {
		return
	}
	logger := zerolog.Ctx(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}

	ev := Event{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       body,
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.store.Insert(context.WithoutCancel(ctx), ev); err != nil {
		logger.Warn().Err(err).
			Str("event_type", eventType).
			Stringer("aggregate_id", aggregateID).
			Msg("failed to insert event log")
	}
}

// MemoryStore keeps events in process for the memory storage driver.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ev.ID = m.nextID
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of everything recorded so far, oldest first.
func (m *MemoryStore) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Types lists the recorded event types in order.
func (m *MemoryStore) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.EventType)
	}
	return out
}
