package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/types"
)

const currentEnvelopeVersion = 1

// ActorRef identifies who caused the event. Omitted for system writes.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is the stored and published shape of every outbox payload.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// ActorFrom converts a caller identity into the envelope's actor reference.
func ActorFrom(actor *types.Actor) *ActorRef {
	if actor == nil {
		return nil
	}
	return &ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
}

func sealEnvelope(event DomainEvent, now func() time.Time) (PayloadEnvelope, json.RawMessage, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return PayloadEnvelope{}, nil, err
	}
	env := PayloadEnvelope{
		Version:    event.Version,
		EventID:    uuid.NewString(),
		OccurredAt: event.OccurredAt.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}
	if env.Version == 0 {
		env.Version = currentEnvelopeVersion
	}
	if event.OccurredAt.IsZero() {
		env.OccurredAt = now().UTC()
	}
	sealed, err := json.Marshal(env)
	return env, sealed, err
}
