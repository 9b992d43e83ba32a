package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const envelopeVersion = 1

// Actor records who caused an event: an operator at the till or a channel
// such as "online" for checkout sessions.
type Actor struct {
	OperatorID *uuid.UUID `json:"operatorId,omitempty"`
	Role       string     `json:"role,omitempty"`
	Source     string     `json:"source,omitempty"`
}

// Envelope is the JSON document stored in outbox_events.payload and
// published verbatim as the message body.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *Actor          `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Seal encodes event data into a fresh envelope.
func Seal(event DomainEvent, now time.Time) (Envelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	version := event.Version
	if version == 0 {
		version = envelopeVersion
	}
	return Envelope{
		Version:    version,
		EventID:    uuid.NewString(),
		OccurredAt: occurred.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}, nil
}

// Open decodes a stored envelope and rejects one with no data.
func Open(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Envelope{}, errors.New("envelope carries no data")
	}
	return env, nil
}
