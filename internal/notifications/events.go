package notifications

import (
	"encoding/json"

	"sharify/internal/querykeys"
)

// Event types pushed to websocket clients.
const (
	EventInvalidate      = "invalidate"
	EventSignedOut       = "SIGNED_OUT"
	EventMessagesDropped = "messages_dropped"
	EventHello           = "hello"
)

// Event is the envelope every pushed message uses.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InvalidatePayload carries committed changes and the keys they make stale,
// rendered as strings so clients without the graph can still act on them.
type InvalidatePayload struct {
	Changes []querykeys.Change `json:"changes"`
	Keys    []string           `json:"keys"`
}

// SignedOutPayload tells a user's other sessions that their token is revoked.
type SignedOutPayload struct {
	UserID uint   `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

// NewEvent marshals payload into an Event.
func NewEvent(eventType string, payload any) (Event, error) {
	ev := Event{Type: eventType}
	if payload == nil {
		return ev, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	ev.Payload = raw
	return ev, nil
}

// InvalidationEvent builds the event for changes using graph g.
func InvalidationEvent(g *querykeys.Graph, changes ...querykeys.Change) (Event, error) {
	affected := g.Affected(changes...)
	keys := make([]string, 0, len(affected))
	for _, k := range affected {
		keys = append(keys, k.String())
	}
	return NewEvent(EventInvalidate, InvalidatePayload{Changes: changes, Keys: keys})
}

// Encode renders ev as the wire text.
func (ev Event) Encode() (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
