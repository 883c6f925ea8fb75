package signal

import (
	"encoding/json"
	"fmt"
)

// Phoenix control events.
const (
	EventJoin      = "phx_join"
	EventReply     = "phx_reply"
	EventError     = "phx_error"
	EventClose     = "phx_close"
	EventLeave     = "phx_leave"
	EventHeartbeat = "heartbeat"

	TopicPhoenix = "phoenix"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Message is one Phoenix v2 frame: [join_ref, ref, topic, event, payload].
// Empty refs are encoded as null.
type Message struct {
	JoinRef string
	Ref     string
	Topic   string
	Event   string
	Payload json.RawMessage
}

type Reply struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

var emptyPayload = json.RawMessage("{}")

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (m Message) MarshalJSON() ([]byte, error) {
	payload := m.Payload
	if len(payload) == 0 {
		payload = emptyPayload
	}
	return json.Marshal([]any{nullable(m.JoinRef), nullable(m.Ref), m.Topic, m.Event, payload})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 5 {
		return fmt.Errorf("phoenix frame: want 5 elements, got %d", len(parts))
	}
	var joinRef, ref *string
	if err := json.Unmarshal(parts[0], &joinRef); err != nil {
		return fmt.Errorf("phoenix frame join_ref: %w", err)
	}
	if err := json.Unmarshal(parts[1], &ref); err != nil {
		return fmt.Errorf("phoenix frame ref: %w", err)
	}
	var out Message
	if err := json.Unmarshal(parts[2], &out.Topic); err != nil {
		return fmt.Errorf("phoenix frame topic: %w", err)
	}
	if err := json.Unmarshal(parts[3], &out.Event); err != nil {
		return fmt.Errorf("phoenix frame event: %w", err)
	}
	if joinRef != nil {
		out.JoinRef = *joinRef
	}
	if ref != nil {
		out.Ref = *ref
	}
	out.Payload = parts[4]
	*m = out
	return nil
}

func encodePayload(v any) (json.RawMessage, error) {
	if v == nil {
		return emptyPayload, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
