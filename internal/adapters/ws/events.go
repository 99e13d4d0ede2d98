package ws

import "encoding/json"

// Event names form the wire contract a compatible client implements.
const (
	// consumed from clients
	EventJoinSession  = "join-session"
	EventChatMessage  = "chat-message"
	EventResetSession = "reset-session"

	// emitted to rooms
	EventSessionHistory = "session-history"
	EventBotTyping      = "bot-typing"
	EventMessageAdded   = "message-added"
	EventError          = "error"
	EventSessionReset   = "session-reset"
)

// Envelope is the framing for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newEnvelope(event string, data any) Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		// All outbound payloads are our own structs; a marshal failure is a
		// programming error and the empty payload is the safer fallback.
		return Envelope{Event: event}
	}
	return Envelope{Event: event, Data: raw}
}

type joinPayload struct {
	SessionID string `json:"sessionId"`
}

type chatPayload struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type errorPayload struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfterSeconds,omitempty"`
}
