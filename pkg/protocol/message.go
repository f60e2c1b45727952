// Package protocol defines the messages exchanged between the browser client
// and a live wizard session, and the codecs that put them on the wire.
package protocol

// Event names with protocol meaning. Anything else is a user event for the
// component.
const (
	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventReply     = "phx_reply"
	EventHeartbeat = "heartbeat"
	EventDiff      = "diff"
	EventJS        = "js"
)

// Reply statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Message is one protocol frame.
type Message struct {
	// Ref correlates a reply with its request.
	Ref string `json:"ref,omitempty" msgpack:"ref,omitempty"`

	// Topic is the session channel, "lv:<socket id>".
	Topic string `json:"topic" msgpack:"topic"`

	Event string `json:"event" msgpack:"event"`

	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// Topic returns the channel name of a socket.
func Topic(socketID string) string {
	return "lv:" + socketID
}

// PayloadString returns a string payload value, or "".
func (m *Message) PayloadString(key string) string {
	if m.Payload == nil {
		return ""
	}
	s, _ := m.Payload[key].(string)
	return s
}

// ToInt converts a decoded number to int. JSON numbers arrive as float64
// and msgpack integers as one of the sized int types.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), float32(int(n)) == n
	case float64:
		return int(n), float64(int(n)) == n
	default:
		return 0, false
	}
}

// Reply builds a phx_reply.
func Reply(ref, topic, status string, response map[string]any) Message {
	return Message{
		Ref:   ref,
		Topic: topic,
		Event: EventReply,
		Payload: map[string]any{
			"status":   status,
			"response": response,
		},
	}
}

// OkReply builds a successful reply.
func OkReply(ref, topic string, response map[string]any) Message {
	return Reply(ref, topic, StatusOK, response)
}

// ErrorReply builds an error reply carrying reason.
func ErrorReply(ref, topic, reason string) Message {
	return Reply(ref, topic, StatusError, map[string]any{"reason": reason})
}

// Push builds a server-initiated event.
func Push(topic, event string, payload map[string]any) Message {
	return Message{Topic: topic, Event: event, Payload: payload}
}
