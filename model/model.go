package model

import "encoding/json"

// Inbound event names, sent by clients.
const (
	EventSetup      = "setup"
	EventJoinChat   = "join-chat"
	EventTyping     = "typing"
	EventStopTyping = "stop-typing"
	EventNewMessage = "new-message"
)

// Outbound event names, sent by server.
const (
	EventConnected       = "connected"
	EventMessageReceived = "message-received"
)

// Inbound is a client frame. Data stays raw until the dispatcher
// knows which shape the event carries.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is a server frame.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type UserRef struct {
	ID string `json:"_id"`
}

type ChatRef struct {
	ID    string    `json:"_id,omitempty"`
	Users []UserRef `json:"users"`
}

// MessagePayload is the routable part of a new-message event. The relay
// forwards the original raw frame data; this struct only exists so the
// relay can read the sender and the participant list.
type MessagePayload struct {
	Sender UserRef `json:"sender"`
	Chat   ChatRef `json:"chat"`
}

type Wire struct {
	TX chan Outbound
}

func NewWire() Wire {
	return Wire{
		TX: make(chan Outbound),
	}
}
