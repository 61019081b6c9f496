// Package protocol defines the wire format of the event channel shared by
// the server and the client: the frame envelope, event names and the
// typed request payloads.
package protocol

import "encoding/json"

// Frame is one websocket text message.
//
// A request carries ID and Event. The server answers it with a frame whose
// Ack equals the request ID and whose Data is an ack object. Server pushes
// carry Event and Data only.
type Frame struct {
	ID    uint64          `json:"id,omitempty"`
	Event string          `json:"event,omitempty"`
	Ack   uint64          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// IsAck reports whether f answers a request.
func (f *Frame) IsAck() bool {
	return f.Ack != 0
}

// Ack is the status part of an ack payload. A successful ack has Success
// set and carries result fields next to it; a failed one has only Error.
type Ack struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewPush builds a server push frame.
func NewPush(event string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: data}, nil
}
