// File: internal/remote/protocol.go

// Package remote implements the controller/agent wire protocol: a controller
// hub that fans typing commands out to connected agents over websockets, and
// the agent that executes them.
package remote

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message types on the wire.
const (
	// Controller to agent.
	TypeStartTyping = "start_typing"
	TypeStopTyping  = "stop_typing"

	// Agent to controller.
	TypeReady    = "ready"
	TypeStatus   = "status"
	TypeProgress = "progress"
)

// Status values carried by TypeStatus messages.
const (
	StatusBusy = "busy"
	StatusFree = "free"
)

// Message is the single envelope for every frame in both directions. Fields
// irrelevant to a given type are omitted from the encoding.
type Message struct {
	Type string `json:"type"`

	// start_typing payload.
	Text          string `json:"text,omitempty"`
	MinDelay      int    `json:"minDelay,omitempty"`
	MaxDelay      int    `json:"maxDelay,omitempty"`
	MouseMovement bool   `json:"mouseMovement,omitempty"`
	IdleScroll    bool   `json:"idleScroll,omitempty"`

	// status payload.
	Status string `json:"status,omitempty"`

	// progress payload, percent of text consumed.
	Progress int `json:"progress,omitempty"`
}

// Encode serializes a message for the wire.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("remote: encode %q message: %w", m.Type, err)
	}
	return data, nil
}

// Decode parses a frame off the wire. Frames without a type are rejected.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("remote: decode message: %w", err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("remote: message missing type")
	}
	return m, nil
}
