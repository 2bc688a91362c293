package model

import (
	"time"

	"github.com/goccy/go-json"
)

// MessageType is the type of a push channel envelope
type MessageType string

const (
	MTHello        MessageType = "hello"
	MTPositions    MessageType = "positions"
	MTCarData      MessageType = "car_data"
	MTLocationData MessageType = "location_data"
	MTWeather      MessageType = "weather"
	MTRaceControl  MessageType = "race_control"
	MTSessionInfo  MessageType = "session_info"
	MTCommand      MessageType = "command"
	MTState        MessageType = "state"
)

// Envelope is the frame exchanged on the push channel
type Envelope struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hello is sent by the push server after the connection is established
type Hello struct {
	Version string `json:"version"`
}
