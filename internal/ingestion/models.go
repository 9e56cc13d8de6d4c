package ingestion

import (
	"encoding/json"
	"time"
)

// LocationMessage is a GPS report published by an embedded reporter.
type LocationMessage struct {
	DeviceID     string    `json:"device_id"`
	Timestamp    time.Time `json:"timestamp"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	BatteryLevel *float64  `json:"battery_level"`
	SpeedKmh     *float64  `json:"speed"`
}

// StatusMessage is a device status update (battery, firmware). Currently
// logged only.
type StatusMessage struct {
	DeviceID        string    `json:"device_id"`
	Timestamp       time.Time `json:"timestamp"`
	Status          string    `json:"status"`
	BatteryLevel    *float64  `json:"battery_level"`
	FirmwareVersion string    `json:"firmware_version"`
}

// ParseLocationMessage parses a JSON payload into a LocationMessage.
func ParseLocationMessage(payload []byte) (*LocationMessage, error) {
	var msg LocationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	// Set timestamp if not provided
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return &msg, nil
}

// ParseStatusMessage parses a JSON payload into a StatusMessage.
func ParseStatusMessage(payload []byte) (*StatusMessage, error) {
	var msg StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return &msg, nil
}
