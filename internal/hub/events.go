package hub

import (
	"time"

	"ambulance-tracker/internal/domain/tracking"
)

// Event types exchanged over the websocket channel. Server-to-client events
// carry full payloads; location-report is the only client-to-server event.
const (
	EventConnectionEstablished = "connection-established"
	EventLocationReport        = "location-report"
	EventLocationUpdate        = "location-update"
	EventDeviceRemoved         = "device-removed"
	EventNotificationCreated   = "notification-created"
)

// ReportPayload is the body of a client's location-report event. Optional
// fields left empty take the server-side defaults on upsert.
type ReportPayload struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	BatteryLevel string  `json:"battery_level,omitempty"`
	SpeedKmh     float64 `json:"speed,omitempty"`
}

// Envelope is the wire format for every event, discriminated by Type.
type Envelope struct {
	Type         string                 `json:"type"`
	ClientID     string                 `json:"client_id,omitempty"`
	DeviceID     string                 `json:"device_id,omitempty"`
	Device       *tracking.DeviceRecord `json:"device,omitempty"`
	Report       *ReportPayload         `json:"report,omitempty"`
	Notification *tracking.Notification `json:"notification,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// NewConnectionEstablished reveals the server-assigned client id.
func NewConnectionEstablished(clientID string) Envelope {
	return Envelope{
		Type:      EventConnectionEstablished,
		ClientID:  clientID,
		Timestamp: time.Now(),
	}
}

// NewLocationUpdate announces an upserted device record.
func NewLocationUpdate(record tracking.DeviceRecord) Envelope {
	return Envelope{
		Type:      EventLocationUpdate,
		DeviceID:  record.ID,
		Device:    &record,
		Timestamp: time.Now(),
	}
}

// NewDeviceRemoved announces that a device left the registry.
func NewDeviceRemoved(deviceID string) Envelope {
	return Envelope{
		Type:      EventDeviceRemoved,
		DeviceID:  deviceID,
		Timestamp: time.Now(),
	}
}

// NewNotificationCreated announces a queued notification. It goes to all
// viewers; the target device itself learns of it by polling.
func NewNotificationCreated(deviceID string, n tracking.Notification) Envelope {
	return Envelope{
		Type:         EventNotificationCreated,
		DeviceID:     deviceID,
		Notification: &n,
		Timestamp:    time.Now(),
	}
}
