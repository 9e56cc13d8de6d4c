package tracking

import (
	"fmt"
	"time"
)

// DeviceType tags the transport a device reports over. Session devices hold
// a persistent channel and are evicted when it drops; polled devices report
// over discrete requests and keep their identity across requests.
type DeviceType string

const (
	DeviceTypeBrowser DeviceType = "browser"
	DeviceTypeESP32   DeviceType = "esp32"
)

// DefaultBatteryLevel is the battery value assigned when a report omits it.
const DefaultBatteryLevel = "Unknown"

// PolledDeviceIDPrefix namespaces hardware-derived ids so they can never
// collide with generated session ids.
const PolledDeviceIDPrefix = "esp32-"

// PolledDeviceID derives the stable registry id for a polling device from
// its hardware identifier.
func PolledDeviceID(hardwareID string) string {
	return PolledDeviceIDPrefix + hardwareID
}

// DeviceRecord is the registry's view of one connected-or-reporting device.
// There is at most one record per id at any time.
type DeviceRecord struct {
	ID           string     `json:"id"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	BatteryLevel string     `json:"battery_level"`
	SpeedKmh     float64    `json:"speed"`
	DeviceType   DeviceType `json:"device_type"`
	LastUpdate   time.Time  `json:"last_update"`
}

// LocationReport is one full position report. Each report replaces the
// record wholesale: optional fields left empty fall back to the defaults,
// never to the previous record's values.
type LocationReport struct {
	Latitude     float64
	Longitude    float64
	BatteryLevel string
	SpeedKmh     float64
	DeviceType   DeviceType
}

// NewDeviceRecord materializes a report into a record, applying defaults
// for absent optional fields.
func NewDeviceRecord(id string, report LocationReport, now time.Time) DeviceRecord {
	battery := report.BatteryLevel
	if battery == "" {
		battery = DefaultBatteryLevel
	}

	deviceType := report.DeviceType
	if deviceType == "" {
		deviceType = DeviceTypeBrowser
	}

	return DeviceRecord{
		ID:           id,
		Latitude:     report.Latitude,
		Longitude:    report.Longitude,
		BatteryLevel: battery,
		SpeedKmh:     report.SpeedKmh,
		DeviceType:   deviceType,
		LastUpdate:   now,
	}
}

// Notification is one pending message for a device. Entries leave the queue
// only through an explicit acknowledge of the head.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultNotificationType is used when a sender omits the type.
const DefaultNotificationType = "info"

// NewNotification builds a notification with a time-derived id and the
// default type applied.
func NewNotification(message, typ string, now time.Time) Notification {
	if typ == "" {
		typ = DefaultNotificationType
	}

	return Notification{
		ID:        fmt.Sprintf("%d", now.UnixNano()),
		Message:   message,
		Type:      typ,
		Timestamp: now,
	}
}
