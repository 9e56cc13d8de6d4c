package ingestion

import (
	"fmt"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// ValidateLocationMessage validates a GPS report before it reaches the
// registry. A malformed report is dropped here and never affects other
// devices' state.
func ValidateLocationMessage(msg *LocationMessage) error {
	if msg.DeviceID == "" {
		return &ValidationError{Field: "device_id", Message: "device_id is required"}
	}

	if msg.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "timestamp is required"}
	}

	if msg.Latitude < -90 || msg.Latitude > 90 {
		return &ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"}
	}

	if msg.Longitude < -180 || msg.Longitude > 180 {
		return &ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"}
	}

	if msg.SpeedKmh != nil {
		if *msg.SpeedKmh < 0 {
			return &ValidationError{Field: "speed", Message: "speed must be non-negative"}
		}
	}

	if msg.BatteryLevel != nil {
		if *msg.BatteryLevel < 0 || *msg.BatteryLevel > 100 {
			return &ValidationError{Field: "battery_level", Message: "battery_level must be between 0 and 100"}
		}
	}

	return nil
}
