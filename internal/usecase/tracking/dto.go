package tracking

// SessionReportRequest is a full position report from an interactive
// client. The browser sends every field on each tick.
type SessionReportRequest struct {
	Latitude     *float64 `json:"latitude" validate:"required,latitude"`
	Longitude    *float64 `json:"longitude" validate:"required,longitude"`
	BatteryLevel string   `json:"battery_level"`
	SpeedKmh     float64  `json:"speed" validate:"gte=0"`
}

// PolledReportRequest is a position report from a polling device. The
// registry id is derived from the hardware id, so it persists across
// requests. Optional fields absent from a report reset to defaults.
type PolledReportRequest struct {
	HardwareID   string   `json:"id" validate:"required"`
	Latitude     *float64 `json:"latitude" validate:"required,latitude"`
	Longitude    *float64 `json:"longitude" validate:"required,longitude"`
	BatteryLevel string   `json:"battery_level"`
	SpeedKmh     *float64 `json:"speed" validate:"omitempty,gte=0"`
}
