package tracking

import (
	"context"

	"go.uber.org/zap"

	domain "ambulance-tracker/internal/domain/tracking"
	"ambulance-tracker/internal/logger"
	appErrors "ambulance-tracker/pkg/errors"
	"ambulance-tracker/pkg/utils"
)

// Broadcaster fans registry changes out to connected viewers.
type Broadcaster interface {
	BroadcastLocationUpdate(record domain.DeviceRecord)
	BroadcastDeviceRemoved(deviceID string)
}

// Service implements the location-relay use cases: every accepted report
// is an upsert followed by exactly one broadcast.
type Service struct {
	registry    domain.DeviceRegistry
	broadcaster Broadcaster
}

// NewService creates a tracking service over the given registry.
func NewService(registry domain.DeviceRegistry, broadcaster Broadcaster) *Service {
	return &Service{
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// ReportSessionLocation records a report from an interactive client. The
// session id doubles as the device id and is invalidated on disconnect.
func (s *Service) ReportSessionLocation(ctx context.Context, clientID string, req *SessionReportRequest) (domain.DeviceRecord, error) {
	if clientID == "" {
		return domain.DeviceRecord{}, appErrors.NewAppError("VALIDATION_ERROR", "Missing client id", appErrors.ErrInvalidInput)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return domain.DeviceRecord{}, appErrors.NewAppError("VALIDATION_ERROR", "Invalid location report", err)
	}

	record, isNew := s.registry.Upsert(clientID, domain.LocationReport{
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		BatteryLevel: req.BatteryLevel,
		SpeedKmh:     req.SpeedKmh,
		DeviceType:   domain.DeviceTypeBrowser,
	})

	if isNew {
		logger.Info("New session device registered",
			zap.String("device_id", record.ID),
		)
	}

	s.broadcaster.BroadcastLocationUpdate(record)

	return record, nil
}

// ReportPolledLocation records a report from a polling device. The device
// id is namespaced with the hardware prefix so it can never collide with
// a generated session id.
func (s *Service) ReportPolledLocation(ctx context.Context, req *PolledReportRequest) (domain.DeviceRecord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return domain.DeviceRecord{}, appErrors.NewAppError("VALIDATION_ERROR", "Invalid location report", err)
	}

	var speed float64
	if req.SpeedKmh != nil {
		speed = *req.SpeedKmh
	}

	record, isNew := s.registry.Upsert(domain.PolledDeviceID(req.HardwareID), domain.LocationReport{
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		BatteryLevel: req.BatteryLevel,
		SpeedKmh:     speed,
		DeviceType:   domain.DeviceTypeESP32,
	})

	if isNew {
		logger.Info("New polling device registered",
			zap.String("device_id", record.ID),
		)
	}

	s.broadcaster.BroadcastLocationUpdate(record)

	return record, nil
}

// Disconnect evicts an interactive device and announces the removal. It is
// idempotent: a second disconnect for the same id does nothing and
// broadcasts nothing. Polling devices have no disconnect signal and are
// never evicted here.
func (s *Service) Disconnect(ctx context.Context, clientID string) bool {
	if !s.registry.Remove(clientID) {
		return false
	}

	logger.Info("Device evicted",
		zap.String("device_id", clientID),
	)

	s.broadcaster.BroadcastDeviceRemoved(clientID)
	return true
}

// Snapshot returns the registry state for late-joiner replay.
func (s *Service) Snapshot() []domain.DeviceRecord {
	return s.registry.ListAll()
}

// DeviceCount returns the number of registered devices.
func (s *Service) DeviceCount() int {
	return len(s.registry.ListAll())
}
