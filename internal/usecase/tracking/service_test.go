package tracking

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "ambulance-tracker/internal/domain/tracking"
	"ambulance-tracker/internal/infrastructure/memory"
	"ambulance-tracker/internal/logger"
	appErrors "ambulance-tracker/pkg/errors"
)

func TestMain(m *testing.M) {
	if err := logger.Init("development"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type recordingBroadcaster struct {
	updates  []domain.DeviceRecord
	removals []string
}

func (b *recordingBroadcaster) BroadcastLocationUpdate(record domain.DeviceRecord) {
	b.updates = append(b.updates, record)
}

func (b *recordingBroadcaster) BroadcastDeviceRemoved(deviceID string) {
	b.removals = append(b.removals, deviceID)
}

func newTestService() (*Service, *recordingBroadcaster) {
	broadcaster := &recordingBroadcaster{}
	return NewService(memory.NewDeviceRegistry(), broadcaster), broadcaster
}

func floatPtr(f float64) *float64 { return &f }

func TestReportSessionLocationBroadcastsEachReport(t *testing.T) {
	service, broadcaster := newTestService()

	req := &SessionReportRequest{
		Latitude:     floatPtr(12.84),
		Longitude:    floatPtr(80.15),
		BatteryLevel: "91",
		SpeedKmh:     20,
	}

	record, err := service.ReportSessionLocation(context.Background(), "client-1", req)
	require.NoError(t, err)
	assert.Equal(t, "client-1", record.ID)
	assert.Equal(t, domain.DeviceTypeBrowser, record.DeviceType)

	_, err = service.ReportSessionLocation(context.Background(), "client-1", req)
	require.NoError(t, err)

	// One broadcast per physical report, no coalescing.
	assert.Len(t, broadcaster.updates, 2)
	assert.Equal(t, 1, service.DeviceCount())
}

func TestReportSessionLocationValidation(t *testing.T) {
	service, broadcaster := newTestService()

	tests := []struct {
		name     string
		clientID string
		req      *SessionReportRequest
	}{
		{
			name:     "missing client id",
			clientID: "",
			req:      &SessionReportRequest{Latitude: floatPtr(1), Longitude: floatPtr(2)},
		},
		{
			name:     "missing latitude",
			clientID: "client-1",
			req:      &SessionReportRequest{Longitude: floatPtr(2)},
		},
		{
			name:     "latitude out of range",
			clientID: "client-1",
			req:      &SessionReportRequest{Latitude: floatPtr(91), Longitude: floatPtr(2)},
		},
		{
			name:     "longitude out of range",
			clientID: "client-1",
			req:      &SessionReportRequest{Latitude: floatPtr(1), Longitude: floatPtr(181)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ReportSessionLocation(context.Background(), tt.clientID, tt.req)
			require.Error(t, err)

			var appErr *appErrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}

	// A malformed report never reaches the registry or the channel.
	assert.Empty(t, broadcaster.updates)
	assert.Equal(t, 0, service.DeviceCount())
}

func TestReportPolledLocationNamespacesID(t *testing.T) {
	service, broadcaster := newTestService()

	record, err := service.ReportPolledLocation(context.Background(), &PolledReportRequest{
		HardwareID:   "a1b2",
		Latitude:     floatPtr(12.84),
		Longitude:    floatPtr(80.15),
		BatteryLevel: "77",
		SpeedKmh:     floatPtr(15),
	})
	require.NoError(t, err)

	assert.Equal(t, "esp32-a1b2", record.ID)
	assert.Equal(t, domain.DeviceTypeESP32, record.DeviceType)
	require.Len(t, broadcaster.updates, 1)
	assert.Equal(t, "esp32-a1b2", broadcaster.updates[0].ID)
}

func TestReportPolledLocationResetsAbsentOptionals(t *testing.T) {
	service, _ := newTestService()

	_, err := service.ReportPolledLocation(context.Background(), &PolledReportRequest{
		HardwareID:   "a1b2",
		Latitude:     floatPtr(12.84),
		Longitude:    floatPtr(80.15),
		BatteryLevel: "77",
		SpeedKmh:     floatPtr(15),
	})
	require.NoError(t, err)

	// Second report carries only the required fields: the earlier battery
	// and speed must not leak through.
	record, err := service.ReportPolledLocation(context.Background(), &PolledReportRequest{
		HardwareID: "a1b2",
		Latitude:   floatPtr(12.85),
		Longitude:  floatPtr(80.16),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultBatteryLevel, record.BatteryLevel)
	assert.Equal(t, 0.0, record.SpeedKmh)
}

func TestDisconnectIsIdempotentAndIsolated(t *testing.T) {
	service, broadcaster := newTestService()

	for _, id := range []string{"client-1", "client-2"} {
		_, err := service.ReportSessionLocation(context.Background(), id, &SessionReportRequest{
			Latitude:  floatPtr(12.84),
			Longitude: floatPtr(80.15),
		})
		require.NoError(t, err)
	}

	assert.True(t, service.Disconnect(context.Background(), "client-1"))
	assert.False(t, service.Disconnect(context.Background(), "client-1"))

	// Exactly one removal broadcast, and the other session is untouched.
	assert.Equal(t, []string{"client-1"}, broadcaster.removals)
	assert.Equal(t, 1, service.DeviceCount())
}

func TestSnapshotMatchesRegistry(t *testing.T) {
	service, _ := newTestService()

	_, err := service.ReportSessionLocation(context.Background(), "client-1", &SessionReportRequest{
		Latitude:  floatPtr(1),
		Longitude: floatPtr(2),
	})
	require.NoError(t, err)
	_, err = service.ReportPolledLocation(context.Background(), &PolledReportRequest{
		HardwareID: "x",
		Latitude:   floatPtr(3),
		Longitude:  floatPtr(4),
	})
	require.NoError(t, err)

	snapshot := service.Snapshot()
	require.Len(t, snapshot, 2)

	ids := []string{snapshot[0].ID, snapshot[1].ID}
	assert.ElementsMatch(t, []string{"client-1", "esp32-x"}, ids)
}
