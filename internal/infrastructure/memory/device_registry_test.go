package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambulance-tracker/internal/domain/tracking"
)

func TestRegistryUpsertInsertsAndReplaces(t *testing.T) {
	registry := NewDeviceRegistry()

	record, isNew := registry.Upsert("a", tracking.LocationReport{
		Latitude:     12.84,
		Longitude:    80.15,
		BatteryLevel: "88",
		SpeedKmh:     42,
		DeviceType:   tracking.DeviceTypeBrowser,
	})
	require.True(t, isNew)
	assert.Equal(t, "a", record.ID)
	assert.Equal(t, "88", record.BatteryLevel)
	assert.Equal(t, 42.0, record.SpeedKmh)
	assert.False(t, record.LastUpdate.IsZero())

	record, isNew = registry.Upsert("a", tracking.LocationReport{
		Latitude:  12.9,
		Longitude: 80.2,
	})
	require.False(t, isNew)
	assert.Equal(t, 12.9, record.Latitude)
	assert.Equal(t, 1, registry.Count())
}

func TestRegistryUpsertIsIdempotent(t *testing.T) {
	registry := NewDeviceRegistry()

	report := tracking.LocationReport{
		Latitude:     12.84,
		Longitude:    80.15,
		BatteryLevel: "70",
		SpeedKmh:     10,
	}

	first, _ := registry.Upsert("a", report)
	second, isNew := registry.Upsert("a", report)

	// Double delivery of the same report must not drift the record.
	assert.False(t, isNew)
	first.LastUpdate = second.LastUpdate
	assert.Equal(t, first, second)
	assert.Equal(t, 1, registry.Count())
}

func TestRegistryUpsertResetsAbsentOptionalFields(t *testing.T) {
	registry := NewDeviceRegistry()

	registry.Upsert("esp32-a1", tracking.LocationReport{
		Latitude:     12.84,
		Longitude:    80.15,
		BatteryLevel: "63",
		SpeedKmh:     30,
		DeviceType:   tracking.DeviceTypeESP32,
	})

	// A report carrying only the required fields resets the optional ones
	// to defaults; the previous values are not carried over.
	record, isNew := registry.Upsert("esp32-a1", tracking.LocationReport{
		Latitude:   12.85,
		Longitude:  80.16,
		DeviceType: tracking.DeviceTypeESP32,
	})
	require.False(t, isNew)
	assert.Equal(t, tracking.DefaultBatteryLevel, record.BatteryLevel)
	assert.Equal(t, 0.0, record.SpeedKmh)
}

func TestRegistryDefaults(t *testing.T) {
	registry := NewDeviceRegistry()

	record, _ := registry.Upsert("a", tracking.LocationReport{
		Latitude:  1,
		Longitude: 2,
	})

	assert.Equal(t, tracking.DefaultBatteryLevel, record.BatteryLevel)
	assert.Equal(t, 0.0, record.SpeedKmh)
	assert.Equal(t, tracking.DeviceTypeBrowser, record.DeviceType)
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	registry := NewDeviceRegistry()

	registry.Upsert("a", tracking.LocationReport{Latitude: 1, Longitude: 2})

	assert.True(t, registry.Remove("a"))
	assert.False(t, registry.Remove("a"))
	assert.False(t, registry.Remove("never-existed"))

	_, ok := registry.Get("a")
	assert.False(t, ok)
}

func TestRegistryListAllIsSnapshot(t *testing.T) {
	registry := NewDeviceRegistry()

	registry.Upsert("a", tracking.LocationReport{Latitude: 1, Longitude: 2})
	registry.Upsert("b", tracking.LocationReport{Latitude: 3, Longitude: 4})

	records := registry.ListAll()
	require.Len(t, records, 2)

	registry.Remove("a")
	assert.Len(t, records, 2, "snapshot must not change after removal")
	assert.Len(t, registry.ListAll(), 1)
}
