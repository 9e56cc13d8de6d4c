// Package memory provides the in-process implementations of the tracking
// repositories. Nothing here survives a restart; persistence is out of
// scope for this service.
package memory

import (
	"sync"
	"time"

	"ambulance-tracker/internal/domain/tracking"
)

// DeviceRegistry keeps last-known device state in a mutexed map. Handlers
// run concurrently under net/http, so the registry carries its own lock.
type DeviceRegistry struct {
	mu      sync.RWMutex
	devices map[string]tracking.DeviceRecord
	now     func() time.Time
}

// NewDeviceRegistry creates an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{
		devices: make(map[string]tracking.DeviceRecord),
		now:     time.Now,
	}
}

// Upsert inserts or replaces the record for id and reports whether the id
// was previously unknown. Every report is a full replacement: optional
// fields absent from the report reset to defaults.
func (r *DeviceRegistry) Upsert(id string, report tracking.LocationReport) (tracking.DeviceRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.devices[id]
	record := tracking.NewDeviceRecord(id, report, r.now())
	r.devices[id] = record

	return record, !existed
}

// Remove deletes the record for id if present and reports whether a record
// was removed. Removing an unknown id is a no-op.
func (r *DeviceRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.devices[id]
	delete(r.devices, id)

	return existed
}

// Get returns the record for id.
func (r *DeviceRegistry) Get(id string) (tracking.DeviceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.devices[id]
	return record, ok
}

// ListAll returns a snapshot of all records at call time.
func (r *DeviceRegistry) ListAll() []tracking.DeviceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]tracking.DeviceRecord, 0, len(r.devices))
	for _, record := range r.devices {
		records = append(records, record)
	}

	return records
}

// Count returns the number of registered devices.
func (r *DeviceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.devices)
}
