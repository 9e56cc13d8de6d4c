package tracking

// DeviceRegistry is the process-wide store of last-known device state.
// Implementations must guarantee at most one record per id.
type DeviceRegistry interface {
	// Upsert inserts or replaces the record for id. The returned flag is
	// true when no prior record existed.
	Upsert(id string, report LocationReport) (DeviceRecord, bool)

	// Remove deletes the record if present. Removing an absent id is a
	// no-op.
	Remove(id string) bool

	Get(id string) (DeviceRecord, bool)

	// ListAll returns a snapshot of all records at call time.
	ListAll() []DeviceRecord
}

// NotificationQueue holds per-device FIFO queues of pending notifications.
type NotificationQueue interface {
	// Enqueue appends to the device's queue, creating it on first use.
	Enqueue(deviceID string, n Notification)

	// PeekFirst returns the head entry without removing it.
	PeekFirst(deviceID string) (Notification, bool)

	// AcknowledgeFirst removes the head entry. It returns
	// ErrNoNotifications when the device has no queue or the queue is
	// empty; callers must treat that as a signal to stop polling.
	AcknowledgeFirst(deviceID string) error
}
