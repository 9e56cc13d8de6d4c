package memory

import (
	"sync"

	"ambulance-tracker/internal/domain/tracking"
)

// NotificationQueue keeps a strictly-FIFO queue of pending notifications
// per device id. Queues are created lazily on first enqueue.
type NotificationQueue struct {
	mu     sync.Mutex
	queues map[string][]tracking.Notification
}

// NewNotificationQueue creates an empty queue set.
func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{
		queues: make(map[string][]tracking.Notification),
	}
}

// Enqueue appends a notification to the device's queue.
func (q *NotificationQueue) Enqueue(deviceID string, n tracking.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.queues[deviceID] = append(q.queues[deviceID], n)
}

// PeekFirst returns the head entry without removing it.
func (q *NotificationQueue) PeekFirst(deviceID string) (tracking.Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.queues[deviceID]
	if len(queue) == 0 {
		return tracking.Notification{}, false
	}

	return queue[0], true
}

// AcknowledgeFirst removes the head entry. An empty or absent queue yields
// tracking.ErrNoNotifications and leaves every other queue untouched.
func (q *NotificationQueue) AcknowledgeFirst(deviceID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.queues[deviceID]
	if len(queue) == 0 {
		return tracking.ErrNoNotifications
	}

	if len(queue) == 1 {
		delete(q.queues, deviceID)
		return nil
	}

	q.queues[deviceID] = queue[1:]
	return nil
}

// PendingCount returns the number of queued notifications for a device.
func (q *NotificationQueue) PendingCount(deviceID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.queues[deviceID])
}
