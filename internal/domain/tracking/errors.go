package tracking

import "errors"

var (
	ErrDeviceNotFound  = errors.New("device not found")
	ErrNoNotifications = errors.New("no pending notifications")
)
