package notification

// SendRequest queues a message for a target device.
type SendRequest struct {
	TargetID string `json:"target_id" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Type     string `json:"type"`
}
