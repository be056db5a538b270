package errors

import "fmt"

var (
	// Validation
	ErrEmptyContent    = fmt.Errorf("message content is empty")
	ErrUnknownReceiver = fmt.Errorf("receiver is not a known user")
	ErrInvalidUserID   = fmt.Errorf("user id is empty or contains reserved characters")

	// Lookup
	ErrMessageNotFound = fmt.Errorf("message not found")

	// State machine
	ErrInvalidTransition = fmt.Errorf("invalid status transition")

	// Delivery
	ErrDelivery      = fmt.Errorf("message could not be persisted")
	ErrSessionClosed = fmt.Errorf("session channel is closed")

	// Supervision
	ErrWorkerPanic = fmt.Errorf("worker panic")
)
