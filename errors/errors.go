package errors

import "fmt"

var (
	ErrInvalidUsername    = fmt.Errorf("invalid username")
	ErrInvalidMessage     = fmt.Errorf("invalid message")
	ErrInvalidAttachment  = fmt.Errorf("invalid attachment")
	ErrNotJoined          = fmt.Errorf("not joined")
	ErrAlreadyJoined      = fmt.Errorf("already joined")
	ErrSessionClosed      = fmt.Errorf("session closed")
	ErrPersistenceFailure = fmt.Errorf("persistence failure")
	ErrDeliveryFailure    = fmt.Errorf("delivery failure")
	ErrWorkerPanic        = fmt.Errorf("worker panic")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
