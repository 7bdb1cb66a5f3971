package gateway

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned before any request is made when the code or
// message is blank.
var ErrEmptyInput = errors.New("input is empty")

// BadRequestError is a 400 from the gateway.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return "bad request: " + e.Message
}

// ApplicationError is a structured failure reported by the gateway
// (success:false) or an unusable success payload.
type ApplicationError struct {
	Status  int
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return "server error: " + e.Message
}

// ConnectionError covers transport failures, timeouts and responses that are
// not valid JSON envelopes.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
