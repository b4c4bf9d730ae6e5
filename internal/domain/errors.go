package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for one publish attempt. The core never swallows these;
// every failure bubbles to the invoking command or schedule handler.
var (
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrTimeout       = errors.New("interaction timed out")
	ErrTransport     = errors.New("transport error")
	ErrRunInProgress = errors.New("a publish run is already in progress")
)

// ConfigurationError marks a missing or incomplete day configuration.
// Not retriable; the message is surfaced verbatim to the operator.
func ConfigurationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ValidationError marks input rejected before any external call.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundError marks a lookup that matched nothing on an external system.
func NotFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// TransportError wraps a failed HTTP exchange with its status context.
func TransportError(op string, status int) error {
	return fmt.Errorf("%w: %s: status %d", ErrTransport, op, status)
}
