package bravia

import (
	"errors"
	"fmt"
)

// ErrUnreachable wraps transport-level failures (connection refused,
// timeout). The TV spends most of its life in a low-power network state,
// so callers generally treat this as "offline" rather than as a fault.
var ErrUnreachable = errors.New("tv unreachable")

// ErrAuthRejected is returned when the TV refuses the pre-shared key.
var ErrAuthRejected = errors.New("pre-shared key rejected by tv")

// DeviceError is a protocol-level error reported by the TV itself,
// e.g. an unknown URI or an illegal state for the requested operation.
type DeviceError struct {
	Code    int
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("tv api error %d: %s", e.Code, e.Message)
}

// IsUnreachable reports whether err represents a transport failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
