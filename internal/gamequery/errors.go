package gamequery

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget marks a server type or address the client cannot
	// query at all. Retrying will not help until the monitor is changed.
	ErrInvalidTarget = errors.New("invalid query target")
	// ErrUnreachable marks any other query failure: offline, timeout, bad
	// response.
	ErrUnreachable = errors.New("game server unreachable")
)

type InvalidTargetError struct {
	Reason string
}

func (e *InvalidTargetError) Error() string { return e.Reason }

func (e *InvalidTargetError) Is(target error) bool { return target == ErrInvalidTarget }

func invalidTarget(format string, args ...any) error {
	return &InvalidTargetError{Reason: fmt.Sprintf(format, args...)}
}

func unreachable(addr string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnreachable, addr, err)
}
