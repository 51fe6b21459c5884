package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	ErrPersistence   = errors.New("assessment store operation failed")
	ErrClosed        = errors.New("assessment store is closed")
	ErrInvalidLimit  = errors.New("invalid list limit")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// PersistenceError reports a durable read or write that could not be confirmed.
// It matches ErrPersistence with errors.Is and unwraps to the driver error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
