package goccm

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	ErrorInvalidClock ErrorCode = iota + 1
	ErrorInvalidRate
	ErrorAlreadySet
	ErrorNoSuitableConfiguration
	ErrorConfigurationLocked
	ErrorInvalidState
	ErrorUnsupportedOperation
	ErrorInvalidParent
	ErrorHardware
	ErrorBusy
	ErrorNotConfigured
	ErrorInvalidConfig
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorInvalidClock:
		return "invalid clock"
	case ErrorInvalidRate:
		return "invalid rate"
	case ErrorAlreadySet:
		return "already set"
	case ErrorNoSuitableConfiguration:
		return "no suitable configuration"
	case ErrorConfigurationLocked:
		return "configuration locked"
	case ErrorInvalidState:
		return "invalid state"
	case ErrorUnsupportedOperation:
		return "unsupported operation"
	case ErrorInvalidParent:
		return "invalid parent"
	case ErrorHardware:
		return "hardware error"
	case ErrorBusy:
		return "busy"
	case ErrorNotConfigured:
		return "not configured"
	case ErrorInvalidConfig:
		return "invalid configuration"
	default:
		return fmt.Sprintf("error(%d)", int(c))
	}
}

type ClockError struct {
	errorString string
	Code        ErrorCode
	inner       error
}

func (e *ClockError) Error() string {
	if e.inner != nil {
		return e.errorString + ": " + e.inner.Error()
	}
	return e.errorString
}

func (e *ClockError) Unwrap() error {
	return e.inner
}

// Is matches any ClockError carrying the same code, so the sentinels below
// work with errors.Is.
func (e *ClockError) Is(target error) bool {
	t, ok := target.(*ClockError)
	return ok && t.Code == e.Code
}

func NewClockError(msg string, code ErrorCode) error {
	return &ClockError{msg, code, nil}
}

func clockErrorf(code ErrorCode, format string, args ...interface{}) error {
	return &ClockError{fmt.Sprintf(format, args...), code, nil}
}

// hardwareError wraps an opaque backend failure.
func hardwareError(op string, id ClockID, err error) error {
	return &ClockError{fmt.Sprintf("%s on clock %d failed", op, id), ErrorHardware, err}
}

var (
	ErrInvalidClock            = NewClockError(ErrorInvalidClock.String(), ErrorInvalidClock)
	ErrInvalidRate             = NewClockError(ErrorInvalidRate.String(), ErrorInvalidRate)
	ErrAlreadySet              = NewClockError(ErrorAlreadySet.String(), ErrorAlreadySet)
	ErrNoSuitableConfiguration = NewClockError(ErrorNoSuitableConfiguration.String(), ErrorNoSuitableConfiguration)
	ErrConfigurationLocked     = NewClockError(ErrorConfigurationLocked.String(), ErrorConfigurationLocked)
	ErrInvalidState            = NewClockError(ErrorInvalidState.String(), ErrorInvalidState)
	ErrUnsupportedOperation    = NewClockError(ErrorUnsupportedOperation.String(), ErrorUnsupportedOperation)
	ErrInvalidParent           = NewClockError(ErrorInvalidParent.String(), ErrorInvalidParent)
	ErrHardware                = NewClockError(ErrorHardware.String(), ErrorHardware)
	ErrBusy                    = NewClockError(ErrorBusy.String(), ErrorBusy)
	ErrNotConfigured           = NewClockError(ErrorNotConfigured.String(), ErrorNotConfigured)
	ErrInvalidConfig           = NewClockError(ErrorInvalidConfig.String(), ErrorInvalidConfig)
)

// IsAlreadySet reports whether err only says that nothing had to change.
// Drivers treat it like success.
func IsAlreadySet(err error) bool {
	return errors.Is(err, ErrAlreadySet)
}

// ErrorCodeOf returns the code of the first ClockError in err's chain, 0 if none.
func ErrorCodeOf(err error) ErrorCode {
	var ce *ClockError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}
