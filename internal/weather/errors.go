package weather

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProviderUnavailable is returned when the weather provider cannot produce a reply.
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	// ErrBoundsMismatch is returned when the bounds kind does not fit the query mode.
	ErrBoundsMismatch = errors.New("time bounds do not match query mode")
	// ErrNoFields is returned when a query has nothing to request.
	ErrNoFields = errors.New("no weather fields requested")
	// ErrDuplicateField is returned when a field name is selected more than once.
	ErrDuplicateField = errors.New("weather field requested more than once")
)

// UnknownFieldError reports a human field name missing from the field mapping.
// UI-offered fields always resolve, so this signals a broken mapping file.
type UnknownFieldError struct {
	Mode  Mode
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("no %s mapping for field %q", e.Mode, e.Field)
}

// InvalidRangeError reports a time range whose end precedes its start.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s is before start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// DecodeError reports a provider reply whose shape disagrees with the request.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode weather response: " + e.Reason
}

func decodeErrorf(format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}
