package voxelmesh

import "fmt"

// EmptyResultError is returned when an octree has no leaf with points, so there is nothing to
// draw.
type EmptyResultError struct {
	LeavesVisited int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("octree has no leaves with points (%d leaves visited)", e.LeavesVisited)
}

// InvalidConfigurationError is returned for a setting that cannot be used. Field names the
// setting by its configuration path.
type InvalidConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func newInvalidConfigurationError(path, field string, value interface{}, reason string) error {
	if path != "" {
		field = path + "." + field
	}
	return &InvalidConfigurationError{Field: field, Value: value, Reason: reason}
}
