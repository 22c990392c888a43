package loader

import "fmt"

// TransportError is returned when a source cannot be fetched, including when the load is
// cancelled or times out.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cannot fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when fetched data cannot be turned into an octree.
type DecodeError struct {
	URL    string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("cannot decode %s data: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("cannot decode %s data from %s: %v", e.Format, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
