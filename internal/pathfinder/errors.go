package pathfinder

import (
	"errors"
	"fmt"
)

var (
	ErrSameStation     = errors.New("source equals target")
	ErrStationNotFound = errors.New("station not found")
	ErrNoRoute         = errors.New("no route")
)

// PathError reports a failed query together with the requested endpoints.
type PathError struct {
	Source  int64
	Target  int64
	Station int64 // set for ErrStationNotFound
	Err     error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("find path %d -> %d: %v", e.Source, e.Target, e.Err)
	if e.Station != 0 {
		base += fmt.Sprintf(" (station=%d)", e.Station)
	}
	return base
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
