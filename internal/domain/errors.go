package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected topology mutations.
var (
	ErrDisconnectedInsertion = errors.New("disconnected insertion")
	ErrDistanceTooLarge      = errors.New("distance too large")
	ErrDuplicateSection      = errors.New("duplicate section")
	ErrBothStationsUnknown   = errors.New("both stations unknown")
	ErrStationNotInLine      = errors.New("station not in line")
	ErrInconsistentPath      = errors.New("inconsistent path")
	ErrInvalidSection        = errors.New("invalid section")
	ErrInvalidLine           = errors.New("invalid line")
	ErrInvalidPathType       = errors.New("invalid path type")
)

// TopologyError wraps a sentinel with the line, station and section involved.
type TopologyError struct {
	Op      string
	LineID  int64
	Station *Station
	Section *Section
	Err     error
}

func (e *TopologyError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.LineID != 0 {
		base += fmt.Sprintf(" (line=%d)", e.LineID)
	}
	if e.Station != nil {
		base += fmt.Sprintf(" (station=%d %q)", e.Station.ID, e.Station.Name)
	}
	if e.Section != nil {
		base += fmt.Sprintf(" (section=%d->%d distance=%d)",
			e.Section.UpStation.ID, e.Section.DownStation.ID, e.Section.Distance)
	}
	return base
}

func (e *TopologyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func topologyErr(op string, lineID int64, station *Station, section *Section, err error) *TopologyError {
	return &TopologyError{Op: op, LineID: lineID, Station: station, Section: section, Err: err}
}

// IsTopologyError reports whether err is a rejected mutation or an invalid
// station, section or line.
func IsTopologyError(err error) bool {
	var te *TopologyError
	return errors.As(err, &te)
}
