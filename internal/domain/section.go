package domain

import "fmt"

// Section is a directed edge UpStation -> DownStation on one line
type Section struct {
	ID          int64   `json:"id,omitempty"`
	LineID      int64   `json:"lineId"`
	UpStation   Station `json:"upStation"`
	DownStation Station `json:"downStation"`
	Distance    int     `json:"distance"`
	Duration    int     `json:"duration"`
}

// NewSection returns a transient section after checking its weights and
// endpoints.
func NewSection(lineID int64, up, down Station, distance, duration int) (Section, error) {
	s := Section{
		LineID:      lineID,
		UpStation:   up,
		DownStation: down,
		Distance:    distance,
		Duration:    duration,
	}
	if err := s.Validate(); err != nil {
		return Section{}, err
	}
	return s, nil
}

// Validate checks distance >= 1, duration >= 0 and distinct endpoints.
func (s Section) Validate() error {
	var reason string
	switch {
	case s.Distance < 1:
		reason = fmt.Sprintf("distance must be at least 1, got %d", s.Distance)
	case s.Duration < 0:
		reason = fmt.Sprintf("duration must not be negative, got %d", s.Duration)
	case s.UpStation.ID == s.DownStation.ID:
		reason = "up and down station must differ"
	default:
		return nil
	}
	sec := s
	return topologyErr("validate section", s.LineID, nil, &sec, fmt.Errorf("%w: %s", ErrInvalidSection, reason))
}

func (s Section) hasPair(upID, downID int64) bool {
	return s.UpStation.ID == upID && s.DownStation.ID == downID
}
