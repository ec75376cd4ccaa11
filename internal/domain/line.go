package domain

import (
	"fmt"
	"strings"
)

// Line is a named, coloured subway line owning its Sections. ExtraFare is
// the surcharge a rider pays when the line is part of a travelled path.
type Line struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	ExtraFare int       `json:"extraFare"`
	Sections  *Sections `json:"-"`
}

// NewLine creates a line with no sections.
func NewLine(id int64, name, color string, extraFare int) (*Line, error) {
	if err := validateLine(id, name, color, extraFare); err != nil {
		return nil, err
	}
	return &Line{
		ID:        id,
		Name:      name,
		Color:     color,
		ExtraFare: extraFare,
		Sections:  emptySections(id),
	}, nil
}

// RestoreLine rebuilds a persisted line and its sections.
func RestoreLine(id int64, name, color string, extraFare int, sections []Section) (*Line, error) {
	line, err := NewLine(id, name, color, extraFare)
	if err != nil {
		return nil, err
	}
	secs, err := NewSections(id, sections)
	if err != nil {
		return nil, err
	}
	line.Sections = secs
	return line, nil
}

func (l *Line) AddSection(section Section) error {
	return l.Sections.AddSection(section)
}

func (l *Line) RemoveStation(station Station) error {
	return l.Sections.RemoveStation(station)
}

// Stations returns the line's stations in travel order.
func (l *Line) Stations() ([]Station, error) {
	return l.Sections.FindStations()
}

// Update replaces the line metadata. Sections are untouched.
func (l *Line) Update(name, color string, extraFare int) error {
	if err := validateLine(l.ID, name, color, extraFare); err != nil {
		return err
	}
	l.Name = name
	l.Color = color
	l.ExtraFare = extraFare
	return nil
}

// Clone returns a deep copy so callers can mutate without touching shared
// state.
func (l *Line) Clone() *Line {
	c := *l
	c.Sections = l.Sections.Clone()
	return &c
}

func validateLine(id int64, name, color string, extraFare int) error {
	var reason string
	switch {
	case strings.TrimSpace(name) == "":
		reason = "name must not be blank"
	case strings.TrimSpace(color) == "":
		reason = "color must not be blank"
	case extraFare < 0:
		reason = fmt.Sprintf("extra fare must not be negative, got %d", extraFare)
	default:
		return nil
	}
	return topologyErr("validate line", id, nil, nil, fmt.Errorf("%w: %s", ErrInvalidLine, reason))
}
