package domain

import "fmt"

// Sections is the ordered topology of one line. Every station is the up
// station of at most one section and the down station of at most one
// section, so the sections always form a single simple path.
//
// Mutations validate completely before touching the maps; a rejected call
// leaves the receiver unchanged. Sections does no locking of its own.
type Sections struct {
	lineID int64
	byUp   map[int64]Section // station -> outgoing section
	byDown map[int64]Section // station -> incoming section
}

// NewSections rebuilds a line topology from stored sections given in any
// order.
func NewSections(lineID int64, sections []Section) (*Sections, error) {
	s := emptySections(lineID)
	for _, sec := range sections {
		if err := sec.Validate(); err != nil {
			return nil, err
		}
		if sec.LineID == 0 {
			sec.LineID = lineID
		}
		_, upTaken := s.byUp[sec.UpStation.ID]
		_, downTaken := s.byDown[sec.DownStation.ID]
		if upTaken || downTaken {
			bad := sec
			return nil, topologyErr("load sections", lineID, nil, &bad,
				fmt.Errorf("%w: branching at station", ErrInconsistentPath))
		}
		s.put(sec)
	}
	if _, err := s.walk(); err != nil {
		return nil, err
	}
	return s, nil
}

func emptySections(lineID int64) *Sections {
	return &Sections{
		lineID: lineID,
		byUp:   make(map[int64]Section),
		byDown: make(map[int64]Section),
	}
}

// Len returns the number of sections.
func (s *Sections) Len() int {
	return len(s.byUp)
}

func (s *Sections) IsEmpty() bool {
	return len(s.byUp) == 0
}

// Contains reports whether the station lies anywhere on the path.
func (s *Sections) Contains(stationID int64) bool {
	if _, ok := s.byUp[stationID]; ok {
		return true
	}
	_, ok := s.byDown[stationID]
	return ok
}

// AddSection inserts a section, splitting an existing one when the new
// section starts or ends inside it.
func (s *Sections) AddSection(section Section) error {
	const op = "add section"

	if err := section.Validate(); err != nil {
		return err
	}
	if s.lineID != 0 {
		section.LineID = s.lineID
	}
	section.ID = 0

	if s.IsEmpty() {
		s.put(section)
		return nil
	}

	upID, downID := section.UpStation.ID, section.DownStation.ID
	if existing, ok := s.byUp[upID]; ok && existing.hasPair(upID, downID) {
		return topologyErr(op, s.lineID, nil, &section, ErrDuplicateSection)
	}

	upKnown, downKnown := s.Contains(upID), s.Contains(downID)
	if upKnown && downKnown {
		return topologyErr(op, s.lineID, nil, &section,
			fmt.Errorf("%w: both stations already on line", ErrDuplicateSection))
	}
	if !upKnown && !downKnown {
		return topologyErr(op, s.lineID, nil, &section, ErrBothStationsUnknown)
	}

	start, end, err := s.terminals()
	if err != nil {
		return err
	}

	if upKnown {
		if upID == end {
			s.put(section)
			return nil
		}
		if existing, ok := s.byUp[upID]; ok {
			return s.splitUp(existing, section)
		}
	} else {
		if downID == start {
			s.put(section)
			return nil
		}
		if existing, ok := s.byDown[downID]; ok {
			return s.splitDown(existing, section)
		}
	}

	return topologyErr(op, s.lineID, nil, &section, ErrDisconnectedInsertion)
}

// splitUp handles a new section sharing its up station with existing:
// existing.Up -> new.Down -> existing.Down.
func (s *Sections) splitUp(existing, section Section) error {
	if section.Distance >= existing.Distance {
		return topologyErr("add section", s.lineID, nil, &section,
			fmt.Errorf("%w: %d >= %d", ErrDistanceTooLarge, section.Distance, existing.Distance))
	}

	rest := Section{
		LineID:      s.lineID,
		UpStation:   section.DownStation,
		DownStation: existing.DownStation,
		Distance:    existing.Distance - section.Distance,
		Duration:    remainder(existing.Duration, section.Duration),
	}

	s.drop(existing)
	s.put(section)
	s.put(rest)
	return nil
}

// splitDown handles a new section sharing its down station with existing:
// existing.Up -> new.Up -> existing.Down.
func (s *Sections) splitDown(existing, section Section) error {
	if section.Distance >= existing.Distance {
		return topologyErr("add section", s.lineID, nil, &section,
			fmt.Errorf("%w: %d >= %d", ErrDistanceTooLarge, section.Distance, existing.Distance))
	}

	head := Section{
		LineID:      s.lineID,
		UpStation:   existing.UpStation,
		DownStation: section.UpStation,
		Distance:    existing.Distance - section.Distance,
		Duration:    remainder(existing.Duration, section.Duration),
	}

	s.drop(existing)
	s.put(head)
	s.put(section)
	return nil
}

// RemoveStation takes a station off the path. An interior station merges
// its two neighbouring sections; a terminal station drops its only section.
func (s *Sections) RemoveStation(station Station) error {
	in, hasIn := s.byDown[station.ID]
	out, hasOut := s.byUp[station.ID]

	switch {
	case hasIn && hasOut:
		merged := Section{
			LineID:      s.lineID,
			UpStation:   in.UpStation,
			DownStation: out.DownStation,
			Distance:    in.Distance + out.Distance,
			Duration:    in.Duration + out.Duration,
		}
		s.drop(in)
		s.drop(out)
		s.put(merged)
	case hasIn:
		s.drop(in)
	case hasOut:
		s.drop(out)
	default:
		st := station
		return topologyErr("remove station", s.lineID, &st, nil, ErrStationNotInLine)
	}
	return nil
}

// FindStations returns the stations from the path start to its end. An
// empty line yields an empty slice.
func (s *Sections) FindStations() ([]Station, error) {
	ordered, err := s.walk()
	if err != nil {
		return nil, err
	}
	stations := make([]Station, 0, len(ordered)+1)
	if len(ordered) == 0 {
		return stations, nil
	}
	stations = append(stations, ordered[0].UpStation)
	for _, sec := range ordered {
		stations = append(stations, sec.DownStation)
	}
	return stations, nil
}

// Sections returns a copy of the sections in path order. It fails with
// ErrInconsistentPath rather than return a partial list.
func (s *Sections) Sections() ([]Section, error) {
	return s.walk()
}

// Clone returns an independent copy.
func (s *Sections) Clone() *Sections {
	c := &Sections{
		lineID: s.lineID,
		byUp:   make(map[int64]Section, len(s.byUp)),
		byDown: make(map[int64]Section, len(s.byDown)),
	}
	for k, v := range s.byUp {
		c.byUp[k] = v
	}
	for k, v := range s.byDown {
		c.byDown[k] = v
	}
	return c
}

func (s *Sections) walk() ([]Section, error) {
	if s.IsEmpty() {
		return []Section{}, nil
	}

	start, _, err := s.terminals()
	if err != nil {
		return nil, err
	}

	ordered := make([]Section, 0, len(s.byUp))
	for cur := start; ; {
		sec, ok := s.byUp[cur]
		if !ok {
			break
		}
		ordered = append(ordered, sec)
		if len(ordered) > len(s.byUp) {
			break
		}
		cur = sec.DownStation.ID
	}

	if len(ordered) != len(s.byUp) {
		return nil, topologyErr("find stations", s.lineID, nil, nil,
			fmt.Errorf("%w: walked %d of %d sections", ErrInconsistentPath, len(ordered), len(s.byUp)))
	}
	return ordered, nil
}

// terminals finds the unique station that is never a down station and the
// unique station that is never an up station.
func (s *Sections) terminals() (start, end int64, err error) {
	starts, ends := 0, 0
	for id := range s.byUp {
		if _, ok := s.byDown[id]; !ok {
			start = id
			starts++
		}
	}
	for id := range s.byDown {
		if _, ok := s.byUp[id]; !ok {
			end = id
			ends++
		}
	}
	if starts != 1 || ends != 1 {
		return 0, 0, topologyErr("find stations", s.lineID, nil, nil,
			fmt.Errorf("%w: %d start(s), %d end(s)", ErrInconsistentPath, starts, ends))
	}
	return start, end, nil
}

func (s *Sections) put(sec Section) {
	s.byUp[sec.UpStation.ID] = sec
	s.byDown[sec.DownStation.ID] = sec
}

func (s *Sections) drop(sec Section) {
	delete(s.byUp, sec.UpStation.ID)
	delete(s.byDown, sec.DownStation.ID)
}

func remainder(total, part int) int {
	if d := total - part; d > 0 {
		return d
	}
	return 0
}
