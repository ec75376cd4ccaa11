package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"subway/internal/domain"
)

// MemoryStore keeps the whole network in process memory. Reads hand out
// copies so callers never share mutable line state with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	stations      map[int64]domain.Station
	stationByName map[string]int64
	lines         map[int64]*domain.Line
	lineByName    map[string]int64

	nextStationID int64
	nextLineID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stations:      make(map[int64]domain.Station),
		stationByName: make(map[string]int64),
		lines:         make(map[int64]*domain.Line),
		lineByName:    make(map[string]int64),
	}
}

func (s *MemoryStore) CreateStation(_ context.Context, name string) (domain.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stationByName[name]; exists {
		return domain.Station{}, fmt.Errorf("station %q: %w", name, ErrDuplicateName)
	}

	s.nextStationID++
	st := domain.Station{ID: s.nextStationID, Name: name}
	s.stations[st.ID] = st
	s.stationByName[name] = st.ID
	return st, nil
}

func (s *MemoryStore) GetStation(_ context.Context, id int64) (domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stations[id]
	if !ok {
		return domain.Station{}, fmt.Errorf("station %d: %w", id, ErrNotFound)
	}
	return st, nil
}

func (s *MemoryStore) ListStations(_ context.Context) ([]domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Station, 0, len(s.stations))
	for _, st := range s.stations {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) DeleteStation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stations[id]
	if !ok {
		return fmt.Errorf("station %d: %w", id, ErrNotFound)
	}
	for _, line := range s.lines {
		if line.Sections.Contains(id) {
			return fmt.Errorf("station %d on line %d: %w", id, line.ID, ErrStationInUse)
		}
	}

	delete(s.stations, id)
	delete(s.stationByName, st.Name)
	return nil
}

func (s *MemoryStore) CreateLine(_ context.Context, line *domain.Line) (*domain.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.lineByName[line.Name]; exists {
		return nil, fmt.Errorf("line %q: %w", line.Name, ErrDuplicateName)
	}
	sections, err := s.checkStations(line)
	if err != nil {
		return nil, err
	}

	s.nextLineID++
	created, err := domain.RestoreLine(s.nextLineID, line.Name, line.Color, line.ExtraFare, sections)
	if err != nil {
		s.nextLineID--
		return nil, err
	}
	s.lines[created.ID] = created
	s.lineByName[created.Name] = created.ID
	return created.Clone(), nil
}

func (s *MemoryStore) GetLine(_ context.Context, id int64) (*domain.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	line, ok := s.lines[id]
	if !ok {
		return nil, fmt.Errorf("line %d: %w", id, ErrNotFound)
	}
	return line.Clone(), nil
}

// ListLines returns every line ordered by ID.
func (s *MemoryStore) ListLines(_ context.Context) ([]*domain.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Line, 0, len(s.lines))
	for _, line := range s.lines {
		result = append(result, line.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) UpdateLine(_ context.Context, line *domain.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lines[line.ID]
	if !ok {
		return fmt.Errorf("line %d: %w", line.ID, ErrNotFound)
	}
	if id, exists := s.lineByName[line.Name]; exists && id != line.ID {
		return fmt.Errorf("line %q: %w", line.Name, ErrDuplicateName)
	}

	delete(s.lineByName, existing.Name)
	existing.Name = line.Name
	existing.Color = line.Color
	existing.ExtraFare = line.ExtraFare
	s.lineByName[existing.Name] = existing.ID
	return nil
}

// SaveSections replaces the stored sections of a line.
func (s *MemoryStore) SaveSections(_ context.Context, line *domain.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lines[line.ID]
	if !ok {
		return fmt.Errorf("line %d: %w", line.ID, ErrNotFound)
	}
	if _, err := s.checkStations(line); err != nil {
		return err
	}
	existing.Sections = line.Sections.Clone()
	return nil
}

func (s *MemoryStore) DeleteLine(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[id]
	if !ok {
		return fmt.Errorf("line %d: %w", id, ErrNotFound)
	}
	delete(s.lines, id)
	delete(s.lineByName, line.Name)
	return nil
}

// ImportNetwork loads a whole network into an empty store. Station IDs in
// stations and in the lines' sections are provisional. Everything is
// validated before the store changes.
func (s *MemoryStore) ImportNetwork(_ context.Context, stations []domain.Station, lines []*domain.Line) ([]*domain.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stations) > 0 || len(s.lines) > 0 {
		return nil, ErrNotEmpty
	}

	stored := make(map[int64]domain.Station, len(stations))
	byName := make(map[string]int64, len(stations))
	nextID := s.nextStationID
	for _, st := range stations {
		if _, exists := byName[st.Name]; exists {
			return nil, fmt.Errorf("station %q: %w", st.Name, ErrDuplicateName)
		}
		nextID++
		stored[st.ID] = domain.Station{ID: nextID, Name: st.Name}
		byName[st.Name] = nextID
	}

	created := make([]*domain.Line, 0, len(lines))
	lineByName := make(map[string]int64, len(lines))
	nextLineID := s.nextLineID
	for _, draft := range lines {
		if _, exists := lineByName[draft.Name]; exists {
			return nil, fmt.Errorf("line %q: %w", draft.Name, ErrDuplicateName)
		}
		nextLineID++
		line, err := remapLine(nextLineID, draft, stored)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", draft.Name, err)
		}
		lineByName[line.Name] = line.ID
		created = append(created, line)
	}

	for _, st := range stored {
		s.stations[st.ID] = st
	}
	s.stationByName = byName
	s.nextStationID = nextID
	result := make([]*domain.Line, len(created))
	for i, line := range created {
		s.lines[line.ID] = line
		result[i] = line.Clone()
	}
	s.lineByName = lineByName
	s.nextLineID = nextLineID
	return result, nil
}

// checkStations returns the line's sections in path order once every
// station they reference is known.
func (s *MemoryStore) checkStations(line *domain.Line) ([]domain.Section, error) {
	sections, err := line.Sections.Sections()
	if err != nil {
		return nil, err
	}
	for _, sec := range sections {
		for _, id := range []int64{sec.UpStation.ID, sec.DownStation.ID} {
			if _, ok := s.stations[id]; !ok {
				return nil, fmt.Errorf("station %d: %w", id, ErrNotFound)
			}
		}
	}
	return sections, nil
}
