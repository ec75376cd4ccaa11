package store

import (
	"fmt"

	"subway/internal/domain"
)

// remapLine rebuilds an import draft under its stored line ID, replacing
// the provisional station IDs of its sections with stored stations.
func remapLine(id int64, draft *domain.Line, stations map[int64]domain.Station) (*domain.Line, error) {
	sections, err := draft.Sections.Sections()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Section, len(sections))
	for i, sec := range sections {
		up, ok := stations[sec.UpStation.ID]
		if !ok {
			return nil, fmt.Errorf("station %d: %w", sec.UpStation.ID, ErrNotFound)
		}
		down, ok := stations[sec.DownStation.ID]
		if !ok {
			return nil, fmt.Errorf("station %d: %w", sec.DownStation.ID, ErrNotFound)
		}
		sec.ID = 0
		sec.LineID = id
		sec.UpStation = up
		sec.DownStation = down
		out[i] = sec
	}
	return domain.RestoreLine(id, draft.Name, draft.Color, draft.ExtraFare, out)
}
