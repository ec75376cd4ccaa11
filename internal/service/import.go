package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"subway/internal/domain"
	"subway/internal/store"
	"subway/pkg/seed"
)

var ErrNetworkNotEmpty = errors.New("network is not empty")

type ImportSummary struct {
	Stations int `json:"stations"`
	Lines    int `json:"lines"`
	Sections int `json:"sections"`
}

// Import loads a seed network into an empty repository. Every line is
// built and validated before anything is written, and the repository
// stores the result in one step, so a bad seed leaves the network empty.
// Sections are applied through the topology manager in as many passes as
// needed, so sections.txt rows may appear in any order.
func (s *LineService) Import(ctx context.Context, network *seed.Network) (ImportSummary, error) {
	start := time.Now()
	var summary ImportSummary

	existing, err := s.repo.ListStations(ctx)
	if err != nil {
		return summary, err
	}
	if len(existing) > 0 {
		return summary, ErrNetworkNotEmpty
	}

	stations := make(map[int64]domain.Station, len(network.Stations))
	ordered := make([]domain.Station, 0, len(network.Stations))
	for _, row := range network.Stations {
		if _, dup := stations[row.ID]; dup {
			return summary, fmt.Errorf("import station %d: duplicate station id: %w", row.ID, ErrInvalidRequest)
		}
		name := strings.TrimSpace(row.Name)
		if name == "" {
			return summary, fmt.Errorf("import station %d: blank name: %w", row.ID, ErrInvalidRequest)
		}
		st := domain.Station{ID: row.ID, Name: name}
		stations[row.ID] = st
		ordered = append(ordered, st)
	}

	byLine := network.SectionsByLine()
	drafts := make([]*domain.Line, 0, len(network.Lines))
	for _, row := range network.Lines {
		draft, err := domain.NewLine(0, row.Name, row.Color, row.ExtraFare)
		if err != nil {
			return summary, fmt.Errorf("import line %d: %w", row.ID, err)
		}
		if err := applySeedSections(draft, byLine[row.ID], stations); err != nil {
			return summary, fmt.Errorf("import line %d: %w", row.ID, err)
		}
		drafts = append(drafts, draft)
	}

	created, err := s.repo.ImportNetwork(ctx, ordered, drafts)
	if errors.Is(err, store.ErrNotEmpty) {
		return summary, ErrNetworkNotEmpty
	}
	if err != nil {
		return summary, fmt.Errorf("import network: %w", err)
	}

	summary.Stations = len(ordered)
	for _, line := range created {
		summary.Lines++
		summary.Sections += line.Sections.Len()
		s.notifier.changed(ctx, domain.NetworkEvent{Type: domain.EventLineCreated, LineID: line.ID})
	}

	s.logger.Info("seed imported",
		"stations", summary.Stations,
		"lines", summary.Lines,
		"sections", summary.Sections,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

// applySeedSections retries rows rejected with ErrBothStationsUnknown until
// a pass makes no progress.
func applySeedSections(line *domain.Line, rows []seed.Section, stations map[int64]domain.Station) error {
	pending := make([]domain.Section, 0, len(rows))
	for _, row := range rows {
		up, ok := stations[row.UpStationID]
		if !ok {
			return fmt.Errorf("section %d->%d: unknown station %d", row.UpStationID, row.DownStationID, row.UpStationID)
		}
		down, ok := stations[row.DownStationID]
		if !ok {
			return fmt.Errorf("section %d->%d: unknown station %d", row.UpStationID, row.DownStationID, row.DownStationID)
		}
		sec, err := domain.NewSection(0, up, down, row.Distance, row.Duration)
		if err != nil {
			return err
		}
		pending = append(pending, sec)
	}

	for len(pending) > 0 {
		var deferred []domain.Section
		var lastErr error
		for _, sec := range pending {
			err := line.AddSection(sec)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrBothStationsUnknown):
				deferred = append(deferred, sec)
				lastErr = err
			default:
				return err
			}
		}
		if len(deferred) == len(pending) {
			return lastErr
		}
		pending = deferred
	}
	return nil
}
