package service

import (
	"context"
	"fmt"
	"log/slog"

	"subway/internal/domain"
)

// CreateLineRequest creates a line together with its first section.
type CreateLineRequest struct {
	Name          string `json:"name"`
	Color         string `json:"color"`
	UpStationID   int64  `json:"upStationId"`
	DownStationID int64  `json:"downStationId"`
	Distance      int    `json:"distance"`
	Duration      int    `json:"duration"`
	ExtraFare     int    `json:"extraFare"`
}

type UpdateLineRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	ExtraFare int    `json:"extraFare"`
}

type SectionRequest struct {
	UpStationID   int64 `json:"upStationId"`
	DownStationID int64 `json:"downStationId"`
	Distance      int   `json:"distance"`
	Duration      int   `json:"duration"`
}

// LineDetail is a line with its stations in travel order.
type LineDetail struct {
	*domain.Line
	Stations []domain.Station `json:"stations"`
}

type LineService struct {
	repo     Repository
	locks    *lineLocks
	notifier *changeNotifier
	logger   *slog.Logger
}

func NewLineService(repo Repository, cache PathCache, events Publisher, logger *slog.Logger) *LineService {
	logger = logger.With("component", "line_service")
	return &LineService{
		repo:     repo,
		locks:    newLineLocks(),
		notifier: &changeNotifier{cache: cache, events: events, logger: logger},
		logger:   logger,
	}
}

func (s *LineService) CreateLine(ctx context.Context, req CreateLineRequest) (*LineDetail, error) {
	draft, err := domain.NewLine(0, req.Name, req.Color, req.ExtraFare)
	if err != nil {
		return nil, err
	}
	section, err := s.newSection(ctx, 0, req.UpStationID, req.DownStationID, req.Distance, req.Duration)
	if err != nil {
		return nil, err
	}
	if err := draft.AddSection(section); err != nil {
		return nil, err
	}

	line, err := s.repo.CreateLine(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create line: %w", err)
	}

	s.logger.Info("line created", "line_id", line.ID, "name", line.Name, "extra_fare", line.ExtraFare)
	s.notifier.changed(ctx, domain.NetworkEvent{Type: domain.EventLineCreated, LineID: line.ID})
	return detail(line)
}

func (s *LineService) GetLine(ctx context.Context, id int64) (*LineDetail, error) {
	line, err := s.repo.GetLine(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail(line)
}

func (s *LineService) ListLines(ctx context.Context) ([]*LineDetail, error) {
	lines, err := s.repo.ListLines(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*LineDetail, 0, len(lines))
	for _, line := range lines {
		d, err := detail(line)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

func (s *LineService) UpdateLine(ctx context.Context, id int64, req UpdateLineRequest) (*LineDetail, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	line, err := s.repo.GetLine(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := line.Update(req.Name, req.Color, req.ExtraFare); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLine(ctx, line); err != nil {
		return nil, fmt.Errorf("update line: %w", err)
	}

	s.logger.Info("line updated", "line_id", id, "name", line.Name, "extra_fare", line.ExtraFare)
	s.notifier.changed(ctx, domain.NetworkEvent{Type: domain.EventLineUpdated, LineID: id})
	return detail(line)
}

// DeleteLine removes a line and all of its sections.
func (s *LineService) DeleteLine(ctx context.Context, id int64) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.repo.DeleteLine(ctx, id); err != nil {
		return fmt.Errorf("delete line: %w", err)
	}

	s.logger.Info("line deleted", "line_id", id)
	s.notifier.changed(ctx, domain.NetworkEvent{Type: domain.EventLineDeleted, LineID: id})
	return nil
}

// AddSection inserts a section into a line, splitting an existing section
// when needed, and persists the new topology.
func (s *LineService) AddSection(ctx context.Context, lineID int64, req SectionRequest) (*LineDetail, error) {
	unlock := s.locks.lock(lineID)
	defer unlock()

	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	section, err := s.newSection(ctx, lineID, req.UpStationID, req.DownStationID, req.Distance, req.Duration)
	if err != nil {
		return nil, err
	}
	if err := line.AddSection(section); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSections(ctx, line); err != nil {
		return nil, fmt.Errorf("save sections: %w", err)
	}

	s.logger.Info("section added",
		"line_id", lineID,
		"up_station_id", req.UpStationID,
		"down_station_id", req.DownStationID,
		"distance", req.Distance,
		"sections", line.Sections.Len(),
	)
	s.notifier.changed(ctx, domain.NetworkEvent{Type: domain.EventSectionAdded, LineID: lineID})
	return detail(line)
}

// RemoveStation takes a station off a line, merging its neighbouring
// sections when it is an interior station.
func (s *LineService) RemoveStation(ctx context.Context, lineID, stationID int64) (*LineDetail, error) {
	unlock := s.locks.lock(lineID)
	defer unlock()

	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	station, err := s.repo.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if err := line.RemoveStation(station); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSections(ctx, line); err != nil {
		return nil, fmt.Errorf("save sections: %w", err)
	}

	s.logger.Info("station removed from line",
		"line_id", lineID,
		"station_id", stationID,
		"sections", line.Sections.Len(),
	)
	s.notifier.changed(ctx, domain.NetworkEvent{Type: domain.EventStationRemoved, LineID: lineID, StationID: stationID})
	return detail(line)
}

// newSection resolves both stations so sections always carry names and
// never reference unknown stations.
func (s *LineService) newSection(ctx context.Context, lineID, upID, downID int64, distance, duration int) (domain.Section, error) {
	up, err := s.repo.GetStation(ctx, upID)
	if err != nil {
		return domain.Section{}, err
	}
	down, err := s.repo.GetStation(ctx, downID)
	if err != nil {
		return domain.Section{}, err
	}
	return domain.NewSection(lineID, up, down, distance, duration)
}

func detail(line *domain.Line) (*LineDetail, error) {
	stations, err := line.Stations()
	if err != nil {
		return nil, err
	}
	return &LineDetail{Line: line, Stations: stations}, nil
}
