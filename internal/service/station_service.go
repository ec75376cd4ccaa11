package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"subway/internal/domain"
)

type StationService struct {
	repo     StationRepository
	notifier *changeNotifier
	logger   *slog.Logger
}

func NewStationService(repo StationRepository, cache PathCache, events Publisher, logger *slog.Logger) *StationService {
	logger = logger.With("component", "station_service")
	return &StationService{
		repo:     repo,
		notifier: &changeNotifier{cache: cache, events: events, logger: logger},
		logger:   logger,
	}
}

func (s *StationService) CreateStation(ctx context.Context, name string) (domain.Station, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Station{}, fmt.Errorf("%w: station name must not be blank", ErrInvalidRequest)
	}

	st, err := s.repo.CreateStation(ctx, name)
	if err != nil {
		return domain.Station{}, fmt.Errorf("create station: %w", err)
	}

	s.logger.Info("station created", "station_id", st.ID, "name", st.Name)
	s.notifier.changed(ctx, domain.NetworkEvent{Type: domain.EventStationCreated, StationID: st.ID})
	return st, nil
}

func (s *StationService) GetStation(ctx context.Context, id int64) (domain.Station, error) {
	return s.repo.GetStation(ctx, id)
}

func (s *StationService) ListStations(ctx context.Context) ([]domain.Station, error) {
	return s.repo.ListStations(ctx)
}

// DeleteStation removes a station that no line uses.
func (s *StationService) DeleteStation(ctx context.Context, id int64) error {
	if err := s.repo.DeleteStation(ctx, id); err != nil {
		return fmt.Errorf("delete station: %w", err)
	}

	s.logger.Info("station deleted", "station_id", id)
	s.notifier.changed(ctx, domain.NetworkEvent{Type: domain.EventStationDeleted, StationID: id})
	return nil
}
