// Package service coordinates storage, the topology and path engines, the
// path cache and the event hub. It is the only place that serialises
// mutations of a line.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"subway/internal/domain"
)

type StationRepository interface {
	CreateStation(ctx context.Context, name string) (domain.Station, error)
	GetStation(ctx context.Context, id int64) (domain.Station, error)
	ListStations(ctx context.Context) ([]domain.Station, error)
	DeleteStation(ctx context.Context, id int64) error
}

type LineRepository interface {
	CreateLine(ctx context.Context, line *domain.Line) (*domain.Line, error)
	GetLine(ctx context.Context, id int64) (*domain.Line, error)
	ListLines(ctx context.Context) ([]*domain.Line, error)
	UpdateLine(ctx context.Context, line *domain.Line) error
	SaveSections(ctx context.Context, line *domain.Line) error
	DeleteLine(ctx context.Context, id int64) error
}

// NetworkImporter writes a validated network in one step. Station IDs in
// the arguments are provisional and replaced by stored ones.
type NetworkImporter interface {
	ImportNetwork(ctx context.Context, stations []domain.Station, lines []*domain.Line) ([]*domain.Line, error)
}

type Repository interface {
	StationRepository
	LineRepository
	NetworkImporter
}

// PathCache stores computed path results under a network version.
// GetPath reports the version it looked under; SetPath must be given that
// version so a result computed before an invalidation never lands under
// the version that replaced it. Implementations may be lossy.
type PathCache interface {
	GetPath(ctx context.Context, req domain.PathRequest) (*domain.PathResult, int64, error)
	SetPath(ctx context.Context, version int64, req domain.PathRequest, result *domain.PathResult) error
	InvalidatePaths(ctx context.Context) error
}

type Publisher interface {
	Publish(event domain.NetworkEvent)
}

// ErrInvalidRequest marks input rejected before it reaches the domain.
var ErrInvalidRequest = errors.New("invalid request")

// changeNotifier runs the after-commit steps shared by every mutation.
type changeNotifier struct {
	cache  PathCache
	events Publisher
	logger *slog.Logger
}

func (n *changeNotifier) changed(ctx context.Context, event domain.NetworkEvent) {
	if n.cache != nil {
		if err := n.cache.InvalidatePaths(ctx); err != nil {
			n.logger.Warn("path cache invalidation failed", "event", event.Type, "error", err)
		}
	}
	if n.events != nil {
		event.At = time.Now()
		n.events.Publish(event)
	}
}

// lineLocks hands out one mutex per line ID.
type lineLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newLineLocks() *lineLocks {
	return &lineLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *lineLocks) lock(lineID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[lineID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[lineID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
