package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"subway/internal/domain"
	"subway/internal/fare"
	"subway/internal/pathfinder"
)

type PathService struct {
	lines  LineRepository
	cache  PathCache
	logger *slog.Logger

	queries     atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

func NewPathService(lines LineRepository, cache PathCache, logger *slog.Logger) *PathService {
	return &PathService{
		lines:  lines,
		cache:  cache,
		logger: logger.With("component", "path_service"),
	}
}

// FindPath answers a path request from a fresh snapshot of every line.
func (s *PathService) FindPath(ctx context.Context, req domain.PathRequest) (*domain.PathResult, error) {
	start := time.Now()
	s.queries.Add(1)

	if req.Type == "" {
		req.Type = domain.PathTypeDistance
	}

	cached, version, cacheable := s.fromCache(ctx, req)
	if cached != nil {
		s.logger.Debug("path cache hit",
			"source", req.Source,
			"target", req.Target,
			"type", req.Type,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return cached, nil
	}

	lines, err := s.lines.ListLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}

	route, err := pathfinder.FindPath(lines, req.Source, req.Target, req.Type)
	if err != nil {
		return nil, err
	}
	price, err := fare.Calculate(route.Distance, route.MaxExtraFare)
	if err != nil {
		return nil, err
	}

	result := &domain.PathResult{
		Stations: route.Stations,
		Distance: route.Distance,
		Duration: route.Duration,
		Fare:     price,
	}

	if cacheable {
		if err := s.cache.SetPath(ctx, version, req, result); err != nil {
			s.logger.Warn("path cache store failed", "error", err)
		}
	}

	s.logger.Debug("path computed",
		"source", req.Source,
		"target", req.Target,
		"type", req.Type,
		"lines_loaded", len(lines),
		"lines_used", route.LineIDs,
		"stations", len(result.Stations),
		"distance", result.Distance,
		"fare", result.Fare,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// fromCache returns a cached result, or on a miss the version a freshly
// computed result may be stored under. The version is read before the
// lines are loaded; cacheable is false when it could not be read.
func (s *PathService) fromCache(ctx context.Context, req domain.PathRequest) (cached *domain.PathResult, version int64, cacheable bool) {
	if s.cache == nil {
		return nil, 0, false
	}
	cached, version, err := s.cache.GetPath(ctx, req)
	if err != nil {
		s.logger.Warn("path cache read failed", "error", err)
		s.cacheMisses.Add(1)
		return nil, 0, false
	}
	if cached == nil {
		s.cacheMisses.Add(1)
		return nil, version, true
	}
	s.cacheHits.Add(1)
	return cached, version, true
}

type PathStats struct {
	Queries     int64 `json:"queries"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

func (s *PathService) Stats() PathStats {
	return PathStats{
		Queries:     s.queries.Load(),
		CacheHits:   s.cacheHits.Load(),
		CacheMisses: s.cacheMisses.Load(),
	}
}
