package cache

import (
	"context"
	"log/slog"
	"time"

	"subway/internal/domain"
)

type PathFinder interface {
	FindPath(ctx context.Context, req domain.PathRequest) (*domain.PathResult, error)
}

type LineLister interface {
	ListLines(ctx context.Context) ([]*domain.Line, error)
}

// CacheWarmer precomputes paths between line terminals, the queries riders
// ask most, so the first requests after a network change hit the cache.
type CacheWarmer struct {
	finder PathFinder
	lines  LineLister
	logger *slog.Logger
}

func NewCacheWarmer(finder PathFinder, lines LineLister, logger *slog.Logger) *CacheWarmer {
	return &CacheWarmer{
		finder: finder,
		lines:  lines,
		logger: logger.With("component", "cache_warmer"),
	}
}

func (w *CacheWarmer) WarmAll(ctx context.Context) error {
	start := time.Now()
	w.logger.Info("starting cache warming")

	lines, err := w.lines.ListLines(ctx)
	if err != nil {
		return err
	}

	terminals := Terminals(lines)
	warmed, failed := 0, 0
	for _, src := range terminals {
		for _, dst := range terminals {
			if src == dst {
				continue
			}
			for _, pathType := range []domain.PathType{domain.PathTypeDistance, domain.PathTypeDuration} {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				_, err := w.finder.FindPath(ctx, domain.PathRequest{Source: src, Target: dst, Type: pathType})
				if err != nil {
					w.logger.Debug("failed to warm path", "source", src, "target", dst, "type", pathType, "error", err)
					failed++
					continue
				}
				warmed++
			}
		}
	}

	w.logger.Info("cache warming completed",
		"terminals", len(terminals),
		"paths_warmed", warmed,
		"paths_failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Terminals returns the distinct first and last stations of every line in
// line order.
func Terminals(lines []*domain.Line) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, line := range lines {
		stations, err := line.Stations()
		if err != nil || len(stations) == 0 {
			continue
		}
		for _, st := range []domain.Station{stations[0], stations[len(stations)-1]} {
			if _, ok := seen[st.ID]; ok {
				continue
			}
			seen[st.ID] = struct{}{}
			ids = append(ids, st.ID)
		}
	}
	return ids
}
