package ingestor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"subway/internal/service"
	"subway/pkg/seed"
)

type Importer interface {
	Import(ctx context.Context, network *seed.Network) (service.ImportSummary, error)
}

// SeedIngestor loads the CSV seed once at startup and flips the service to
// ready when the network is usable. A database that already holds a network
// keeps it; the seed is skipped.
type SeedIngestor struct {
	dir      string
	loader   *seed.Loader
	importer Importer
	logger   *slog.Logger
	onUpdate func(context.Context)

	ready   bool
	readyMu sync.RWMutex
}

func NewSeedIngestor(dir string, importer Importer, logger *slog.Logger) *SeedIngestor {
	return &SeedIngestor{
		dir:      dir,
		loader:   seed.NewLoader(logger),
		importer: importer,
		logger:   logger.With("component", "seed_ingestor"),
	}
}

// Start runs the import. Failures are logged and leave the service not
// ready; an empty seed directory makes it ready immediately.
func (i *SeedIngestor) Start(ctx context.Context) {
	if i.dir == "" {
		i.logger.Info("no seed directory configured")
		i.setReady(true)
		i.notify(ctx)
		return
	}

	start := time.Now()
	i.logger.Info("starting seed import", "dir", i.dir)

	network, err := i.loader.LoadDir(i.dir)
	if err != nil {
		i.logger.Error("failed to load seed", "dir", i.dir, "error", err)
		return
	}

	summary, err := i.importer.Import(ctx, network)
	switch {
	case errors.Is(err, service.ErrNetworkNotEmpty):
		i.logger.Info("network already present, seed skipped", "fingerprint", network.Fingerprint)
	case err != nil:
		i.logger.Error("failed to import seed", "error", err)
		return
	default:
		i.logger.Info("seed import completed",
			"stations", summary.Stations,
			"lines", summary.Lines,
			"sections", summary.Sections,
			"fingerprint", network.Fingerprint,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	i.setReady(true)
	i.notify(ctx)
}

func (i *SeedIngestor) notify(ctx context.Context) {
	if i.onUpdate != nil {
		i.onUpdate(ctx)
	}
}

func (i *SeedIngestor) IsReady() bool {
	i.readyMu.RLock()
	defer i.readyMu.RUnlock()
	return i.ready
}

func (i *SeedIngestor) setReady(ready bool) {
	i.readyMu.Lock()
	defer i.readyMu.Unlock()
	i.ready = ready
}

// SetOnUpdate registers fn to run after the network becomes ready.
func (i *SeedIngestor) SetOnUpdate(fn func(context.Context)) {
	i.onUpdate = fn
}
