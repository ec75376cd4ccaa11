package ingestor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"subway/internal/service"
	"subway/pkg/seed"
)

type stubImporter struct {
	network *seed.Network
	err     error
}

func (s *stubImporter) Import(_ context.Context, n *seed.Network) (service.ImportSummary, error) {
	s.network = n
	if s.err != nil {
		return service.ImportSummary{}, s.err
	}
	return service.ImportSummary{Stations: len(n.Stations), Lines: len(n.Lines), Sections: len(n.Sections)}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		seed.StationsFile: "station_id,name\n1,A\n2,B\n",
		seed.LinesFile:    "line_id,name,color\n1,L,red\n",
		seed.SectionsFile: "line_id,up_station_id,down_station_id,distance\n1,1,2,4\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestSeedIngestor(t *testing.T) {
	tests := []struct {
		name      string
		dir       func(t *testing.T) string
		err       error
		wantReady bool
		wantCalls int
	}{
		{"no seed dir", func(*testing.T) string { return "" }, nil, true, 1},
		{"imports", writeSeed, nil, true, 1},
		{"already seeded", writeSeed, service.ErrNetworkNotEmpty, true, 1},
		{"import fails", writeSeed, errors.New("disk full"), false, 0},
		{"missing files", func(t *testing.T) string { return t.TempDir() }, nil, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer := &stubImporter{err: tt.err}
			ing := NewSeedIngestor(tt.dir(t), importer, discard())
			calls := 0
			ing.SetOnUpdate(func(context.Context) { calls++ })

			ing.Start(context.Background())

			if ing.IsReady() != tt.wantReady {
				t.Errorf("ready = %v, want %v", ing.IsReady(), tt.wantReady)
			}
			if calls != tt.wantCalls {
				t.Errorf("onUpdate calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestSeedIngestorPassesParsedNetwork(t *testing.T) {
	importer := &stubImporter{}
	NewSeedIngestor(writeSeed(t), importer, discard()).Start(context.Background())

	if importer.network == nil {
		t.Fatal("importer not called")
	}
	if len(importer.network.Stations) != 2 || len(importer.network.Sections) != 1 {
		t.Errorf("network = %+v", importer.network)
	}
}
