package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"subway/internal/domain"
)

type repository interface {
	CreateStation(ctx context.Context, name string) (domain.Station, error)
	GetStation(ctx context.Context, id int64) (domain.Station, error)
	ListStations(ctx context.Context) ([]domain.Station, error)
	DeleteStation(ctx context.Context, id int64) error
	CreateLine(ctx context.Context, line *domain.Line) (*domain.Line, error)
	GetLine(ctx context.Context, id int64) (*domain.Line, error)
	ListLines(ctx context.Context) ([]*domain.Line, error)
	UpdateLine(ctx context.Context, line *domain.Line) error
	SaveSections(ctx context.Context, line *domain.Line) error
	DeleteLine(ctx context.Context, id int64) error
	ImportNetwork(ctx context.Context, stations []domain.Station, lines []*domain.Line) ([]*domain.Line, error)
}

// importDraft builds a line over provisional station IDs.
func importDraft(t *testing.T, name string, stations ...domain.Station) *domain.Line {
	t.Helper()
	line, err := domain.NewLine(0, name, "grey", 0)
	if err != nil {
		t.Fatalf("NewLine: %v", err)
	}
	for i := 1; i < len(stations); i++ {
		sec := domain.Section{UpStation: stations[i-1], DownStation: stations[i], Distance: 3, Duration: 1}
		if err := line.AddSection(sec); err != nil {
			t.Fatalf("AddSection: %v", err)
		}
	}
	return line
}

func assertEmpty(t *testing.T, repo repository) {
	t.Helper()
	ctx := context.Background()
	stations, err := repo.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	lines, err := repo.ListLines(ctx)
	if err != nil {
		t.Fatalf("ListLines: %v", err)
	}
	if len(stations) != 0 || len(lines) != 0 {
		t.Fatalf("expected empty store, got %d stations and %d lines", len(stations), len(lines))
	}
}

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "subway.db"), logger)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStore(t *testing.T) {
	testRepository(t, func(t *testing.T) repository { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	testRepository(t, func(t *testing.T) repository { return newSQLite(t) })
}

func testRepository(t *testing.T, open func(t *testing.T) repository) {
	t.Run("stations", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		gangnam, err := repo.CreateStation(ctx, "Gangnam")
		if err != nil {
			t.Fatalf("CreateStation: %v", err)
		}
		if _, err := repo.CreateStation(ctx, "Gangnam"); !errors.Is(err, ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}
		if _, err := repo.CreateStation(ctx, "Yeoksam"); err != nil {
			t.Fatalf("CreateStation: %v", err)
		}

		got, err := repo.GetStation(ctx, gangnam.ID)
		if err != nil || got != gangnam {
			t.Fatalf("GetStation = %v, %v; want %v", got, err, gangnam)
		}

		all, err := repo.ListStations(ctx)
		if err != nil {
			t.Fatalf("ListStations: %v", err)
		}
		if len(all) != 2 || all[0].Name != "Gangnam" || all[1].Name != "Yeoksam" {
			t.Fatalf("unexpected stations %v", all)
		}

		if err := repo.DeleteStation(ctx, gangnam.ID); err != nil {
			t.Fatalf("DeleteStation: %v", err)
		}
		if _, err := repo.GetStation(ctx, gangnam.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.DeleteStation(ctx, gangnam.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("lines", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()

		var st []domain.Station
		for _, name := range []string{"A", "B", "C", "D"} {
			s, err := repo.CreateStation(ctx, name)
			if err != nil {
				t.Fatalf("CreateStation: %v", err)
			}
			st = append(st, s)
		}

		draft, err := domain.NewLine(0, "Line 2", "green", 100)
		if err != nil {
			t.Fatalf("NewLine: %v", err)
		}
		if err := draft.AddSection(domain.Section{UpStation: st[0], DownStation: st[1], Distance: 10, Duration: 3}); err != nil {
			t.Fatalf("AddSection: %v", err)
		}

		line, err := repo.CreateLine(ctx, draft)
		if err != nil {
			t.Fatalf("CreateLine: %v", err)
		}
		if line.ID == 0 {
			t.Fatal("expected an assigned line id")
		}
		if _, err := repo.CreateLine(ctx, draft); !errors.Is(err, ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}

		if err := line.AddSection(domain.Section{UpStation: st[0], DownStation: st[2], Distance: 4, Duration: 1}); err != nil {
			t.Fatalf("AddSection split: %v", err)
		}
		if err := line.AddSection(domain.Section{UpStation: st[1], DownStation: st[3], Distance: 7, Duration: 2}); err != nil {
			t.Fatalf("AddSection extend: %v", err)
		}
		if err := repo.SaveSections(ctx, line); err != nil {
			t.Fatalf("SaveSections: %v", err)
		}

		if err := repo.DeleteStation(ctx, st[2].ID); !errors.Is(err, ErrStationInUse) {
			t.Fatalf("expected ErrStationInUse, got %v", err)
		}

		loaded, err := repo.GetLine(ctx, line.ID)
		if err != nil {
			t.Fatalf("GetLine: %v", err)
		}
		stations, err := loaded.Stations()
		if err != nil {
			t.Fatalf("Stations: %v", err)
		}
		wantNames := []string{"A", "C", "B", "D"}
		if len(stations) != len(wantNames) {
			t.Fatalf("expected %v, got %v", wantNames, stations)
		}
		for i, s := range stations {
			if s.Name != wantNames[i] {
				t.Fatalf("station %d: expected %s, got %s", i, wantNames[i], s.Name)
			}
		}
		loadedSections, err := loaded.Sections.Sections()
		if err != nil {
			t.Fatalf("Sections: %v", err)
		}
		dist := 0
		for _, s := range loadedSections {
			dist += s.Distance
		}
		if dist != 17 {
			t.Fatalf("expected total distance 17, got %d", dist)
		}

		loaded.Name, loaded.ExtraFare = "Line 2 Loop", 300
		if err := repo.UpdateLine(ctx, loaded); err != nil {
			t.Fatalf("UpdateLine: %v", err)
		}

		empty, err := domain.NewLine(0, "Line 9", "gold", 0)
		if err != nil {
			t.Fatalf("NewLine: %v", err)
		}
		if _, err := repo.CreateLine(ctx, empty); err != nil {
			t.Fatalf("CreateLine empty: %v", err)
		}

		all, err := repo.ListLines(ctx)
		if err != nil {
			t.Fatalf("ListLines: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(all))
		}
		if all[0].Name != "Line 2 Loop" || all[0].ExtraFare != 300 || all[0].Sections.Len() != 3 {
			t.Fatalf("unexpected first line %+v (%d sections)", all[0], all[0].Sections.Len())
		}
		if all[1].Name != "Line 9" || !all[1].Sections.IsEmpty() {
			t.Fatalf("unexpected second line %+v", all[1])
		}

		all[1].Name = "Line 2 Loop"
		if err := repo.UpdateLine(ctx, all[1]); !errors.Is(err, ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName on rename, got %v", err)
		}

		if err := repo.DeleteLine(ctx, line.ID); err != nil {
			t.Fatalf("DeleteLine: %v", err)
		}
		if _, err := repo.GetLine(ctx, line.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.SaveSections(ctx, line); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound saving a deleted line, got %v", err)
		}
		if err := repo.DeleteStation(ctx, st[2].ID); err != nil {
			t.Fatalf("station should be free after line delete: %v", err)
		}
	})

	t.Run("import", func(t *testing.T) {
		repo := open(t)
		ctx := context.Background()
		a, b, c := domain.Station{ID: 101, Name: "A"}, domain.Station{ID: 102, Name: "B"}, domain.Station{ID: 103, Name: "C"}

		created, err := repo.ImportNetwork(ctx,
			[]domain.Station{a, b, c},
			[]*domain.Line{importDraft(t, "Red", a, b, c), importDraft(t, "Blue", c, a)})
		if err != nil {
			t.Fatalf("ImportNetwork: %v", err)
		}
		if len(created) != 2 || created[0].Sections.Len() != 2 || created[1].Sections.Len() != 1 {
			t.Fatalf("unexpected lines %v", created)
		}

		loaded, err := repo.GetLine(ctx, created[0].ID)
		if err != nil {
			t.Fatalf("GetLine: %v", err)
		}
		stations, err := loaded.Stations()
		if err != nil {
			t.Fatalf("Stations: %v", err)
		}
		for i, want := range []string{"A", "B", "C"} {
			if stations[i].Name != want {
				t.Fatalf("station %d: expected %s, got %s", i, want, stations[i].Name)
			}
			if _, err := repo.GetStation(ctx, stations[i].ID); err != nil {
				t.Fatalf("section references unstored station %v: %v", stations[i], err)
			}
		}

		if _, err := repo.ImportNetwork(ctx, []domain.Station{{ID: 1, Name: "Z"}}, nil); !errors.Is(err, ErrNotEmpty) {
			t.Fatalf("expected ErrNotEmpty, got %v", err)
		}
	})

	t.Run("import is all or nothing", func(t *testing.T) {
		a, b, c := domain.Station{ID: 1, Name: "A"}, domain.Station{ID: 2, Name: "B"}, domain.Station{ID: 3, Name: "C"}
		tests := []struct {
			name     string
			stations []domain.Station
			lines    []*domain.Line
			want     error
		}{
			{"duplicate station name", []domain.Station{a, b, {ID: 3, Name: "A"}}, nil, ErrDuplicateName},
			{"duplicate line name", []domain.Station{a, b, c}, []*domain.Line{importDraft(t, "Red", a, b), importDraft(t, "Red", b, c)}, ErrDuplicateName},
			{"unknown station", []domain.Station{a, b}, []*domain.Line{importDraft(t, "Red", a, b), importDraft(t, "Blue", b, c)}, ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := open(t)
				if _, err := repo.ImportNetwork(context.Background(), tt.stations, tt.lines); !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				assertEmpty(t, repo)
			})
		}
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "subway.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path, logger)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := s.CreateStation(ctx, "Jamsil"); err != nil {
		t.Fatalf("CreateStation: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	stations, err := s.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if len(stations) != 1 || stations[0].Name != "Jamsil" {
		t.Fatalf("expected persisted station, got %v", stations)
	}
}
