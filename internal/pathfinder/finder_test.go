package pathfinder

import (
	"errors"
	"reflect"
	"testing"

	"subway/internal/domain"
)

func station(id int64) domain.Station {
	return domain.Station{ID: id, Name: "St" + string(rune('0'+id))}
}

type seg struct {
	up, down           int64
	distance, duration int
}

func line(t *testing.T, id int64, extraFare int, segs ...seg) *domain.Line {
	t.Helper()
	sections := make([]domain.Section, 0, len(segs))
	for _, s := range segs {
		sections = append(sections, domain.Section{
			UpStation:   station(s.up),
			DownStation: station(s.down),
			Distance:    s.distance,
			Duration:    s.duration,
		})
	}
	l, err := domain.RestoreLine(id, "line", "color", extraFare, sections)
	if err != nil {
		t.Fatalf("RestoreLine: %v", err)
	}
	return l
}

func stationIDs(stations []domain.Station) []int64 {
	ids := make([]int64, len(stations))
	for i, s := range stations {
		ids[i] = s.ID
	}
	return ids
}

func TestFindPathAcrossLines(t *testing.T) {
	lineA := line(t, 1, 0, seg{1, 2, 5, 1}, seg{2, 3, 5, 1})
	lineB := line(t, 2, 500, seg{2, 4, 3, 1})

	route, err := FindPath([]*domain.Line{lineA, lineB}, 1, 4, domain.PathTypeDistance)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if got := stationIDs(route.Stations); !reflect.DeepEqual(got, []int64{1, 2, 4}) {
		t.Fatalf("expected path [1 2 4], got %v", got)
	}
	if route.Distance != 8 {
		t.Fatalf("expected distance 8, got %d", route.Distance)
	}
	if route.Duration != 2 {
		t.Fatalf("expected duration 2, got %d", route.Duration)
	}
	if route.MaxExtraFare != 500 {
		t.Fatalf("expected max extra fare 500, got %d", route.MaxExtraFare)
	}
	if !reflect.DeepEqual(route.LineIDs, []int64{1, 2}) {
		t.Fatalf("expected lines [1 2], got %v", route.LineIDs)
	}
}

func TestFindPathTravelsAgainstSectionDirection(t *testing.T) {
	l := line(t, 1, 0, seg{1, 2, 5, 1}, seg{2, 3, 5, 1})

	route, err := FindPath([]*domain.Line{l}, 3, 1, domain.PathTypeDistance)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if got := stationIDs(route.Stations); !reflect.DeepEqual(got, []int64{3, 2, 1}) {
		t.Fatalf("expected path [3 2 1], got %v", got)
	}
}

func TestFindPathByDuration(t *testing.T) {
	// Short but slow via 2, long but fast via 3.
	slow := line(t, 1, 0, seg{1, 2, 2, 30}, seg{2, 4, 2, 30})
	fast := line(t, 2, 900, seg{1, 3, 10, 5}, seg{3, 4, 10, 5})
	lines := []*domain.Line{slow, fast}

	byDistance, err := FindPath(lines, 1, 4, domain.PathTypeDistance)
	if err != nil {
		t.Fatalf("FindPath distance: %v", err)
	}
	if got := stationIDs(byDistance.Stations); !reflect.DeepEqual(got, []int64{1, 2, 4}) {
		t.Fatalf("distance path: got %v", got)
	}
	if byDistance.Distance != 4 || byDistance.Duration != 60 {
		t.Fatalf("distance path totals: %d / %d", byDistance.Distance, byDistance.Duration)
	}

	byDuration, err := FindPath(lines, 1, 4, domain.PathTypeDuration)
	if err != nil {
		t.Fatalf("FindPath duration: %v", err)
	}
	if got := stationIDs(byDuration.Stations); !reflect.DeepEqual(got, []int64{1, 3, 4}) {
		t.Fatalf("duration path: got %v", got)
	}
	if byDuration.Distance != 20 || byDuration.Duration != 10 {
		t.Fatalf("duration path totals: %d / %d", byDuration.Distance, byDuration.Duration)
	}
	if byDuration.MaxExtraFare != 900 {
		t.Fatalf("expected surcharge 900, got %d", byDuration.MaxExtraFare)
	}
}

func TestFindPathPicksCheaperParallelEdge(t *testing.T) {
	a := line(t, 1, 100, seg{1, 2, 9, 1})
	b := line(t, 2, 200, seg{1, 2, 4, 1})

	route, err := FindPath([]*domain.Line{a, b}, 1, 2, domain.PathTypeDistance)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if route.Distance != 4 || route.MaxExtraFare != 200 {
		t.Fatalf("expected the line 2 edge, got distance %d fare %d", route.Distance, route.MaxExtraFare)
	}
}

func TestFindPathErrors(t *testing.T) {
	lines := []*domain.Line{
		line(t, 1, 0, seg{1, 2, 5, 1}),
		line(t, 2, 0, seg{3, 4, 5, 1}),
	}

	tests := []struct {
		name           string
		source, target int64
		pathType       domain.PathType
		want           error
	}{
		{"same station", 1, 1, domain.PathTypeDistance, ErrSameStation},
		{"unknown source", 9, 1, domain.PathTypeDistance, ErrStationNotFound},
		{"unknown target", 1, 9, domain.PathTypeDistance, ErrStationNotFound},
		{"disconnected", 1, 4, domain.PathTypeDistance, ErrNoRoute},
		{"bad type", 1, 2, domain.PathType("FARE"), domain.ErrInvalidPathType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindPath(lines, tt.source, tt.target, tt.pathType)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var pe *PathError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PathError, got %T", err)
			}
			if pe.Source != tt.source || pe.Target != tt.target {
				t.Fatalf("error context %d->%d, want %d->%d", pe.Source, pe.Target, tt.source, tt.target)
			}
		})
	}
}

func TestFindPathDeterministic(t *testing.T) {
	// Two equal-weight routes 1-2-4 and 1-3-4.
	lines := []*domain.Line{
		line(t, 1, 0, seg{1, 2, 5, 5}, seg{2, 4, 5, 5}),
		line(t, 2, 0, seg{1, 3, 5, 5}, seg{3, 4, 5, 5}),
	}

	first, err := FindPath(lines, 1, 4, domain.PathTypeDistance)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := FindPath(lines, 1, 4, domain.PathTypeDistance)
		if err != nil {
			t.Fatalf("FindPath: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestBuildGraphCounts(t *testing.T) {
	lines := []*domain.Line{
		line(t, 1, 0, seg{1, 2, 5, 1}, seg{2, 3, 5, 1}),
		line(t, 2, 0, seg{2, 4, 3, 1}),
		nil,
	}
	g, err := BuildGraph(lines)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if g.VertexCount() != 4 {
		t.Fatalf("expected 4 vertices, got %d", g.VertexCount())
	}
	if g.EdgeCount() != 6 {
		t.Fatalf("expected 6 directed edges, got %d", g.EdgeCount())
	}
	if !g.HasStation(4) || g.HasStation(5) {
		t.Fatal("unexpected station membership")
	}
}
