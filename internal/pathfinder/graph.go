package pathfinder

import (
	"fmt"

	"subway/internal/domain"
)

type edge struct {
	to        int
	distance  int
	duration  int
	lineID    int64
	extraFare int
}

// Graph is a directed multigraph over every station of a network. Vertices
// are dense indices handed out in first-seen order, so a fixed line order
// always yields the same graph.
type Graph struct {
	stations []domain.Station
	index    map[int64]int
	adj      [][]edge
	edges    int
}

// BuildGraph adds both directions of every section of every line. Sections
// shared by several lines produce parallel edges. A line whose sections do
// not form a single path fails the build.
func BuildGraph(lines []*domain.Line) (*Graph, error) {
	g := &Graph{index: make(map[int64]int)}
	for _, line := range lines {
		if line == nil || line.Sections == nil {
			continue
		}
		sections, err := line.Sections.Sections()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.ID, err)
		}
		for _, sec := range sections {
			u := g.vertex(sec.UpStation)
			v := g.vertex(sec.DownStation)
			g.addEdge(u, v, sec, line)
			g.addEdge(v, u, sec, line)
		}
	}
	return g, nil
}

func (g *Graph) vertex(st domain.Station) int {
	if i, ok := g.index[st.ID]; ok {
		return i
	}
	i := len(g.stations)
	g.index[st.ID] = i
	g.stations = append(g.stations, st)
	g.adj = append(g.adj, nil)
	return i
}

func (g *Graph) addEdge(from, to int, sec domain.Section, line *domain.Line) {
	g.adj[from] = append(g.adj[from], edge{
		to:        to,
		distance:  sec.Distance,
		duration:  sec.Duration,
		lineID:    line.ID,
		extraFare: line.ExtraFare,
	})
	g.edges++
}

func (g *Graph) VertexCount() int { return len(g.stations) }

// EdgeCount counts directed edges, two per section.
func (g *Graph) EdgeCount() int { return g.edges }

func (g *Graph) HasStation(id int64) bool {
	_, ok := g.index[id]
	return ok
}
