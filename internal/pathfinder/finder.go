package pathfinder

import (
	"container/heap"
	"fmt"
	"math"

	"subway/internal/domain"
)

// Route is the cheapest path found between two stations. Distance and
// Duration are both summed over the chosen edges whichever one was
// minimised.
type Route struct {
	Stations     []domain.Station
	Distance     int
	Duration     int
	LineIDs      []int64
	MaxExtraFare int
}

// FindPath builds a graph from lines and searches it.
func FindPath(lines []*domain.Line, source, target int64, pathType domain.PathType) (Route, error) {
	g, err := BuildGraph(lines)
	if err != nil {
		return Route{}, err
	}
	return g.ShortestPath(source, target, pathType)
}

// ShortestPath runs Dijkstra from source, minimising the weight chosen by
// pathType.
func (g *Graph) ShortestPath(source, target int64, pathType domain.PathType) (Route, error) {
	if source == target {
		return Route{}, &PathError{Source: source, Target: target, Err: ErrSameStation}
	}
	weight, err := weightFunc(pathType)
	if err != nil {
		return Route{}, &PathError{Source: source, Target: target, Err: err}
	}
	src, ok := g.index[source]
	if !ok {
		return Route{}, &PathError{Source: source, Target: target, Station: source, Err: ErrStationNotFound}
	}
	dst, ok := g.index[target]
	if !ok {
		return Route{}, &PathError{Source: source, Target: target, Station: target, Err: ErrStationNotFound}
	}

	n := len(g.stations)
	dist := make([]int, n)
	prev := make([]int, n)
	via := make([]edge, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.MaxInt
		prev[i] = -1
	}
	dist[src] = 0

	pq := &queue{{vertex: src, weight: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		if done[cur.vertex] {
			continue
		}
		done[cur.vertex] = true
		if cur.vertex == dst {
			break
		}
		for _, e := range g.adj[cur.vertex] {
			if done[e.to] {
				continue
			}
			if w := cur.weight + weight(e); w < dist[e.to] {
				dist[e.to] = w
				prev[e.to] = cur.vertex
				via[e.to] = e
				heap.Push(pq, item{vertex: e.to, weight: w})
			}
		}
	}

	if dist[dst] == math.MaxInt {
		return Route{}, &PathError{Source: source, Target: target, Err: ErrNoRoute}
	}
	return g.route(src, dst, prev, via), nil
}

func (g *Graph) route(src, dst int, prev []int, via []edge) Route {
	var hops []int
	for v := dst; v != src; v = prev[v] {
		hops = append(hops, v)
	}

	r := Route{Stations: make([]domain.Station, 0, len(hops)+1)}
	r.Stations = append(r.Stations, g.stations[src])
	seen := make(map[int64]bool)
	for i := len(hops) - 1; i >= 0; i-- {
		v := hops[i]
		e := via[v]
		r.Stations = append(r.Stations, g.stations[v])
		r.Distance += e.distance
		r.Duration += e.duration
		if e.extraFare > r.MaxExtraFare {
			r.MaxExtraFare = e.extraFare
		}
		if !seen[e.lineID] {
			seen[e.lineID] = true
			r.LineIDs = append(r.LineIDs, e.lineID)
		}
	}
	return r
}

func weightFunc(t domain.PathType) (func(edge) int, error) {
	switch t {
	case domain.PathTypeDistance:
		return func(e edge) int { return e.distance }, nil
	case domain.PathTypeDuration:
		return func(e edge) int { return e.duration }, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPathType, t)
	}
}

type item struct {
	vertex int
	weight int
}

// queue is a min-heap ordered by weight, then vertex index.
type queue []item

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight < q[j].weight
	}
	return q[i].vertex < q[j].vertex
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(item)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
