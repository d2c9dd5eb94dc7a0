// Package graph provides adjacency views of the rail map and shortest-path
// search over them. The bot keeps one Graph per game; the full, no-market and
// no-storage adjacency variants are cached because the line set never changes
// within a game.
package graph

import (
	"sort"

	"github.com/MorozVladislav/Engine/game/engine"
)

// Adjacency maps point -> neighbor point -> connecting line idx. It is
// symmetric: A[u][v] == A[v][u].
type Adjacency map[int]map[int]int

// Graph builds and caches adjacency variants over a fixed line set.
type Graph struct {
	lines map[int]*engine.Line

	marketPoints  map[int]bool
	storagePoints map[int]bool

	full       Adjacency
	noMarkets  Adjacency
	noStorages Adjacency
}

// New creates a graph over the map's line set.
func New(m *engine.Map) *Graph {
	return &Graph{lines: m.Lines}
}

// SetPostPoints records which points host markets and storages and resets
// the cached variants built from them. It is called once the first dynamic
// snapshot reveals the posts.
func (g *Graph) SetPostPoints(marketPoints, storagePoints []int) {
	g.marketPoints = make(map[int]bool, len(marketPoints))
	for _, p := range marketPoints {
		g.marketPoints[p] = true
	}
	g.storagePoints = make(map[int]bool, len(storagePoints))
	for _, p := range storagePoints {
		g.storagePoints[p] = true
	}
	g.noMarkets = nil
	g.noStorages = nil
}

// Full returns the unfiltered adjacency.
func (g *Graph) Full() Adjacency {
	if g.full == nil {
		g.full = g.build(nil, nil)
	}
	return g.full
}

// NoMarkets returns the adjacency with all market points excluded.
func (g *Graph) NoMarkets() Adjacency {
	if g.noMarkets == nil {
		g.noMarkets = g.build(g.marketPoints, nil)
	}
	return g.noMarkets
}

// NoStorages returns the adjacency with all storage points excluded.
func (g *Graph) NoStorages() Adjacency {
	if g.noStorages == nil {
		g.noStorages = g.build(g.storagePoints, nil)
	}
	return g.noStorages
}

// Filtered builds an adjacency omitting lines that touch any excluded point
// or carry an excluded line idx. Unlike the named variants it is rebuilt on
// every call.
func (g *Graph) Filtered(excludePoints, excludeLines map[int]bool) Adjacency {
	return g.build(excludePoints, excludeLines)
}

func (g *Graph) build(excludePoints, excludeLines map[int]bool) Adjacency {
	adj := make(Adjacency)
	for _, line := range g.lines {
		if excludeLines[line.Idx] {
			continue
		}
		a, b := line.Points[0], line.Points[1]
		if excludePoints[a] || excludePoints[b] {
			continue
		}
		if adj[a] == nil {
			adj[a] = make(map[int]int)
		}
		if adj[b] == nil {
			adj[b] = make(map[int]int)
		}
		adj[a][b] = line.Idx
		adj[b][a] = line.Idx
	}
	return adj
}

// ShortestPaths runs Dijkstra from source over the given adjacency with line
// lengths as edge weights. It returns distances and predecessors for every
// reachable point; unreachable points are absent from both maps. Ties are
// broken toward the smallest neighbor point id so routes are deterministic.
func (g *Graph) ShortestPaths(adj Adjacency, source int) (dist map[int]int, prev map[int]int) {
	dist = map[int]int{source: 0}
	prev = make(map[int]int)
	visited := make(map[int]bool)

	for {
		// Select the unvisited point with the smallest known distance,
		// ties toward the smaller point id.
		current, best := -1, 0
		for point, d := range dist {
			if visited[point] {
				continue
			}
			if current == -1 || d < best || (d == best && point < current) {
				current, best = point, d
			}
		}
		if current == -1 {
			break
		}
		visited[current] = true

		neighbors := make([]int, 0, len(adj[current]))
		for neighbor := range adj[current] {
			neighbors = append(neighbors, neighbor)
		}
		sort.Ints(neighbors)

		for _, neighbor := range neighbors {
			if visited[neighbor] {
				continue
			}
			line := g.lines[adj[current][neighbor]]
			candidate := best + line.Length
			known, ok := dist[neighbor]
			if !ok || candidate < known {
				dist[neighbor] = candidate
				prev[neighbor] = current
			}
		}
	}
	return dist, prev
}

// Path reconstructs the shortest path from source to target out of a
// predecessor map. It returns nil when target is unreachable.
func Path(prev map[int]int, source, target int) []int {
	if source == target {
		return []int{source}
	}
	if _, ok := prev[target]; !ok {
		return nil
	}
	route := []int{target}
	for point := target; point != source; {
		point = prev[point]
		route = append(route, point)
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}

// LineBetween returns the line idx connecting two points in the adjacency,
// or -1 when they are not adjacent.
func LineBetween(adj Adjacency, a, b int) int {
	if neighbors, ok := adj[a]; ok {
		if lineIdx, ok := neighbors[b]; ok {
			return lineIdx
		}
	}
	return -1
}
