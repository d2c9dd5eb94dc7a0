// Package planner chooses what each own train should do next: which goods
// type to haul, which post to haul it from, and the route to get there. It
// produces reservations the executor follows and the planner itself consults
// to avoid sending two trains after the same stock.
package planner

import (
	"sort"

	"github.com/MorozVladislav/Engine/game/engine"
	"github.com/MorozVladislav/Engine/game/graph"
)

// Planner computes reservations over the shared game state.
type Planner struct {
	state *engine.State
	graph *graph.Graph
}

// New creates a planner over the given state and graph.
func New(state *engine.State, g *graph.Graph) *Planner {
	return &Planner{state: state, graph: g}
}

// candidate is one evaluated haul option for a goods type.
type candidate struct {
	goodsType engine.GoodsType
	route     []int
	expected  int
	trip      int
	profit    float64
}

// Plan computes a reservation for the train. excludeLines carries extra line
// exclusions from collision re-planning and may be nil. It returns nil when
// no target is reachable; the train then stays stopped for the tick and is
// retried on the next one.
func (p *Planner) Plan(t *engine.Train, excludeLines map[int]bool) *engine.Reservation {
	line, ok := p.state.Map.Lines[t.LineIdx]
	if !ok {
		return nil
	}
	source := p.sourcePoint(t, line)
	townPoint := p.state.TownPoint()
	if townPoint == -1 {
		return nil
	}

	// A fully loaded train has exactly one job: bring the goods home.
	if t.GoodsCapacity > 0 && t.Goods == t.GoodsCapacity {
		return p.homeboundReservation(t, source, excludeLines)
	}

	distHome, _ := p.graph.ShortestPaths(p.graph.Full(), townPoint)

	// A partially loaded train is locked to the type it carries.
	if t.Goods > 0 {
		best := p.bestCandidate(t, t.GoodsType, source, townPoint, distHome, excludeLines)
		return p.reservationFrom(t, best)
	}

	product := p.bestCandidate(t, engine.GoodsProduct, source, townPoint, distHome, excludeLines)
	armor := p.bestCandidate(t, engine.GoodsArmor, source, townPoint, distHome, excludeLines)

	switch {
	case product == nil:
		return p.reservationFrom(t, armor)
	case armor == nil:
		return p.reservationFrom(t, product)
	}

	// Load balancing across empty trains: prefer armor once product hauls
	// outnumber armor hauls more than two to one.
	productCount, armorCount := p.assignmentCounts(t.Idx)
	if productCount > 2*armorCount {
		return p.reservationFrom(t, armor)
	}
	return p.reservationFrom(t, product)
}

// sourcePoint picks the endpoint the plan starts from: position 0 plans from
// Points[0], any other position from Points[1].
func (p *Planner) sourcePoint(t *engine.Train, line *engine.Line) int {
	if t.Position == 0 {
		return line.Points[0]
	}
	return line.Points[1]
}

// homeboundReservation routes a loaded train back to town on the full
// adjacency.
func (p *Planner) homeboundReservation(t *engine.Train, source int, excludeLines map[int]bool) *engine.Reservation {
	adj := p.graph.Full()
	if len(excludeLines) > 0 {
		adj = p.graph.Filtered(nil, excludeLines)
	}
	dist, prev := p.graph.ShortestPaths(adj, source)
	townPoint := p.state.TownPoint()
	route := graph.Path(prev, source, townPoint)
	if route == nil {
		return nil
	}
	return &engine.Reservation{
		GoodsType:     t.GoodsType,
		Expected:      t.Goods,
		TripRemaining: dist[townPoint],
		Route:         p.normalizeRoute(route, t),
	}
}

// bestCandidate evaluates every post of the goods type reachable from source
// and returns the most profitable haul, or nil when none is reachable.
func (p *Planner) bestCandidate(t *engine.Train, goodsType engine.GoodsType, source, townPoint int, distHome map[int]int, excludeLines map[int]bool) *candidate {
	adj := p.outboundAdjacency(t, goodsType, excludeLines)
	distOut, prevOut := p.graph.ShortestPaths(adj, source)

	targets := p.targetPoints(goodsType)
	population := 1
	if p.state.Town != nil && p.state.Town.Population > 0 {
		population = p.state.Town.Population
	}

	var best *candidate
	for _, target := range targets {
		outTrip, reachable := distOut[target]
		if !reachable {
			continue
		}
		returnTrip, homeReachable := distHome[target]
		if !homeReachable {
			continue
		}
		trip := outTrip + returnTrip
		if trip == 0 {
			continue
		}

		available := p.availableGoods(t.Idx, goodsType, target, outTrip)
		loaded := t.GoodsCapacity - t.Goods
		if available < loaded {
			loaded = available
		}
		if loaded < 0 {
			loaded = 0
		}

		c := &candidate{
			goodsType: goodsType,
			route:     graph.Path(prevOut, source, target),
			expected:  loaded,
			trip:      trip,
		}
		if c.route == nil {
			continue
		}
		if goodsType == engine.GoodsProduct {
			c.profit = float64(loaded - trip*population)
		} else {
			c.profit = float64(loaded) / float64(trip)
		}
		if best == nil || c.profit > best.profit {
			best = c
		}
	}

	// Standing on a matching post, heading home to unload is a terminal
	// option: the cargo on board against the consumption of the way back.
	if p.standsOnPost(source, goodsType) && t.Goods > 0 {
		if returnTrip, ok := distHome[source]; ok && returnTrip > 0 {
			_, prevFull := p.graph.ShortestPaths(p.graph.Full(), source)
			route := graph.Path(prevFull, source, townPoint)
			if route != nil {
				c := &candidate{
					goodsType: goodsType,
					route:     route,
					expected:  t.Goods,
					trip:      returnTrip,
					profit:    float64(t.Goods - returnTrip*population),
				}
				if best == nil || c.profit > best.profit {
					best = c
				}
			}
		}
	}
	return best
}

// outboundAdjacency picks the adjacency for the pickup leg: an empty train
// avoids posts of the opposite goods type, a loaded one travels the full
// graph. Collision exclusions are applied on top.
func (p *Planner) outboundAdjacency(t *engine.Train, goodsType engine.GoodsType, excludeLines map[int]bool) graph.Adjacency {
	if t.Goods > 0 {
		if len(excludeLines) == 0 {
			return p.graph.Full()
		}
		return p.graph.Filtered(nil, excludeLines)
	}

	opposite := make(map[int]bool)
	if goodsType == engine.GoodsProduct {
		for _, point := range p.state.StoragePoints() {
			opposite[point] = true
		}
	} else {
		for _, point := range p.state.MarketPoints() {
			opposite[point] = true
		}
	}
	if len(excludeLines) == 0 {
		if goodsType == engine.GoodsProduct {
			return p.graph.NoStorages()
		}
		return p.graph.NoMarkets()
	}
	return p.graph.Filtered(opposite, excludeLines)
}

func (p *Planner) targetPoints(goodsType engine.GoodsType) []int {
	if goodsType == engine.GoodsProduct {
		return p.state.MarketPoints()
	}
	return p.state.StoragePoints()
}

func (p *Planner) standsOnPost(point int, goodsType engine.GoodsType) bool {
	if goodsType == engine.GoodsProduct {
		return p.state.MarketAt(point) != nil
	}
	return p.state.StorageAt(point) != nil
}

// availableGoods estimates the stock at a post when the train arrives
// outTrip ticks from now: current stock plus replenishment, minus what other
// trains arriving earlier have already reserved, capped at the post
// capacity.
func (p *Planner) availableGoods(trainIdx int, goodsType engine.GoodsType, target, outTrip int) int {
	var stock, capacity, replenishment int
	if goodsType == engine.GoodsProduct {
		market := p.state.MarketAt(target)
		if market == nil {
			return 0
		}
		stock, capacity, replenishment = market.Product, market.ProductCapacity, market.Replenishment
	} else {
		storage := p.state.StorageAt(target)
		if storage == nil {
			return 0
		}
		stock, capacity, replenishment = storage.Armor, storage.ArmorCapacity, storage.Replenishment
	}

	available := stock + replenishment*outTrip
	for otherIdx, reservation := range p.state.Reservations() {
		if otherIdx == trainIdx {
			continue
		}
		if reservation.Target() == target && reservation.TripRemaining < outTrip {
			available -= reservation.Expected
		}
	}
	if available > capacity {
		available = capacity
	}
	if available < 0 {
		available = 0
	}
	return available
}

// assignmentCounts tallies reservations by goods type across the other own
// trains.
func (p *Planner) assignmentCounts(trainIdx int) (product, armor int) {
	indices := make([]int, 0, len(p.state.Reservations()))
	for idx := range p.state.Reservations() {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		if idx == trainIdx {
			continue
		}
		switch p.state.Reservations()[idx].GoodsType {
		case engine.GoodsProduct:
			product++
		case engine.GoodsArmor:
			armor++
		}
	}
	return product, armor
}

func (p *Planner) reservationFrom(t *engine.Train, c *candidate) *engine.Reservation {
	if c == nil {
		return nil
	}
	return &engine.Reservation{
		GoodsType:     c.goodsType,
		Expected:      c.expected,
		TripRemaining: c.trip,
		Route:         p.normalizeRoute(c.route, t),
	}
}

// normalizeRoute makes the first two route points span the train's current
// line when the train is mid-line, so the executor can join the route by
// moving to either endpoint in one step.
func (p *Planner) normalizeRoute(route []int, t *engine.Train) []int {
	line, ok := p.state.Map.Lines[t.LineIdx]
	if !ok || len(route) == 0 {
		return route
	}
	if t.Position == 0 || t.Position == line.Length {
		return route
	}
	a, b := line.Points[0], line.Points[1]
	switch {
	case route[0] == a && (len(route) == 1 || route[1] != b):
		return append([]int{b}, route...)
	case route[0] == b && (len(route) == 1 || route[1] != a):
		return append([]int{a}, route...)
	}
	return route
}
