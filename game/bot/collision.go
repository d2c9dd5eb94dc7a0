package bot

import (
	"github.com/MorozVladislav/Engine/game/engine"
)

// occupancyMap tracks projected (line, position) pairs for the collision
// pass: opponents extrapolated by their last observed speed, own trains at
// the position their dispatched MOVE puts them. The town point is exempt so
// trains can stack there.
type occupancyMap struct {
	lines  map[int]map[int]bool
	points map[int]bool
	town   int
}

// projectOpponents seeds the occupancy with every opponent train advanced by
// its last observed speed, clamped to its line.
func (b *Bot) projectOpponents() *occupancyMap {
	occupied := &occupancyMap{
		lines:  make(map[int]map[int]bool),
		points: make(map[int]bool),
		town:   b.state.TownPoint(),
	}
	for _, train := range b.state.Trains {
		if train.PlayerIdx == b.state.PlayerIdx {
			continue
		}
		line, ok := b.state.Map.Lines[train.LineIdx]
		if !ok {
			continue
		}
		position := train.Position + train.Speed
		if position < 0 {
			position = 0
		}
		if position > line.Length {
			position = line.Length
		}
		occupied.record(b.state, line.Idx, position)
	}
	return occupied
}

func (o *occupancyMap) record(state *engine.State, lineIdx, position int) {
	if o.lines[lineIdx] == nil {
		o.lines[lineIdx] = make(map[int]bool)
	}
	o.lines[lineIdx][position] = true
	if point := endpointAt(state, lineIdx, position); point != -1 && point != o.town {
		o.points[point] = true
	}
}

// conflicts reports whether the proposed move lands on an occupied position.
// Landing on the town point never conflicts.
func (o *occupancyMap) conflicts(state *engine.State, m move) bool {
	point := endpointAt(state, m.lineIdx, m.position)
	if point == o.town {
		return false
	}
	if point != -1 && o.points[point] {
		return true
	}
	return o.lines[m.lineIdx][m.position]
}

// endpointAt maps a (line, position) pair to the point it stands on, or -1
// mid-line.
func endpointAt(state *engine.State, lineIdx, position int) int {
	line, ok := state.Map.Lines[lineIdx]
	if !ok {
		return -1
	}
	switch position {
	case 0:
		return line.Points[0]
	case line.Length:
		return line.Points[1]
	default:
		return -1
	}
}

// resolveCollision rewrites a conflicting proposal. A mid-line train holds
// its position for the tick; a train at an endpoint re-plans around the
// conflicting line until a free route is found or the alternatives run out.
func (b *Bot) resolveCollision(train *engine.Train, proposal move, occupied *occupancyMap) move {
	if !occupied.conflicts(b.state, proposal) {
		return proposal
	}

	if !proposal.atEndpoint {
		return move{lineIdx: train.LineIdx, position: train.Position, speed: engine.SpeedStop}
	}

	line, ok := b.state.Map.Lines[train.LineIdx]
	if !ok {
		return move{lineIdx: train.LineIdx, position: train.Position, speed: engine.SpeedStop}
	}
	point := b.state.TrainPoint(train)
	exclude := make(map[int]bool)
	for range b.graph.Full()[point] {
		exclude[proposal.lineIdx] = true
		reservation := b.planner.Plan(train, exclude)
		if reservation == nil {
			break
		}
		proposal = b.moveAlongRoute(train, line, reservation)
		if proposal.speed == engine.SpeedStop || !occupied.conflicts(b.state, proposal) {
			b.state.SetReservation(train.Idx, reservation)
			return proposal
		}
	}
	return move{lineIdx: train.LineIdx, position: train.Position, speed: engine.SpeedStop, atEndpoint: true}
}
