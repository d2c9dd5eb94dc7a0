// Package bot implements the autonomous tick loop: it plans and dispatches
// train moves, resolves collisions, spends armor on upgrades, advances the
// game with TURN and folds each new snapshot back into the state. Events for
// the visualizer are pushed onto the bridge queue, never pulled.
package bot

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/MorozVladislav/Engine/bridge"
	"github.com/MorozVladislav/Engine/game/engine"
	"github.com/MorozVladislav/Engine/game/graph"
	"github.com/MorozVladislav/Engine/game/planner"
)

// GameClient is the slice of the client API the tick loop needs. *client.Client
// satisfies it; tests substitute a scripted fake.
type GameClient interface {
	MoveTrain(lineIdx, speed, trainIdx int) error
	Upgrade(posts, trains []int) error
	Turn() error
	MapDynamic() (json.RawMessage, error)
	Logout() error
}

// Status is a point-in-time summary of the run for the HTTP surface.
type Status struct {
	RunID     string `json:"run_id"`
	PlayerIdx string `json:"player_idx"`
	Tick      int    `json:"tick"`
	Rating    int    `json:"rating"`
	Message   string `json:"message"`
}

// Bot owns the tick loop. It is driven by Run and stopped by Stop; the
// state, graph and planner are owned exclusively by the loop.
type Bot struct {
	client  GameClient
	state   *engine.State
	graph   *graph.Graph
	planner *planner.Planner
	events  *bridge.Queue
	runID   string

	stopped atomic.Bool

	mu     sync.Mutex
	status Status
}

// New creates a bot over an initialized state (static map parsed, first
// dynamic snapshot applied, post points set on the graph).
func New(client GameClient, state *engine.State, g *graph.Graph, events *bridge.Queue) *Bot {
	b := &Bot{
		client:  client,
		state:   state,
		graph:   g,
		planner: planner.New(state, g),
		events:  events,
		runID:   uuid.NewString(),
	}
	b.setStatus(Status{RunID: b.runID, PlayerIdx: state.PlayerIdx})
	return b
}

// Stop asks the loop to exit at the next tick boundary. In-flight calls
// complete first.
func (b *Bot) Stop() {
	b.stopped.Store(true)
}

// Status returns the latest run summary.
func (b *Bot) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *Bot) setStatus(s Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

// Run executes ticks until Stop, a game-over event or a fatal error. It logs
// out on the way out in every case.
func (b *Bot) Run() error {
	defer func() {
		if err := b.client.Logout(); err != nil {
			log.Printf("logout failed: %v", err)
		}
	}()

	for !b.stopped.Load() {
		if b.state.GameOver() {
			log.Printf("game over at tick %d", b.state.Tick)
			b.events.Push(bridge.GameOver, nil)
			return nil
		}
		if err := b.tick(); err != nil {
			b.events.Push(bridge.StatusText, fmt.Sprintf("Error: %v", err))
			b.events.Push(bridge.GameOver, nil)
			return err
		}
	}
	b.events.Push(bridge.GameOver, nil)
	return nil
}

// tick runs one iteration: dispatch moves for every own train, spend armor
// on upgrades, advance the game and merge the new snapshot.
func (b *Bot) tick() error {
	occupied := b.projectOpponents()
	dispatched := make(map[int]move)
	moved := make(map[int]bool)

	for _, train := range b.state.OwnTrains() {
		if train.Cooldown > 0 {
			continue
		}
		proposal := b.propose(train)
		proposal = b.resolveCollision(train, proposal, occupied)

		if err := b.client.MoveTrain(proposal.lineIdx, proposal.speed, train.Idx); err != nil {
			return fmt.Errorf("move train %d: %w", train.Idx, err)
		}
		occupied.record(b.state, proposal.lineIdx, proposal.position)
		dispatched[train.Idx] = proposal
		if proposal.speed != engine.SpeedStop {
			moved[train.Idx] = true
		}
	}

	posts, trains := b.selectUpgrades(dispatched)
	if len(posts) > 0 || len(trains) > 0 {
		if err := b.client.Upgrade(posts, trains); err != nil {
			return fmt.Errorf("upgrade: %w", err)
		}
	}

	if err := b.client.Turn(); err != nil {
		return fmt.Errorf("turn: %w", err)
	}
	snapshot, err := b.client.MapDynamic()
	if err != nil {
		return fmt.Errorf("fetch dynamic map: %w", err)
	}
	if err := b.state.ApplyDynamic(snapshot); err != nil {
		return err
	}
	b.state.TickReservations(moved)

	b.events.Push(bridge.MapDynamic, snapshot)
	rating := b.state.Ratings[b.state.PlayerIdx].Rating
	b.events.Push(bridge.StatusText, fmt.Sprintf("tick %d rating %d", b.state.Tick, rating))
	b.setStatus(Status{
		RunID:     b.runID,
		PlayerIdx: b.state.PlayerIdx,
		Tick:      b.state.Tick,
		Rating:    rating,
		Message:   "running",
	})
	return nil
}

// move is a proposed MOVE for one train together with the position it
// projects the train to after the tick.
type move struct {
	lineIdx    int
	position   int
	speed      int
	atEndpoint bool
}

// propose derives the next move for a train. Mid-line moving trains simply
// continue; a train at a decision point (endpoint or stopped) consults its
// reservation, replanning it when stale.
func (b *Bot) propose(train *engine.Train) move {
	line, ok := b.state.Map.Lines[train.LineIdx]
	if !ok {
		return move{lineIdx: train.LineIdx, position: train.Position, speed: engine.SpeedStop}
	}
	atDecision := train.Position == 0 || train.Position == line.Length || train.Speed == engine.SpeedStop
	if !atDecision {
		return move{lineIdx: line.Idx, position: train.Position + train.Speed, speed: train.Speed}
	}

	point := b.state.TrainPoint(train)
	townPoint := b.state.TownPoint()
	reservation := b.state.Reservation(train.Idx)

	if reservation != nil && point == townPoint && reservation.Target() == townPoint {
		// Trip complete: goods unloaded at town, the reservation is spent.
		b.state.ClearReservation(train.Idx)
		reservation = nil
	}

	stale := reservation == nil ||
		len(reservation.Route) == 0 ||
		(reservation.Target() != townPoint && train.Goods == 0) ||
		(point != -1 && point == reservation.Target() && point != townPoint)
	if stale {
		reservation = b.planner.Plan(train, nil)
		if reservation == nil {
			b.state.ClearReservation(train.Idx)
		} else {
			b.state.SetReservation(train.Idx, reservation)
		}
	}

	return b.moveAlongRoute(train, line, reservation)
}

// moveAlongRoute turns the head of the reservation route into a concrete
// (line, position, speed). A missing or exhausted route leaves the train
// stopped in place.
func (b *Bot) moveAlongRoute(train *engine.Train, line *engine.Line, reservation *engine.Reservation) move {
	point := b.state.TrainPoint(train)
	stay := move{lineIdx: line.Idx, position: train.Position, speed: engine.SpeedStop, atEndpoint: point != -1}

	if reservation == nil || len(reservation.Route) < 2 {
		return stay
	}
	route := reservation.Route

	if point == -1 {
		// Stopped mid-line: the normalized route spans the current line,
		// route[1] is the endpoint to head for.
		target := route[1]
		speed := engine.SpeedReverse
		if target == line.Points[1] {
			speed = engine.SpeedForward
		}
		return move{lineIdx: line.Idx, position: train.Position + speed, speed: speed}
	}

	// At an endpoint: step to the successor of our point on the route.
	at := -1
	for i, routePoint := range route {
		if routePoint == point {
			at = i
			break
		}
	}
	if at == -1 || at+1 >= len(route) {
		return stay
	}
	next := route[at+1]
	lineIdx := graph.LineBetween(b.graph.Full(), point, next)
	if lineIdx == -1 {
		return stay
	}
	nextLine := b.state.Map.Lines[lineIdx]
	if point == nextLine.Points[0] {
		return move{lineIdx: lineIdx, position: 1, speed: engine.SpeedForward, atEndpoint: true}
	}
	return move{lineIdx: lineIdx, position: nextLine.Length - 1, speed: engine.SpeedReverse, atEndpoint: true}
}
