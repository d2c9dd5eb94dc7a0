package bot

import (
	"encoding/json"
	"testing"

	"github.com/MorozVladislav/Engine/bridge"
	"github.com/MorozVladislav/Engine/game/engine"
	"github.com/MorozVladislav/Engine/game/graph"
)

type moveCall struct {
	lineIdx  int
	speed    int
	trainIdx int
}

type upgradeCall struct {
	posts  []int
	trains []int
}

// fakeClient records the calls the tick loop makes and answers MAP(dynamic)
// with a scripted snapshot.
type fakeClient struct {
	moves    []moveCall
	upgrades []upgradeCall
	turns    int
	logouts  int
	snapshot []byte
}

func (f *fakeClient) MoveTrain(lineIdx, speed, trainIdx int) error {
	f.moves = append(f.moves, moveCall{lineIdx, speed, trainIdx})
	return nil
}

func (f *fakeClient) Upgrade(posts, trains []int) error {
	f.upgrades = append(f.upgrades, upgradeCall{posts, trains})
	return nil
}

func (f *fakeClient) Turn() error {
	f.turns++
	return nil
}

func (f *fakeClient) MapDynamic() (json.RawMessage, error) {
	return f.snapshot, nil
}

func (f *fakeClient) Logout() error {
	f.logouts++
	return nil
}

// marketState wires town(1) --5-- market(2) on line 12 plus a town post.
func marketState(t *testing.T) (*engine.State, *graph.Graph) {
	t.Helper()
	m := &engine.Map{
		Points: map[int]*engine.Point{
			1: {Idx: 1, PostIdx: 1},
			2: {Idx: 2, PostIdx: 2},
		},
		Lines: map[int]*engine.Line{
			12: {Idx: 12, Length: 5, Points: [2]int{1, 2}},
		},
	}
	s := engine.NewState(m, "p-1")
	town := &engine.Town{
		Post:       engine.Post{Idx: 1, Name: "town", PointIdx: 1, Type: engine.PostTown},
		PlayerIdx:  "p-1",
		Population: 1,
		Armor:      10,
	}
	s.Towns[1] = town
	s.Town = town
	s.Markets[2] = &engine.Market{
		Post:            engine.Post{Idx: 2, Name: "m1", PointIdx: 2, Type: engine.PostMarket},
		Product:         10,
		ProductCapacity: 20,
		Replenishment:   1,
	}
	g := graph.New(m)
	g.SetPostPoints(s.MarketPoints(), s.StoragePoints())
	return s, g
}

const marketSnapshot = `{
	"idx": 1,
	"ratings": {"p-1": {"idx": "p-1", "name": "player", "rating": 42}},
	"posts": [
		{"idx": 1, "name": "town", "point_idx": 1, "type": 1, "player_idx": "p-1",
		 "population": 1, "armor": 10, "events": []},
		{"idx": 2, "name": "m1", "point_idx": 2, "type": 2,
		 "product": 10, "product_capacity": 20, "replenishment": 1, "events": []}
	],
	"trains": [
		{"idx": 1, "player_idx": "p-1", "line_idx": 12, "position": 1, "speed": 1,
		 "goods": 0, "goods_capacity": 40, "goods_type": 0, "cooldown": 0}
	]
}`

func TestTickDispatchesPlannedMove(t *testing.T) {
	s, g := marketState(t)
	s.Trains[1] = &engine.Train{
		Idx: 1, PlayerIdx: "p-1", LineIdx: 12, Position: 0, GoodsCapacity: 40,
	}
	fake := &fakeClient{snapshot: []byte(marketSnapshot)}
	events := bridge.New(16)
	b := New(fake, s, g, events)

	if err := b.tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if len(fake.moves) != 1 {
		t.Fatalf("expected 1 MOVE, got %d", len(fake.moves))
	}
	if fake.moves[0] != (moveCall{12, engine.SpeedForward, 1}) {
		t.Errorf("unexpected MOVE %+v", fake.moves[0])
	}
	if fake.turns != 1 {
		t.Errorf("expected 1 TURN, got %d", fake.turns)
	}

	r := s.Reservation(1)
	if r == nil {
		t.Fatal("reservation not installed")
	}
	if r.GoodsType != engine.GoodsProduct || r.Target() != 2 {
		t.Errorf("unexpected reservation %+v", r)
	}
	// Trip 10 minus the tick the train just moved.
	if r.TripRemaining != 9 {
		t.Errorf("expected trip 9 after moving tick, got %d", r.TripRemaining)
	}

	if got := b.Status().Rating; got != 42 {
		t.Errorf("expected rating 42, got %d", got)
	}
}

// Scenario: own train B is projected onto (line, 4); own train A mid-line at
// position 3 moving forward proposes the same slot and must hold in place.
func TestCollisionStopsMidLineTrain(t *testing.T) {
	m := &engine.Map{
		Points: map[int]*engine.Point{
			1: {Idx: 1, PostIdx: 1},
			2: {Idx: 2, PostIdx: 0},
		},
		Lines: map[int]*engine.Line{
			20: {Idx: 20, Length: 8, Points: [2]int{1, 2}},
		},
	}
	s := engine.NewState(m, "p-1")
	town := &engine.Town{
		Post:      engine.Post{Idx: 1, Name: "town", PointIdx: 1, Type: engine.PostTown},
		PlayerIdx: "p-1",
	}
	s.Towns[1] = town
	s.Town = town
	s.Trains[1] = &engine.Train{
		Idx: 1, PlayerIdx: "p-1", LineIdx: 20, Position: 5, Speed: engine.SpeedReverse,
		Goods: 1, GoodsCapacity: 40, GoodsType: engine.GoodsProduct,
	}
	s.Trains[2] = &engine.Train{
		Idx: 2, PlayerIdx: "p-1", LineIdx: 20, Position: 3, Speed: engine.SpeedForward,
		Goods: 1, GoodsCapacity: 40, GoodsType: engine.GoodsProduct,
	}
	g := graph.New(m)
	g.SetPostPoints(nil, nil)

	snapshot := `{
		"idx": 1, "ratings": {},
		"posts": [{"idx": 1, "name": "town", "point_idx": 1, "type": 1,
			"player_idx": "p-1", "population": 1, "events": []}],
		"trains": [
			{"idx": 1, "player_idx": "p-1", "line_idx": 20, "position": 4,
			 "speed": -1, "goods": 1, "goods_capacity": 40, "goods_type": 2, "cooldown": 0},
			{"idx": 2, "player_idx": "p-1", "line_idx": 20, "position": 3,
			 "speed": 0, "goods": 1, "goods_capacity": 40, "goods_type": 2, "cooldown": 0}
		]
	}`
	fake := &fakeClient{snapshot: []byte(snapshot)}
	b := New(fake, s, g, bridge.New(16))

	if err := b.tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if len(fake.moves) != 2 {
		t.Fatalf("expected 2 MOVEs, got %d", len(fake.moves))
	}
	if fake.moves[0] != (moveCall{20, engine.SpeedReverse, 1}) {
		t.Errorf("train 1 should continue: %+v", fake.moves[0])
	}
	if fake.moves[1] != (moveCall{20, engine.SpeedStop, 2}) {
		t.Errorf("train 2 should stop in place: %+v", fake.moves[1])
	}
}

func TestUpgradeBudget(t *testing.T) {
	s, g := marketState(t)
	s.Town.Armor = 100
	price1, price2 := 30, 25
	s.Trains[1] = &engine.Train{Idx: 1, PlayerIdx: "p-1", LineIdx: 12, NextLevelPrice: &price1}
	s.Trains[2] = &engine.Train{Idx: 2, PlayerIdx: "p-1", LineIdx: 12, NextLevelPrice: &price2}
	b := New(&fakeClient{}, s, g, bridge.New(16))

	// Both trains are dispatched onto the town point.
	dispatched := map[int]move{
		1: {lineIdx: 12, position: 0},
		2: {lineIdx: 12, position: 0},
	}
	posts, trains := b.selectUpgrades(dispatched)

	// Budget 50: train 1 fits (remaining 20), train 2 at 25 does not.
	if len(trains) != 1 || trains[0] != 1 {
		t.Errorf("expected trains [1], got %v", trains)
	}
	if len(posts) != 0 {
		t.Errorf("expected no post upgrades, got %v", posts)
	}
}

func TestTownUpgradeWhenNoTrainHome(t *testing.T) {
	s, g := marketState(t)
	s.Town.Armor = 100
	townPrice := 40
	s.Town.NextLevelPrice = &townPrice
	b := New(&fakeClient{}, s, g, bridge.New(16))

	posts, trains := b.selectUpgrades(map[int]move{})
	if len(trains) != 0 {
		t.Errorf("expected no train upgrades, got %v", trains)
	}
	if len(posts) != 1 || posts[0] != s.Town.Idx {
		t.Errorf("expected town upgrade, got %v", posts)
	}
}

func TestGameOverStopsRun(t *testing.T) {
	s, g := marketState(t)
	s.Town.Events = []engine.Event{{Type: engine.EventGameOver, Tick: 40}}
	s.Trains[1] = &engine.Train{
		Idx: 1, PlayerIdx: "p-1", LineIdx: 12, Position: 0, GoodsCapacity: 40,
	}
	fake := &fakeClient{snapshot: []byte(marketSnapshot)}
	events := bridge.New(16)
	b := New(fake, s, g, events)

	if err := b.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(fake.moves) != 0 {
		t.Errorf("no MOVE may follow a game-over event, got %v", fake.moves)
	}
	if fake.logouts != 1 {
		t.Errorf("expected 1 LOGOUT, got %d", fake.logouts)
	}

	sawGameOver := false
	for {
		msg, ok := events.Poll()
		if !ok {
			break
		}
		if msg.Tag == bridge.GameOver {
			sawGameOver = true
		}
	}
	if !sawGameOver {
		t.Error("game over event not bridged")
	}
}

func TestStopExitsLoop(t *testing.T) {
	s, g := marketState(t)
	fake := &fakeClient{snapshot: []byte(marketSnapshot)}
	b := New(fake, s, g, bridge.New(16))
	b.Stop()

	if err := b.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fake.turns != 0 {
		t.Errorf("expected no ticks after Stop, got %d", fake.turns)
	}
	if fake.logouts != 1 {
		t.Errorf("expected logout on exit, got %d", fake.logouts)
	}
}
