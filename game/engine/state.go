package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// State is the in-memory game model: the static map plus the latest dynamic
// snapshot, merged in place so that train and post pointers stay stable
// across ticks. It also owns the planner's reservations. State is mutated
// only by the bot's tick loop and is not safe for concurrent use.
type State struct {
	Map       *Map
	PlayerIdx string

	Towns    map[int]*Town
	Markets  map[int]*Market
	Storages map[int]*Storage
	Trains   map[int]*Train
	Ratings  map[string]Rating

	// Town is the player's own town, set once it appears in a snapshot.
	Town *Town

	// Tick counts applied dynamic snapshots.
	Tick int

	reservations map[int]*Reservation
}

// NewState creates a state around a parsed static map for the given player.
func NewState(m *Map, playerIdx string) *State {
	return &State{
		Map:          m,
		PlayerIdx:    playerIdx,
		Towns:        make(map[int]*Town),
		Markets:      make(map[int]*Market),
		Storages:     make(map[int]*Storage),
		Trains:       make(map[int]*Train),
		Ratings:      make(map[string]Rating),
		reservations: make(map[int]*Reservation),
	}
}

// ApplyDynamic merges a MAP layer 1 body into the state. Existing train and
// post records are updated in place; ratings are replaced.
func (s *State) ApplyDynamic(data []byte) error {
	var raw struct {
		Idx     int               `json:"idx"`
		Ratings map[string]Rating `json:"ratings"`
		Posts   []json.RawMessage `json:"posts"`
		Trains  []Train           `json:"trains"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode dynamic map: %w", err)
	}

	for _, postData := range raw.Posts {
		if err := s.applyPost(postData); err != nil {
			return err
		}
	}

	for i := range raw.Trains {
		update := raw.Trains[i]
		if existing, ok := s.Trains[update.Idx]; ok {
			*existing = update
		} else {
			train := update
			s.Trains[train.Idx] = &train
		}
	}

	s.Ratings = raw.Ratings
	if s.Ratings == nil {
		s.Ratings = make(map[string]Rating)
	}
	s.Tick++
	return nil
}

func (s *State) applyPost(data []byte) error {
	var header Post
	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("decode post header: %w", err)
	}
	if _, ok := s.Map.Points[header.PointIdx]; !ok {
		return fmt.Errorf("post %d references unknown point %d", header.Idx, header.PointIdx)
	}

	switch header.Type {
	case PostTown:
		var town Town
		if err := json.Unmarshal(data, &town); err != nil {
			return fmt.Errorf("decode town %d: %w", header.Idx, err)
		}
		if existing, ok := s.Towns[town.Idx]; ok {
			*existing = town
		} else {
			s.Towns[town.Idx] = &town
		}
		if town.PlayerIdx == s.PlayerIdx {
			s.Town = s.Towns[town.Idx]
		}
	case PostMarket:
		var market Market
		if err := json.Unmarshal(data, &market); err != nil {
			return fmt.Errorf("decode market %d: %w", header.Idx, err)
		}
		if existing, ok := s.Markets[market.Idx]; ok {
			*existing = market
		} else {
			s.Markets[market.Idx] = &market
		}
	case PostStorage:
		var storage Storage
		if err := json.Unmarshal(data, &storage); err != nil {
			return fmt.Errorf("decode storage %d: %w", header.Idx, err)
		}
		if existing, ok := s.Storages[storage.Idx]; ok {
			*existing = storage
		} else {
			s.Storages[storage.Idx] = &storage
		}
	default:
		return fmt.Errorf("post %d has unknown type %d", header.Idx, header.Type)
	}
	return nil
}

// OwnTrains returns the player's trains sorted by idx.
func (s *State) OwnTrains() []*Train {
	var trains []*Train
	for _, train := range s.Trains {
		if train.PlayerIdx == s.PlayerIdx {
			trains = append(trains, train)
		}
	}
	sort.Slice(trains, func(i, j int) bool { return trains[i].Idx < trains[j].Idx })
	return trains
}

// TownPoint returns the point idx of the player's town, or -1 before the
// first snapshot.
func (s *State) TownPoint() int {
	if s.Town == nil {
		return -1
	}
	return s.Town.PointIdx
}

// MarketPoints returns the point ids hosting markets.
func (s *State) MarketPoints() []int {
	points := make([]int, 0, len(s.Markets))
	for _, market := range s.Markets {
		points = append(points, market.PointIdx)
	}
	sort.Ints(points)
	return points
}

// StoragePoints returns the point ids hosting storages.
func (s *State) StoragePoints() []int {
	points := make([]int, 0, len(s.Storages))
	for _, storage := range s.Storages {
		points = append(points, storage.PointIdx)
	}
	sort.Ints(points)
	return points
}

// MarketAt returns the market at the given point, or nil.
func (s *State) MarketAt(pointIdx int) *Market {
	for _, market := range s.Markets {
		if market.PointIdx == pointIdx {
			return market
		}
	}
	return nil
}

// StorageAt returns the storage at the given point, or nil.
func (s *State) StorageAt(pointIdx int) *Storage {
	for _, storage := range s.Storages {
		if storage.PointIdx == pointIdx {
			return storage
		}
	}
	return nil
}

// TrainPoint returns the point the train stands on when it is at a line
// endpoint, or -1 mid-line. Position 0 is Points[0] of the line; position
// line.Length is Points[1].
func (s *State) TrainPoint(t *Train) int {
	line, ok := s.Map.Lines[t.LineIdx]
	if !ok {
		return -1
	}
	switch t.Position {
	case 0:
		return line.Points[0]
	case line.Length:
		return line.Points[1]
	default:
		return -1
	}
}

// GameOver reports whether the own town carries a game-over event.
func (s *State) GameOver() bool {
	if s.Town == nil {
		return false
	}
	for _, event := range s.Town.Events {
		if event.Type == EventGameOver {
			return true
		}
	}
	return false
}

// Reservation returns the reservation for a train, or nil.
func (s *State) Reservation(trainIdx int) *Reservation {
	return s.reservations[trainIdx]
}

// SetReservation installs a reservation for a train.
func (s *State) SetReservation(trainIdx int, r *Reservation) {
	s.reservations[trainIdx] = r
}

// ClearReservation removes the reservation for a train.
func (s *State) ClearReservation(trainIdx int) {
	delete(s.reservations, trainIdx)
}

// Reservations returns the live reservation map keyed by train idx. The
// planner reads it to discount goods already spoken for.
func (s *State) Reservations() map[int]*Reservation {
	return s.reservations
}

// TickReservations decrements TripRemaining for every reservation whose
// train moved this tick.
func (s *State) TickReservations(moved map[int]bool) {
	for trainIdx, reservation := range s.reservations {
		if moved[trainIdx] && reservation.TripRemaining > 0 {
			reservation.TripRemaining--
		}
	}
}
