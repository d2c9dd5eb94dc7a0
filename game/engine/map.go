package engine

import (
	"encoding/json"
	"fmt"
)

// Map is the static layer of a game: the graph of points and lines. It is
// built once per game from MAP layer 0 and never changes afterwards.
type Map struct {
	Idx    int
	Name   string
	Points map[int]*Point
	Lines  map[int]*Line
}

// ParseMap decodes a MAP layer 0 body and validates it: every line must
// connect two known points and have a positive length, and ids must be
// unique.
func ParseMap(data []byte) (*Map, error) {
	var raw struct {
		Idx    int     `json:"idx"`
		Name   string  `json:"name"`
		Points []Point `json:"points"`
		Lines  []Line  `json:"lines"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode static map: %w", err)
	}

	m := &Map{
		Idx:    raw.Idx,
		Name:   raw.Name,
		Points: make(map[int]*Point, len(raw.Points)),
		Lines:  make(map[int]*Line, len(raw.Lines)),
	}
	for i := range raw.Points {
		point := raw.Points[i]
		if _, ok := m.Points[point.Idx]; ok {
			return nil, fmt.Errorf("duplicate point idx %d", point.Idx)
		}
		m.Points[point.Idx] = &point
	}
	for i := range raw.Lines {
		line := raw.Lines[i]
		if _, ok := m.Lines[line.Idx]; ok {
			return nil, fmt.Errorf("duplicate line idx %d", line.Idx)
		}
		if line.Length < 1 {
			return nil, fmt.Errorf("line %d has length %d", line.Idx, line.Length)
		}
		for _, pointIdx := range line.Points {
			if _, ok := m.Points[pointIdx]; !ok {
				return nil, fmt.Errorf("line %d references unknown point %d", line.Idx, pointIdx)
			}
		}
		m.Lines[line.Idx] = &line
	}
	return m, nil
}

// ParseCoordinates decodes a MAP layer 10 body.
func ParseCoordinates(data []byte) ([]Coordinate, error) {
	var raw struct {
		Idx         int          `json:"idx"`
		Coordinates []Coordinate `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode coordinates: %w", err)
	}
	return raw.Coordinates, nil
}
