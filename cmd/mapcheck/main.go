// Command mapcheck validates rail map JSON files (the MAP layer 0 shape)
// without talking to a server. It checks:
//   - JSON structure and a non-empty point list (other fields may be absent)
//   - Unique point and line ids
//   - Every line connecting two known points with length >= 1
//   - Connectivity: every point reachable from every other point
//
// It prints a concise report per file and exits with non-zero status if any
// file is invalid.
package main

import (
	"fmt"
	"os"

	"github.com/MorozVladislav/Engine/game/engine"
	"github.com/MorozVladislav/Engine/game/graph"
)

// ValidationResult captures the outcome of validating a single file. If
// Valid is true, Notes contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File  string
	Valid bool
	Notes []string
}

// validateMap loads and validates a single map JSON file.
func validateMap(path string) ValidationResult {
	result := ValidationResult{File: path, Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	m, err := engine.ParseMap(data)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, fmt.Sprintf("Invalid map: %v", err))
		return result
	}

	if len(m.Points) == 0 {
		result.Valid = false
		result.Notes = append(result.Notes, "Map has no points")
		return result
	}

	unreachable := unreachablePoints(m)
	if len(unreachable) > 0 {
		result.Valid = false
		result.Notes = append(result.Notes, fmt.Sprintf("Connectivity failure: %d/%d points unreachable", len(unreachable), len(m.Points)))
		for _, point := range unreachable {
			result.Notes = append(result.Notes, fmt.Sprintf("Unreachable: point %d", point))
		}
		return result
	}

	posts := 0
	for _, point := range m.Points {
		if point.PostIdx != 0 {
			posts++
		}
	}
	result.Notes = append(result.Notes,
		fmt.Sprintf("Name: %s", m.Name),
		fmt.Sprintf("Points: %d (%d with posts)", len(m.Points), posts),
		fmt.Sprintf("Lines: %d", len(m.Lines)),
	)
	return result
}

// unreachablePoints runs a shortest-path pass from an arbitrary point and
// reports every point the search did not reach.
func unreachablePoints(m *engine.Map) []int {
	g := graph.New(m)

	source := -1
	for idx := range m.Points {
		if source == -1 || idx < source {
			source = idx
		}
	}

	dist, _ := g.ShortestPaths(g.Full(), source)
	var unreachable []int
	for idx := range m.Points {
		if _, ok := dist[idx]; !ok {
			unreachable = append(unreachable, idx)
		}
	}
	return unreachable
}

// main validates every file named on the command line and prints a report.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <map.json> [map.json ...]\n", os.Args[0])
		os.Exit(1)
	}

	allValid := true
	for _, path := range os.Args[1:] {
		result := validateMap(path)

		fmt.Printf("\n==================== %s\n", result.File)
		if result.Valid {
			fmt.Println("VALID")
		} else {
			fmt.Println("INVALID")
			allValid = false
		}
		for _, note := range result.Notes {
			fmt.Println("  " + note)
		}
	}

	if !allValid {
		os.Exit(1)
	}
}
