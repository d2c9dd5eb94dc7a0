package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write map: %v", err)
	}
	return path
}

func TestValidateMapValid(t *testing.T) {
	path := writeMap(t, `{
		"idx": 1, "name": "map01",
		"points": [{"idx": 1, "post_idx": 1}, {"idx": 2, "post_idx": 0}],
		"lines": [{"idx": 10, "length": 4, "points": [1, 2]}]
	}`)

	result := validateMap(path)
	if !result.Valid {
		t.Errorf("expected valid map, got %v", result.Notes)
	}
}

func TestValidateMapBadJSON(t *testing.T) {
	path := writeMap(t, `{"points": [`)
	if result := validateMap(path); result.Valid {
		t.Error("expected invalid result for malformed JSON")
	}
}

func TestValidateMapUnknownEndpoint(t *testing.T) {
	path := writeMap(t, `{
		"idx": 1, "name": "bad",
		"points": [{"idx": 1, "post_idx": 0}],
		"lines": [{"idx": 10, "length": 4, "points": [1, 9]}]
	}`)
	if result := validateMap(path); result.Valid {
		t.Error("expected invalid result for unknown endpoint")
	}
}

func TestValidateMapDisconnected(t *testing.T) {
	path := writeMap(t, `{
		"idx": 1, "name": "split",
		"points": [
			{"idx": 1, "post_idx": 0}, {"idx": 2, "post_idx": 0},
			{"idx": 3, "post_idx": 0}
		],
		"lines": [{"idx": 10, "length": 1, "points": [1, 2]}]
	}`)

	result := validateMap(path)
	if result.Valid {
		t.Error("expected invalid result for disconnected map")
	}
}

func TestValidateMapMissingFile(t *testing.T) {
	if result := validateMap(filepath.Join(t.TempDir(), "nope.json")); result.Valid {
		t.Error("expected invalid result for missing file")
	}
}
