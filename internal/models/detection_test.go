package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTopLabel(t *testing.T) {
	tests := []struct {
		name       string
		detections []Detection
		expected   string
	}{
		{"empty", nil, "none"},
		{"single", []Detection{{Label: "fire", Confidence: 0.8}}, "fire"},
		{"picks most confident", []Detection{
			{Label: "smoke", Confidence: 0.55},
			{Label: "fire", Confidence: 0.91},
			{Label: "person", Confidence: 0.73},
		}, "fire"},
	}

	for _, tt := range tests {
		if got := TopLabel(tt.detections); got != tt.expected {
			t.Errorf("%s: TopLabel() = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func TestSummaryLines_Empty(t *testing.T) {
	lines := SummaryLines(nil)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "No detections") {
		t.Errorf("Expected no-detections line, got %q", lines[0])
	}
}

func TestSummaryLines_Format(t *testing.T) {
	lines := SummaryLines([]Detection{
		{Label: "fire", Confidence: 0.903},
		{Label: "smoke", Confidence: 0.5},
	})

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "  #1: fire @ 0.90" {
		t.Errorf("Unexpected first line: %q", lines[0])
	}
	if lines[1] != "  #2: smoke @ 0.50" {
		t.Errorf("Unexpected second line: %q", lines[1])
	}
}

func TestDetection_JSON(t *testing.T) {
	detection := Detection{Label: "person", Confidence: 0.75, X: 10, Y: 20, Width: 30, Height: 40}

	data, err := json.Marshal(detection)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	jsonStr := string(data)
	for _, key := range []string{`"label":"person"`, `"confidence":0.75`, `"x":10`, `"width":30`} {
		if !strings.Contains(jsonStr, key) {
			t.Errorf("Expected %s in JSON, got: %s", key, jsonStr)
		}
	}
}
