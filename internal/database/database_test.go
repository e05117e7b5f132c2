package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "detectlog_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(tempDir)
	})
	return db
}

func insertTestRun(t *testing.T, db *Database) int64 {
	t.Helper()

	runID, err := db.InsertRun(&Run{
		Weights:   "best.onnx",
		Source:    "0",
		StartedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	return runID
}

// ========================================
// Run Tests
// ========================================

func TestInsertRun(t *testing.T) {
	db := setupTestDB(t)

	runID := insertTestRun(t, db)
	if runID <= 0 {
		t.Errorf("Expected positive run id, got %d", runID)
	}

	runs, err := db.GetRuns(0)
	if err != nil {
		t.Fatalf("GetRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	if runs[0].Weights != "best.onnx" || runs[0].Source != "0" {
		t.Errorf("Unexpected run record: %+v", runs[0])
	}
}

// ========================================
// Detection Tests
// ========================================

func TestInsertAndGetDetections(t *testing.T) {
	db := setupTestDB(t)
	runID := insertTestRun(t, db)

	now := time.Now()
	detections := []Detection{
		{RunID: runID, Frame: 1, Label: "fire", Confidence: 0.91, X: 5, Y: 6, Width: 50, Height: 40, Timestamp: now},
		{RunID: runID, Frame: 1, Label: "smoke", Confidence: 0.55, X: 0, Y: 0, Width: 80, Height: 90, Timestamp: now},
		{RunID: runID, Frame: 4, Label: "person", Confidence: 0.73, X: 9, Y: 9, Width: 20, Height: 60, Timestamp: now},
	}
	if err := db.InsertDetections(detections); err != nil {
		t.Fatalf("InsertDetections failed: %v", err)
	}

	got, err := db.GetDetections(&DetectionFilter{RunID: runID})
	if err != nil {
		t.Fatalf("GetDetections failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 detections, got %d", len(got))
	}
}

func TestGetDetections_Filters(t *testing.T) {
	db := setupTestDB(t)
	runID := insertTestRun(t, db)
	otherRun := insertTestRun(t, db)

	now := time.Now()
	err := db.InsertDetections([]Detection{
		{RunID: runID, Frame: 1, Label: "fire", Confidence: 0.9, Timestamp: now},
		{RunID: runID, Frame: 2, Label: "smoke", Confidence: 0.4, Timestamp: now},
		{RunID: otherRun, Frame: 1, Label: "fire", Confidence: 0.8, Timestamp: now},
	})
	if err != nil {
		t.Fatalf("InsertDetections failed: %v", err)
	}

	byLabel, err := db.GetDetections(&DetectionFilter{RunID: runID, Label: "fire"})
	if err != nil {
		t.Fatalf("GetDetections failed: %v", err)
	}
	if len(byLabel) != 1 || byLabel[0].Label != "fire" {
		t.Errorf("Label filter failed, got %+v", byLabel)
	}

	byConfidence, err := db.GetDetections(&DetectionFilter{RunID: runID, MinConfidence: 0.5})
	if err != nil {
		t.Fatalf("GetDetections failed: %v", err)
	}
	if len(byConfidence) != 1 || byConfidence[0].Confidence < 0.5 {
		t.Errorf("Confidence filter failed, got %+v", byConfidence)
	}

	limited, err := db.GetDetections(&DetectionFilter{Limit: 2})
	if err != nil {
		t.Fatalf("GetDetections failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Limit filter failed, got %d rows", len(limited))
	}
}

func TestInsertDetections_Empty(t *testing.T) {
	db := setupTestDB(t)

	if err := db.InsertDetections(nil); err != nil {
		t.Errorf("Inserting no detections should be a no-op, got: %v", err)
	}
}

func TestGetLabels(t *testing.T) {
	db := setupTestDB(t)
	runID := insertTestRun(t, db)

	now := time.Now()
	err := db.InsertDetections([]Detection{
		{RunID: runID, Frame: 1, Label: "smoke", Confidence: 0.5, Timestamp: now},
		{RunID: runID, Frame: 2, Label: "fire", Confidence: 0.9, Timestamp: now},
		{RunID: runID, Frame: 3, Label: "fire", Confidence: 0.8, Timestamp: now},
	})
	if err != nil {
		t.Fatalf("InsertDetections failed: %v", err)
	}

	labels, err := db.GetLabels()
	if err != nil {
		t.Fatalf("GetLabels failed: %v", err)
	}

	expected := []string{"fire", "smoke"}
	if !reflect.DeepEqual(labels, expected) {
		t.Errorf("GetLabels() = %v, expected %v", labels, expected)
	}
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	runID := insertTestRun(t, db)

	now := time.Now()
	err := db.InsertDetections([]Detection{
		{RunID: runID, Frame: 1, Label: "fire", Confidence: 0.9, Timestamp: now},
		{RunID: runID, Frame: 2, Label: "fire", Confidence: 0.7, Timestamp: now},
		{RunID: runID, Frame: 3, Label: "person", Confidence: 0.6, Timestamp: now},
	})
	if err != nil {
		t.Fatalf("InsertDetections failed: %v", err)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats["total_runs"] != 1 {
		t.Errorf("Expected 1 run, got %v", stats["total_runs"])
	}
	if stats["total_detections"] != 3 {
		t.Errorf("Expected 3 detections, got %v", stats["total_detections"])
	}

	labelCounts, ok := stats["label_counts"].(map[string]int)
	if !ok {
		t.Fatalf("Expected label_counts map, got %T", stats["label_counts"])
	}
	if labelCounts["fire"] != 2 || labelCounts["person"] != 1 {
		t.Errorf("Unexpected label counts: %v", labelCounts)
	}
}
