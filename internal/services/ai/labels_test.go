package ai

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultNames(t *testing.T) {
	expected := []string{"fire", "smoke", "person"}
	if got := DefaultNames(); !reflect.DeepEqual(got, expected) {
		t.Errorf("DefaultNames() = %v, expected %v", got, expected)
	}
}

func TestLoadNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	content := "# COCO subset\nfire\n\n  smoke  \nperson\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write names file: %v", err)
	}

	names, err := LoadNames(path)
	if err != nil {
		t.Fatalf("LoadNames failed: %v", err)
	}

	expected := []string{"fire", "smoke", "person"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("LoadNames() = %v, expected %v", names, expected)
	}
}

func TestLoadNames_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	if err := os.WriteFile(path, []byte("# only a comment\n\n"), 0644); err != nil {
		t.Fatalf("Failed to write names file: %v", err)
	}

	if _, err := LoadNames(path); err == nil {
		t.Error("Expected error for names file with no labels")
	}
}

func TestLoadNames_MissingFile(t *testing.T) {
	if _, err := LoadNames(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing names file")
	}
}
