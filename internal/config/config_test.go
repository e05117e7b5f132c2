package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Source != "0" {
		t.Errorf("Expected default source \"0\", got %q", cfg.Source)
	}
	if cfg.Confidence != 0.25 {
		t.Errorf("Expected default confidence 0.25, got %v", cfg.Confidence)
	}
	if cfg.InputSize != 640 {
		t.Errorf("Expected default input size 640, got %d", cfg.InputSize)
	}
	if cfg.Interval != 1 {
		t.Errorf("Expected default interval 1, got %d", cfg.Interval)
	}
	if cfg.DatabasePath != "" {
		t.Errorf("Expected detection log off by default, got %q", cfg.DatabasePath)
	}
	if cfg.ServeAddress != "" {
		t.Errorf("Expected viewer endpoint off by default, got %q", cfg.ServeAddress)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("WEIGHTS_PATH", "custom.onnx")
	t.Setenv("CONFIDENCE", "0.6")
	t.Setenv("INPUT_SIZE", "320")
	t.Setenv("PROCESSING_INTERVAL", "3")
	t.Setenv("SERVE_ADDR", ":9000")

	cfg := Load()

	if cfg.WeightsPath != "custom.onnx" {
		t.Errorf("Expected weights custom.onnx, got %q", cfg.WeightsPath)
	}
	if cfg.Confidence != 0.6 {
		t.Errorf("Expected confidence 0.6, got %v", cfg.Confidence)
	}
	if cfg.InputSize != 320 {
		t.Errorf("Expected input size 320, got %d", cfg.InputSize)
	}
	if cfg.Interval != 3 {
		t.Errorf("Expected interval 3, got %d", cfg.Interval)
	}
	if cfg.ServeAddress != ":9000" {
		t.Errorf("Expected serve address :9000, got %q", cfg.ServeAddress)
	}
}

func TestGetEnvHelpers_InvalidValues(t *testing.T) {
	t.Setenv("INPUT_SIZE", "not-a-number")
	t.Setenv("CONFIDENCE", "also-not")

	cfg := Load()

	if cfg.InputSize != 640 {
		t.Errorf("Invalid INPUT_SIZE should fall back to 640, got %d", cfg.InputSize)
	}
	if cfg.Confidence != 0.25 {
		t.Errorf("Invalid CONFIDENCE should fall back to 0.25, got %v", cfg.Confidence)
	}
}
