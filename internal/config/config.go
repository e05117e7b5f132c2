package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	WeightsPath   string  // Default weights spec; CLI --weights overrides
	Source        string  // Camera index, file path or URL
	Confidence    float64 // Minimum detection confidence
	NMSThreshold  float64 // IoU threshold for non-maximum suppression
	InputSize     int     // Square network input size
	Device        string  // "" (auto), "cpu" or "cuda"/"cuda:0"
	Interval      int     // Co którą klatkę przetwarzać (1=każdą, 3=co trzecią)
	NamesPath     string  // Optional label list overriding built-in classes
	RunsDirectory string  // Root for saved annotated frames
	BufferLimit   int
	FlushInterval int
	DatabasePath  string // When set, detections are logged to SQLite
	ServeAddress  string // When set, annotated frames stream to /ws viewers
	LogDirectory  string
}

func Load() *Config {
	// Missing .env is fine, environment may be set directly
	_ = godotenv.Load()

	return &Config{
		WeightsPath:   getEnv("WEIGHTS_PATH", filepath.Join(".", "models", "best.onnx")),
		Source:        getEnv("SOURCE", "0"),
		Confidence:    getEnvAsFloat("CONFIDENCE", 0.25),
		NMSThreshold:  getEnvAsFloat("NMS_THRESHOLD", 0.45),
		InputSize:     getEnvAsInt("INPUT_SIZE", 640),
		Device:        getEnv("DEVICE", ""),
		Interval:      getEnvAsInt("PROCESSING_INTERVAL", 1),
		NamesPath:     getEnv("NAMES_PATH", ""),
		RunsDirectory: getEnv("RUNS_DIR", filepath.Join(".", "runs", "detect")),
		BufferLimit:   getEnvAsInt("BUFFER_LIMIT", 64),
		FlushInterval: getEnvAsInt("FLUSH_INTERVAL", 10),
		DatabasePath:  getEnv("DB_PATH", ""),
		ServeAddress:  getEnv("SERVE_ADDR", ""),
		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
