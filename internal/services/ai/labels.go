package ai

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"strings"
)

// DefaultNames returns the classes of the bundled fire/smoke/human model.
func DefaultNames() []string {
	return []string{"fire", "smoke", "person"}
}

// LoadNames reads class labels from a file, one per line. Blank lines and
// lines starting with '#' are skipped.
func LoadNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open names file: %w", err)
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read names file: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("names file %s contains no labels", path)
	}
	return names, nil
}

// labelColor picks a box color for a class. Fire draws red, smoke gray,
// anything else green.
func labelColor(label string) color.RGBA {
	switch label {
	case "fire":
		return color.RGBA{R: 255, G: 0, B: 0, A: 0}
	case "smoke":
		return color.RGBA{R: 128, G: 128, B: 128, A: 0}
	default:
		return color.RGBA{R: 0, G: 255, B: 0, A: 0}
	}
}
