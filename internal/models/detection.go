package models

import "fmt"

// Detection represents a detected object in a frame. Coordinates are pixels
// in the source frame, X/Y being the top-left corner of the bounding box.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

func (d Detection) String() string {
	return fmt.Sprintf("%s (%.2f) [%d,%d %dx%d]", d.Label, d.Confidence, d.X, d.Y, d.Width, d.Height)
}

// TopLabel returns the label of the most confident detection, or "none" when
// there are no detections. Used for saved-frame filenames.
func TopLabel(detections []Detection) string {
	if len(detections) == 0 {
		return "none"
	}
	top := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > top.Confidence {
			top = d
		}
	}
	return top.Label
}

// SummaryLines renders the per-detection lines of the end-of-run report.
func SummaryLines(detections []Detection) []string {
	if len(detections) == 0 {
		return []string{"  No detections in the first frame."}
	}
	lines := make([]string, 0, len(detections))
	for i, d := range detections {
		lines = append(lines, fmt.Sprintf("  #%d: %s @ %.2f", i+1, d.Label, d.Confidence))
	}
	return lines
}
