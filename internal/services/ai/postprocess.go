package ai

import "image"

// decodeOutput interprets a detection head laid out as rows x cols,
// row-major: rows 0..3 hold cx, cy, w, h in network input coordinates and
// the remaining rows hold per-class scores; each column is one candidate.
// Boxes are scaled back to source-frame pixels. The returned slices are
// index-aligned for NMS.
func decodeOutput(data []float32, rows, cols int, confThresh, scaleX, scaleY float32) ([]image.Rectangle, []float32, []int) {
	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int

	for c := 0; c < cols; c++ {
		bestClass := -1
		var bestScore float32
		for r := 4; r < rows; r++ {
			if score := data[r*cols+c]; score > bestScore {
				bestScore = score
				bestClass = r - 4
			}
		}
		if bestClass < 0 || bestScore < confThresh {
			continue
		}

		cx := data[0*cols+c]
		cy := data[1*cols+c]
		w := data[2*cols+c]
		h := data[3*cols+c]

		x0 := int((cx - w/2) * scaleX)
		y0 := int((cy - h/2) * scaleY)
		x1 := int((cx + w/2) * scaleX)
		y1 := int((cy + h/2) * scaleY)

		boxes = append(boxes, image.Rect(x0, y0, x1, y1))
		scores = append(scores, bestScore)
		classIDs = append(classIDs, bestClass)
	}

	return boxes, scores, classIDs
}
