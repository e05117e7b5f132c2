package ai

import (
	"fmt"
	"image"
	"os"
	"strings"

	"gocv.io/x/gocv"

	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/logger"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/models"
)

const (
	DefaultConfidence   = 0.25
	DefaultNMSThreshold = 0.45
	DefaultInputSize    = 640
)

// Options configure the detection network.
type Options struct {
	WeightsPath  string
	Names        []string // empty means the built-in fire/smoke/person set
	InputSize    int
	Confidence   float64
	NMSThreshold float64
	Device       string // "" (auto), "cpu" or "cuda"/"cuda:0"
}

// DetectorService runs object detection through OpenCV's DNN module.
type DetectorService struct {
	net        gocv.Net
	names      []string
	inputSize  int
	confThresh float32
	nmsThresh  float32
	logger     *logger.Logger
}

// NewDetectorService loads the network from an ONNX weights file.
func NewDetectorService(opts Options, log *logger.Logger) (*DetectorService, error) {
	if opts.InputSize <= 0 {
		opts.InputSize = DefaultInputSize
	}
	if opts.Confidence <= 0 {
		opts.Confidence = DefaultConfidence
	}
	if opts.NMSThreshold <= 0 {
		opts.NMSThreshold = DefaultNMSThreshold
	}
	if len(opts.Names) == 0 {
		opts.Names = DefaultNames()
	}

	service := &DetectorService{
		names:      opts.Names,
		inputSize:  opts.InputSize,
		confThresh: float32(opts.Confidence),
		nmsThresh:  float32(opts.NMSThreshold),
		logger:     log,
	}

	if err := service.initializeNet(opts.WeightsPath, opts.Device); err != nil {
		return nil, err
	}

	service.logger.Info("Detection network initialized successfully (%d classes, input %dx%d)",
		len(service.names), service.inputSize, service.inputSize)
	return service, nil
}

// initializeNet loads the ONNX model and pins it to the requested device.
func (s *DetectorService) initializeNet(modelPath, device string) error {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", modelPath)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", modelPath)
	}

	backend, target, err := deviceSelection(device)
	if err != nil {
		net.Close()
		return err
	}

	errBackend := net.SetPreferableBackend(backend)
	errTarget := net.SetPreferableTarget(target)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	return nil
}

// deviceSelection maps a --device value onto a DNN backend/target pair.
func deviceSelection(device string) (gocv.NetBackendType, gocv.NetTargetType, error) {
	switch {
	case device == "" || device == "auto":
		return gocv.NetBackendDefault, gocv.NetTargetCPU, nil
	case device == "cpu":
		return gocv.NetBackendOpenCV, gocv.NetTargetCPU, nil
	case strings.HasPrefix(device, "cuda"):
		return gocv.NetBackendCUDA, gocv.NetTargetCUDA, nil
	default:
		return gocv.NetBackendDefault, gocv.NetTargetCPU,
			fmt.Errorf("unknown device %q (expected \"\", \"cpu\" or \"cuda\")", device)
	}
}

// Detect runs the network on a single frame and returns detections above the
// confidence threshold after non-maximum suppression.
func (s *DetectorService) Detect(frame gocv.Mat) ([]models.Detection, error) {
	if s.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}
	if frame.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(s.inputSize, s.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	// YOLO head: [1, 4+nc, n] — cx, cy, w, h followed by per-class scores
	rows := 4 + len(s.names)
	total := output.Total()
	if total == 0 || total%rows != 0 {
		return nil, fmt.Errorf("unexpected network output size %d for %d classes", total, len(s.names))
	}
	cols := total / rows

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	scaleX := float32(frame.Cols()) / float32(s.inputSize)
	scaleY := float32(frame.Rows()) / float32(s.inputSize)

	boxes, scores, classIDs := decodeOutput(data, rows, cols, s.confThresh, scaleX, scaleY)
	indices := gocv.NMSBoxes(boxes, scores, s.confThresh, s.nmsThresh)

	results := make([]models.Detection, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		results = append(results, models.Detection{
			Label:      s.className(classIDs[idx]),
			Confidence: float64(scores[idx]),
			X:          box.Min.X,
			Y:          box.Min.Y,
			Width:      box.Dx(),
			Height:     box.Dy(),
		})
	}
	return results, nil
}

// Annotate draws boxes and labels onto the frame in place.
func (s *DetectorService) Annotate(frame *gocv.Mat, detections []models.Detection) error {
	for _, detection := range detections {
		col := labelColor(detection.Label)
		rect := image.Rect(detection.X, detection.Y,
			detection.X+detection.Width, detection.Y+detection.Height)
		if err := gocv.Rectangle(frame, rect, col, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s (%.2f)", detection.Label, detection.Confidence)
		pt := image.Pt(detection.X, detection.Y-5)
		if err := gocv.PutText(frame, label, pt, gocv.FontHersheySimplex, 0.5, col, 1); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}
	return nil
}

// Names returns the class labels the service resolves IDs against.
func (s *DetectorService) Names() []string {
	return s.names
}

func (s *DetectorService) className(classID int) string {
	if classID >= 0 && classID < len(s.names) {
		return s.names[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// Close releases the network.
func (s *DetectorService) Close() {
	if !s.net.Empty() {
		s.net.Close()
	}
}
