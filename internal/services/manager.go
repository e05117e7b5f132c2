package services

import (
	"context"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/database"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/logger"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/models"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services/ai"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services/capture"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services/storage"
	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/services/websocket"
)

const windowTitle = "Fire/Smoke/Human Detection"

const (
	keyQuit   = 'q'
	keyEscape = 27
)

// Options tune the inference loop.
type Options struct {
	RunID    int64 // detection-log run id, 0 when logging is off
	Interval int   // run detection every Nth frame
	Show     bool  // display annotated window
}

// Manager drives the inference loop: frames in, annotated frames and
// detections out to the configured sinks. Sinks are optional; a nil buffer,
// hub or database simply disables that output.
type Manager struct {
	detectorService *ai.DetectorService
	bufferService   *storage.BufferService
	hubService      *websocket.HubService
	db              *database.Database
	logger          *logger.Logger

	runID           int64
	processEveryNth int
	show            bool

	frameCount      int
	firstDetections []models.Detection
	haveFirst       bool
}

func NewManager(detector *ai.DetectorService, buffer *storage.BufferService, hub *websocket.HubService, db *database.Database, opts Options, log *logger.Logger) *Manager {
	interval := opts.Interval
	if interval < 1 {
		interval = 1
	}

	return &Manager{
		detectorService: detector,
		bufferService:   buffer,
		hubService:      hub,
		db:              db,
		runID:           opts.RunID,
		processEveryNth: interval,
		show:            opts.Show,
		logger:          log,
	}
}

// Run executes inference against the source until it ends, the user quits
// the window with 'q', or the context is cancelled.
func (m *Manager) Run(ctx context.Context, source capture.Source) error {
	if source.Kind == capture.KindImage {
		return m.runImage(ctx, source)
	}
	return m.runStream(ctx, source)
}

// runImage handles single still images: one detection pass, then an
// optional window held open until the user quits.
func (m *Manager) runImage(ctx context.Context, source capture.Source) error {
	frame, err := source.ReadImage()
	if err != nil {
		return err
	}
	defer frame.Close()

	m.frameCount = 1

	detections, err := m.detectorService.Detect(frame)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	m.recordFirst(detections)
	m.logger.Info("Image %s: %d detection(s)", source, len(detections))

	if err := m.detectorService.Annotate(&frame, detections); err != nil {
		return err
	}
	m.deliver(frame, detections, source, true)

	if !m.show {
		return nil
	}

	window := gocv.NewWindow(windowTitle)
	defer window.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		window.IMShow(frame)
		if key := window.WaitKey(30); key == keyQuit || key == keyEscape {
			return nil
		}
	}
}

// runStream handles cameras, video files and network streams.
func (m *Manager) runStream(ctx context.Context, source capture.Source) error {
	videoCapture, err := source.Open()
	if err != nil {
		return err
	}
	defer videoCapture.Close()

	var window *gocv.Window
	if m.show {
		window = gocv.NewWindow(windowTitle)
		defer window.Close()
	}

	frame := gocv.NewMat()
	defer frame.Close()

	var lastDetections []models.Detection

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Interrupted, stopping after %d frame(s)", m.frameCount)
			return nil
		default:
		}

		if ok := videoCapture.Read(&frame); !ok {
			if source.Finite() {
				m.logger.Info("End of stream after %d frame(s)", m.frameCount)
				return nil
			}
			return fmt.Errorf("cannot read frame from source %s", source)
		}
		if frame.Empty() {
			continue
		}

		m.frameCount++

		processed := false
		if m.shouldProcess(m.frameCount) {
			detections, err := m.detectorService.Detect(frame)
			if err != nil {
				m.logger.Error("Detection failed on frame %d: %v", m.frameCount, err)
			} else {
				lastDetections = detections
				processed = true
				m.recordFirst(detections)
			}
		}

		// Frames between detection passes carry the latest boxes so the
		// display and the stream stay annotated.
		if len(lastDetections) > 0 {
			if err := m.detectorService.Annotate(&frame, lastDetections); err != nil {
				m.logger.Error("Failed to annotate frame %d: %v", m.frameCount, err)
			}
		}

		m.deliver(frame, lastDetections, source, processed)

		if window != nil {
			window.IMShow(frame)
			if key := window.WaitKey(1); key == keyQuit || key == keyEscape {
				m.logger.Info("Viewer requested quit after %d frame(s)", m.frameCount)
				return nil
			}
		}
	}
}

// shouldProcess reports whether detection runs on this frame number. The
// first frame is always processed so the exit summary has a result.
func (m *Manager) shouldProcess(frameNumber int) bool {
	return (frameNumber-1)%m.processEveryNth == 0
}

// deliver fans an annotated frame out to the save buffer, the detection log
// and websocket viewers.
func (m *Manager) deliver(frame gocv.Mat, detections []models.Detection, source capture.Source, processed bool) {
	if processed && len(detections) > 0 && m.db != nil {
		m.logDetections(detections)
	}

	needSave := processed && len(detections) > 0 && m.bufferService != nil
	needCast := m.hubService != nil && m.hubService.GetClientCount() > 0
	if !needSave && !needCast {
		return
	}

	data, ok := m.encodeJPEG(frame)
	if !ok {
		return
	}

	if needSave {
		m.bufferService.AddFrame(data, source.Tag(), models.TopLabel(detections), m.frameCount)
	}
	if needCast {
		m.hubService.BroadcastFrame(data, source.String(), m.frameCount)
	}
}

// logDetections writes the current frame's detections to the database.
func (m *Manager) logDetections(detections []models.Detection) {
	records := make([]database.Detection, 0, len(detections))
	now := time.Now()
	for _, det := range detections {
		records = append(records, database.Detection{
			RunID:      m.runID,
			Frame:      m.frameCount,
			Label:      det.Label,
			Confidence: det.Confidence,
			X:          det.X,
			Y:          det.Y,
			Width:      det.Width,
			Height:     det.Height,
			Timestamp:  now,
		})
	}
	if err := m.db.InsertDetections(records); err != nil {
		m.logger.Error("Failed to log detections for frame %d: %v", m.frameCount, err)
	}
}

func (m *Manager) encodeJPEG(frame gocv.Mat) ([]byte, bool) {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		m.logger.Error("Failed to encode frame: %v", err)
		return nil, false
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, true
}

func (m *Manager) recordFirst(detections []models.Detection) {
	if m.haveFirst {
		return
	}
	m.haveFirst = true
	m.firstDetections = detections
}

// FirstDetections returns the detections of the first processed frame, for
// the end-of-run summary.
func (m *Manager) FirstDetections() []models.Detection {
	return m.firstDetections
}

// FrameCount returns the number of frames read from the source.
func (m *Manager) FrameCount() int {
	return m.frameCount
}
