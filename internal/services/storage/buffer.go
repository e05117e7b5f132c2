package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/logger"
)

// Frame is an annotated frame waiting to be written to disk.
type Frame struct {
	Timestamp string
	Source    string
	Label     string
	Number    int
	Data      []byte
}

// BufferService collects annotated frames and flushes them to a per-run
// directory as JPEG files.
type BufferService struct {
	runDir      string
	frames      []Frame
	bufferLimit int
	dropped     int
	stopChan    chan struct{}
	stopOnce    sync.Once
	mu          sync.Mutex
	logger      *logger.Logger
}

// NewBufferService creates a buffer flushing into a timestamped directory
// under runsDir.
func NewBufferService(runsDir string, bufferLimit int, log *logger.Logger) *BufferService {
	runDir := filepath.Join(runsDir, time.Now().Format("2006-01-02_15-04-05"))
	return &BufferService{
		runDir:      runDir,
		bufferLimit: bufferLimit,
		frames:      make([]Frame, 0),
		stopChan:    make(chan struct{}),
		logger:      log,
	}
}

// Run flushes the buffer on an interval until Stop is called.
func (s *BufferService) Run(flushInterval int) {
	ticker := time.NewTicker(time.Duration(flushInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-s.stopChan:
			s.Flush()
			return
		}
	}
}

// Stop ends the flush loop after a final flush.
func (s *BufferService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// AddFrame queues an annotated frame. Frames beyond the buffer limit are
// dropped until the next flush.
func (s *BufferService) AddFrame(data []byte, source, label string, frameNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) >= s.bufferLimit {
		s.dropped++
		return
	}

	s.frames = append(s.frames, Frame{
		Timestamp: time.Now().Format("2006-01-02_15-04-05.000"),
		Source:    source,
		Label:     label,
		Number:    frameNumber,
		Data:      data,
	})
}

// Flush writes buffered frames to the run directory.
func (s *BufferService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return
	}

	if err := os.MkdirAll(s.runDir, 0755); err != nil {
		s.logger.Error("Error creating run directory: %v", err)
		return
	}

	written := 0
	for _, frame := range s.frames {
		filename := fmt.Sprintf("%s_%s_%06d_%s.jpg", frame.Timestamp, frame.Source, frame.Number, frame.Label)
		fullpath := filepath.Join(s.runDir, filename)

		if err := os.WriteFile(fullpath, frame.Data, 0644); err != nil {
			s.logger.Error("Error saving frame %s: %v", filename, err)
			continue
		}
		written++
	}

	if s.dropped > 0 {
		s.logger.Warning("Buffer was full, %d frame(s) dropped since last flush", s.dropped)
		s.dropped = 0
	}
	s.logger.Info("Flushed %d frame(s) to %s", written, s.runDir)
	s.frames = s.frames[:0]
}

// Dir returns the run directory frames are flushed into.
func (s *BufferService) Dir() string {
	return s.runDir
}
