package capture

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// Kind classifies an inference source.
type Kind int

const (
	KindCamera Kind = iota // webcam by device index
	KindImage              // single still image on disk
	KindStream             // video file or network stream URL
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// Source is a coerced inference input selector.
type Source struct {
	Raw         string
	Kind        Kind
	CameraIndex int
}

// Parse coerces a source string: a string of digits is a camera index, a
// local path with an image extension is a still image, anything else (video
// file, RTSP/HTTP URL) is opened as a stream.
func Parse(raw string) Source {
	if index, err := strconv.Atoi(raw); err == nil && index >= 0 {
		return Source{Raw: raw, Kind: KindCamera, CameraIndex: index}
	}
	if !isURL(raw) && imageExtensions[strings.ToLower(filepath.Ext(raw))] {
		return Source{Raw: raw, Kind: KindImage}
	}
	return Source{Raw: raw, Kind: KindStream}
}

func isURL(s string) bool {
	return strings.Contains(s, "://")
}

// Open opens the source as a video capture. Not valid for still images.
func (s Source) Open() (*gocv.VideoCapture, error) {
	if s.Kind == KindImage {
		return nil, fmt.Errorf("source %s is a still image, not a stream", s.Raw)
	}
	if s.Kind == KindCamera {
		capture, err := gocv.OpenVideoCapture(s.CameraIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to open camera %d: %w", s.CameraIndex, err)
		}
		return capture, nil
	}
	capture, err := gocv.OpenVideoCapture(s.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", s.Raw, err)
	}
	return capture, nil
}

// ReadImage loads a still-image source into a Mat.
func (s Source) ReadImage() (gocv.Mat, error) {
	mat := gocv.IMRead(s.Raw, gocv.IMReadColor)
	if mat.Empty() {
		return mat, fmt.Errorf("failed to read image %s", s.Raw)
	}
	return mat, nil
}

// Finite reports whether the source ends on its own. Cameras run until the
// user quits.
func (s Source) Finite() bool {
	return s.Kind != KindCamera
}

// Tag returns a short name usable in saved-frame filenames.
func (s Source) Tag() string {
	if s.Kind == KindCamera {
		return fmt.Sprintf("camera%d", s.CameraIndex)
	}
	base := filepath.Base(s.Raw)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		base = "source"
	}
	return base
}

func (s Source) String() string {
	return s.Raw
}
