// Package capture reads frames from a camera device with GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Config describes the capture device.
type Config struct {
	Device int
	Width  int
	Height int
	FPS    int
	// Mirror flips frames horizontally so on-screen motion matches the user's.
	Mirror bool
}

// DefaultConfig captures 640x480 at 30 fps from device 0, mirrored.
func DefaultConfig() Config {
	return Config{Width: 640, Height: 480, FPS: 30, Mirror: true}
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller must close it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

type deviceCamera struct {
	cfg     Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
}

// NewCamera creates a Camera for the configured device. Nothing is opened
// until Open.
func NewCamera(cfg Config) Camera {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.FPS <= 0 {
		cfg.FPS = def.FPS
	}
	return &deviceCamera{cfg: cfg}
}

func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.cfg.Device, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.cfg.FPS))

	c.capture = vc
	return nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	if c.cfg.Mirror {
		Mirror(&mat)
	}
	return &mat, nil
}

// SetFPS changes the capture rate. Values <= 0 are ignored.
func (c *deviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.FPS = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *deviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.FPS
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}

// Mirror flips frame around its vertical axis in place.
func Mirror(frame *gocv.Mat) {
	gocv.Flip(*frame, frame, 1)
}
