package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// BlankCamera produces black frames of a fixed size. It stands in for a
// device when the hands come from a scripted detector.
type BlankCamera struct {
	width, height int

	mu    sync.Mutex
	open  bool
	fps   int
	reads int
}

// NewBlankCamera creates a BlankCamera producing width x height frames.
func NewBlankCamera(width, height int) *BlankCamera {
	return &BlankCamera{width: width, height: height, fps: DefaultConfig().FPS}
}

func (c *BlankCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	return nil
}

func (c *BlankCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *BlankCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	c.reads++
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), c.height, c.width, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func (c *BlankCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *BlankCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *BlankCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads reports how many frames have been read.
func (c *BlankCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
