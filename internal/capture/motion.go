package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	motionBlur      = 21
	motionPixelDiff = 25
)

// MotionGate decides whether a frame differs enough from the previous one
// to be worth running the hand detector on. It lets an idle pipeline stay
// cheap until something moves in front of the camera.
type MotionGate struct {
	threshold float64 // percent of changed pixels

	mu    sync.Mutex
	prev  gocv.Mat
	ready bool
	level float64
}

// NewMotionGate creates a gate that opens when more than threshold percent
// of pixels change between frames. Non-positive thresholds use 1%.
func NewMotionGate(threshold float64) *MotionGate {
	if threshold <= 0 {
		threshold = 1
	}
	return &MotionGate{threshold: threshold, prev: gocv.NewMat()}
}

// Moved compares frame to the previous one. The first frame only sets the
// baseline and reports no motion.
func (g *MotionGate) Moved(frame *gocv.Mat) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(motionBlur, motionBlur), 0, 0, gocv.BorderDefault)

	defer gray.CopyTo(&g.prev)
	if !g.ready {
		g.ready = true
		g.level = 0
		return false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, g.prev, &diff)
	gocv.Threshold(diff, &diff, motionPixelDiff, 255, gocv.ThresholdBinary)

	g.level = float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	return g.level > g.threshold
}

// Level is the changed-pixel percentage measured by the last Moved call.
func (g *MotionGate) Level() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level
}

// Reset forgets the baseline frame.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = false
	g.level = 0
}

// Close releases the baseline frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prev.Close()
	g.prev = gocv.NewMat()
	g.ready = false
}
