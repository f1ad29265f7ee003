package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var overlayColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// Annotate writes one line of text per entry down the top-left corner of
// frame, in place.
func Annotate(frame *gocv.Mat, lines []string) {
	for i, line := range lines {
		pt := image.Pt(10, 30+i*30)
		gocv.PutText(frame, line, pt, gocv.FontHersheySimplex, 0.8, overlayColor, 2)
	}
}

// EncodeJPEG compresses frame to JPEG bytes owned by the caller.
func EncodeJPEG(frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()
	return bytes.Clone(buf.GetBytes()), nil
}

// Preview holds the most recent annotated frame for streaming.
type Preview struct {
	mu   sync.RWMutex
	jpeg []byte
	at   time.Time
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Update annotates a copy of frame with lines and stores it as the latest
// preview image.
func (p *Preview) Update(frame *gocv.Mat, lines []string, at time.Time) error {
	annotated := frame.Clone()
	defer annotated.Close()

	Annotate(&annotated, lines)
	jpeg, err := EncodeJPEG(&annotated)
	if err != nil {
		return err
	}
	p.Set(jpeg, at)
	return nil
}

// Set stores already encoded JPEG bytes.
func (p *Preview) Set(jpeg []byte, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jpeg = jpeg
	p.at = at
}

// LatestJPEG returns the latest image and when it was captured.
func (p *Preview) LatestJPEG() ([]byte, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.at
}
