package server

import (
	"fmt"
	"net/http"
	"time"
)

// FrameSource supplies the most recent annotated camera frame as JPEG.
// The timestamp changes whenever a new frame is available.
type FrameSource interface {
	LatestJPEG() ([]byte, time.Time)
}

// StreamHandler serves the annotated preview as an MJPEG stream.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
}

// NewStreamHandler polls source at roughly 15 FPS.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source, interval: 66 * time.Millisecond}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last time.Time
	for {
		if jpeg, at := h.source.LatestJPEG(); len(jpeg) > 0 && at.After(last) {
			last = at
			if err := writePart(w, jpeg); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
