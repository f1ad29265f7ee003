package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/log"
)

// ErrServiceNotFound is returned when the landmark service script is missing.
var ErrServiceNotFound = errors.New("mediapipe_service.py not found")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// Frames go out as length-prefixed JPEG; each reply is one JSON line.
type MediaPipeDetector struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector locates the service script. The Python process is
// started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = findFile("scripts/mediapipe_service.py")
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
	}

	return &MediaPipeDetector{config: config, script: script}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]landmark.Hand, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		return nil, err
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	hands, err := decodeHands(line, d.config)
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return hands, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// writeFrame sends one length-prefixed (4 bytes, big-endian) payload.
func writeFrame(w io.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))

	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []landmark.Point `json:"points"`
	Handedness string           `json:"handedness"`
	Score      float64          `json:"score"`
}

// decodeHands parses one service reply. Hands below MinConfidence are dropped
// and at most MaxHands are kept, in service order. A hand with the wrong
// landmark count fails the whole frame with landmark.ErrInvalidObservation.
func decodeHands(line []byte, config Config) ([]landmark.Hand, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", response.Error)
	}

	hands := make([]landmark.Hand, 0, len(response.Hands))
	for i, h := range response.Hands {
		if h.Score < config.MinConfidence {
			continue
		}
		if config.MaxHands > 0 && len(hands) == config.MaxHands {
			break
		}

		hand, err := landmark.FromPoints(h.Points, h.Handedness, h.Score)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		hands = append(hands, hand)
	}
	return hands, nil
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := d.config.Python
	if python == "" {
		python = findFile("venv/bin/python")
	}
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	log.Info("mediapipe service started", "python", python, "script", d.script)

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleTimeout <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			log.Warn("mediapipe service exited", "err", err)
		}
	})
}

// findFile looks for rel under the working directory, its parents, the
// executable's directory and ~/.mudra.
func findFile(rel string) string {
	candidates := []string{rel, filepath.Join("..", rel), filepath.Join("..", "..", rel)}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".mudra", rel))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
