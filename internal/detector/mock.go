package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
)

// MockDetector is a Detector whose results are scripted by the caller.
// Queued frames are returned one per Detect call; once the queue is drained
// the hands set with SetHands are returned on every call.
type MockDetector struct {
	mu     sync.Mutex
	hands  []landmark.Hand
	queue  [][]landmark.Hand
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned once the queue is empty.
func (m *MockDetector) SetHands(hands []landmark.Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Queue appends per-frame results to replay in order.
func (m *MockDetector) Queue(frames ...[]landmark.Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued frame, the fixed hands or the error.
func (m *MockDetector) Detect(*gocv.Mat) ([]landmark.Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls reports how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
