// Package transport forwards gesture events to an external HTTP consumer.
//
// Events are queued and posted by a single background worker so the frame
// loop never waits on the network.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
)

var (
	// ErrQueueFull is returned by Send when the worker is behind and the event was dropped.
	ErrQueueFull = errors.New("transport queue full")
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("transport closed")
)

// Config controls where and how events are delivered.
type Config struct {
	URL       string
	Offline   bool
	Timeout   time.Duration
	QueueSize int
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		URL:       "http://localhost:5005/",
		Offline:   true,
		Timeout:   time.Second,
		QueueSize: 64,
	}
}

// Payload is the JSON body posted for each event.
type Payload struct {
	Timestamp  int64   `json:"timestamp"`
	Type       string  `json:"type"`
	Action     string  `json:"action"`
	Hand       int     `json:"hand"`
	Confidence float64 `json:"confidence"`
	RawEvent   string  `json:"raw_event"`
}

// NewPayload converts an engine event to its wire form.
func NewPayload(e gesture.Event) Payload {
	return Payload{
		Timestamp:  e.Time.UnixMilli(),
		Type:       "gesture",
		Action:     e.Label.Action(),
		Hand:       e.Lane,
		Confidence: e.Confidence,
		RawEvent:   fmt.Sprintf("HAND %d: %s", e.Lane, e.Label),
	}
}

// Stats counts delivery outcomes since the poster was created.
type Stats struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
	Offline int64 `json:"offline"`
}

// Poster queues events and posts them in order from one goroutine.
type Poster struct {
	cfg    Config
	client *http.Client
	queue  chan Payload

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	sent, failed, dropped, offline atomic.Int64
}

// New starts a poster. Zero Timeout or QueueSize fall back to the defaults.
func New(cfg Config) *Poster {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}

	p := &Poster{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		queue:  make(chan Payload, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Send enqueues e without blocking.
func (p *Poster) Send(e gesture.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- NewPayload(e):
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the queue to drain.
func (p *Poster) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return nil
}

// Stats returns the current delivery counters.
func (p *Poster) Stats() Stats {
	return Stats{
		Sent:    p.sent.Load(),
		Failed:  p.failed.Load(),
		Dropped: p.dropped.Load(),
		Offline: p.offline.Load(),
	}
}

func (p *Poster) run() {
	defer close(p.done)
	for payload := range p.queue {
		p.deliver(payload)
	}
}

func (p *Poster) deliver(payload Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.failed.Add(1)
		log.Error("failed to encode event", "error", err)
		return
	}

	if p.cfg.Offline {
		p.offline.Add(1)
		log.Info("offline event", "payload", string(body))
		return
	}

	if err := p.post(body); err != nil {
		p.failed.Add(1)
		log.Warn("event delivery failed", "action", payload.Action, "hand", payload.Hand, "error", err)
		return
	}
	p.sent.Add(1)
	log.Debug("event delivered", "action", payload.Action, "hand", payload.Hand)
}

func (p *Poster) post(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
