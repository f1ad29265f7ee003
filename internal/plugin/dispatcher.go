package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/store"
)

var (
	// ErrDispatchQueueFull is returned when events arrive faster than plugins finish.
	ErrDispatchQueueFull = errors.New("dispatch queue full")
	// ErrUnsupportedAction is returned when a binding names an action the plugin does not declare.
	ErrUnsupportedAction = errors.New("action not supported by plugin")
	// ErrDispatcherClosed is returned by Dispatch after Close.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// BindingSource resolves the binding for a gesture label; nil means unbound.
type BindingSource interface {
	GetByLabel(label string) (*store.Binding, error)
}

// PluginSource looks plugins up by name.
type PluginSource interface {
	Get(name string) (*Plugin, error)
}

// Runner executes one plugin request.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error)
}

// Result reports the outcome of running a bound action.
type Result struct {
	Event    gesture.Event
	Binding  *store.Binding
	Response *Response
	Err      error
}

// DispatcherStats counts dispatch outcomes.
type DispatcherStats struct {
	Executed int64 `json:"executed"`
	Failed   int64 `json:"failed"`
	Skipped  int64 `json:"skipped"`
	Dropped  int64 `json:"dropped"`
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Bindings  BindingSource
	Plugins   PluginSource
	Runner    Runner
	QueueSize int
	// OnResult, if set, is called from the worker after every bound event.
	OnResult func(Result)
}

// Dispatcher runs the plugin action bound to each event on a worker
// goroutine, one at a time and in arrival order.
type Dispatcher struct {
	cfg   DispatcherConfig
	queue chan gesture.Event

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	executed, failed, skipped, dropped atomic.Int64
}

// NewDispatcher starts the worker.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		cfg:    cfg,
		queue:  make(chan gesture.Event, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch enqueues e without blocking.
func (d *Dispatcher) Dispatch(e gesture.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- e:
		return nil
	default:
		d.dropped.Add(1)
		return ErrDispatchQueueFull
	}
}

// Close waits for queued events to finish and stops the worker.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	d.cancel()
	return nil
}

// Stats returns the dispatch counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Executed: d.executed.Load(),
		Failed:   d.failed.Load(),
		Skipped:  d.skipped.Load(),
		Dropped:  d.dropped.Load(),
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		d.handle(e)
	}
}

func (d *Dispatcher) handle(e gesture.Event) {
	binding, err := d.cfg.Bindings.GetByLabel(e.Label.String())
	if err != nil {
		d.failed.Add(1)
		log.Error("failed to resolve binding", "label", e.Label, "error", err)
		return
	}
	if binding == nil || !binding.Enabled {
		d.skipped.Add(1)
		log.Debug("no active binding", "label", e.Label)
		return
	}

	resp, err := d.execute(e, binding)
	if err != nil {
		d.failed.Add(1)
		log.Warn("plugin action failed",
			"label", e.Label, "plugin", binding.PluginName, "action", binding.ActionName, "error", err)
	} else {
		d.executed.Add(1)
		log.Info("plugin action ran",
			"label", e.Label, "plugin", binding.PluginName, "action", binding.ActionName, "success", resp.Success)
	}

	if d.cfg.OnResult != nil {
		d.cfg.OnResult(Result{Event: e, Binding: binding, Response: resp, Err: err})
	}
}

func (d *Dispatcher) execute(e gesture.Event, b *store.Binding) (*Response, error) {
	p, err := d.cfg.Plugins.Get(b.PluginName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.PluginName, err)
	}
	if !p.Manifest.Supports(b.ActionName) {
		return nil, fmt.Errorf("%s/%s: %w", b.PluginName, b.ActionName, ErrUnsupportedAction)
	}
	return d.cfg.Runner.Execute(d.ctx, p, NewRequest(b.ActionName, e, b.Config))
}
