// Package app wires the camera, the hand detector and the gesture engine
// together and delivers every emitted event to the journal, the HTTP
// transport, the plugin dispatcher and any registered listeners.
package app

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/transport"
)

// settingEnabled persists the on/off switch across restarts.
const settingEnabled = "enabled"

// lanesInterval bounds how often lane snapshots are pushed to listeners.
const lanesInterval = 100 * time.Millisecond

// Config holds configuration options for the application.
type Config struct {
	Gesture   gesture.Config
	Camera    capture.Config
	Detector  detector.Config
	Transport transport.Config

	// MotionThreshold is the changed-pixel percentage that wakes the
	// pipeline; zero disables the idle mode.
	MotionThreshold float64
	IdleFPS         int
	IdleAfter       time.Duration

	PluginDir     string
	PluginTimeout time.Duration

	// Store enables the event journal, bindings and persisted settings.
	Store *store.Store

	// Preview keeps an annotated JPEG of the latest frame.
	Preview bool
}

// Option overrides a component New would otherwise build itself.
type Option func(*App)

// WithCamera uses c instead of opening the configured device.
func WithCamera(c capture.Camera) Option {
	return func(a *App) { a.camera = c }
}

// WithDetector uses d instead of the MediaPipe service.
func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

// App is the running recognizer.
type App struct {
	config Config

	camera     capture.Camera
	detector   detector.Detector
	motion     *capture.MotionGate
	preview    *capture.Preview
	poster     *transport.Poster
	plugins    *plugin.Manager
	dispatcher *plugin.Dispatcher

	// engineMu serialises access to the session, which is single-goroutine.
	engineMu  sync.Mutex
	session   *gesture.Session
	lanesSent time.Time

	mu             sync.RWMutex
	enabled        bool
	onEvent        []func(gesture.Event)
	onLanes        []func([]gesture.LaneState)
	onToggle       []func(bool)
	stopCh         chan struct{}
	done           chan struct{}
	closed         bool
	lastEvent      gesture.Event
	lastEventValid bool
}

// New builds an App. Components not supplied through options are created
// from config; when the MediaPipe service is missing the app falls back to
// a detector that never reports hands.
func New(config Config, opts ...Option) (*App, error) {
	session, err := gesture.NewSession(config.Gesture)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:  config,
		session: session,
		poster:  transport.New(config.Transport),
		plugins: plugin.NewManager(config.PluginDir),
		enabled: true,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(config.Camera)
	}
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
			a.detector = mp
			log.Info("using MediaPipe hand detection")
		} else {
			log.Warn("MediaPipe not available, no hands will be detected", "error", err)
			a.detector = detector.NewMockDetector()
		}
	}
	if config.MotionThreshold > 0 {
		a.motion = capture.NewMotionGate(config.MotionThreshold)
	}
	if config.Preview {
		a.preview = capture.NewPreview()
	}

	if config.Store != nil {
		a.enabled = config.Store.Settings().Bool(settingEnabled, true)
		a.dispatcher = plugin.NewDispatcher(plugin.DispatcherConfig{
			Bindings: config.Store.Bindings(),
			Plugins:  a.plugins,
			Runner:   plugin.NewExecutor(config.PluginTimeout),
		})
	}

	return a, nil
}

// DiscoverPlugins scans the plugin directory.
func (a *App) DiscoverPlugins() error {
	return a.plugins.Discover()
}

// OnEvent registers fn to be called, from the pipeline goroutine, for every
// emitted event.
func (a *App) OnEvent(fn func(gesture.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEvent = append(a.onEvent, fn)
}

// OnLanes registers fn to receive lane snapshots, at most every 100ms.
func (a *App) OnLanes(fn func([]gesture.LaneState)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLanes = append(a.onLanes, fn)
}

// OnToggle registers fn to be called whenever SetEnabled changes the state.
func (a *App) OnToggle(fn func(enabled bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onToggle = append(a.onToggle, fn)
}

// Enabled reports whether frames are being recognized.
func (a *App) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled switches recognition on or off and persists the choice.
// Turning it off forgets every lane so stale state cannot fire later.
func (a *App) SetEnabled(enabled bool) error {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	toggled := a.onToggle
	a.mu.Unlock()

	if changed && !enabled {
		a.engineMu.Lock()
		a.session.Reset()
		a.engineMu.Unlock()
	}
	if changed {
		log.Info("recognition toggled", "enabled", enabled)
		for _, fn := range toggled {
			fn(enabled)
		}
	}

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(settingEnabled, strconv.FormatBool(enabled)); err != nil {
			return fmt.Errorf("persist enabled: %w", err)
		}
	}
	return nil
}

// LaneStates returns the current per-lane tracker snapshots.
func (a *App) LaneStates() []gesture.LaneState {
	a.engineMu.Lock()
	defer a.engineMu.Unlock()
	return a.session.States()
}

// LastEvent returns the most recent event, if any.
func (a *App) LastEvent() (gesture.Event, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastEvent, a.lastEventValid
}

// Preview returns the annotated frame buffer, or nil when disabled.
func (a *App) Preview() *capture.Preview {
	return a.preview
}

// Plugins returns the plugin manager.
func (a *App) Plugins() *plugin.Manager {
	return a.plugins
}

// TransportStats returns delivery counters for the HTTP transport.
func (a *App) TransportStats() transport.Stats {
	return a.poster.Stats()
}

// ProcessHands runs one frame's hands through the engine and delivers the
// resulting events. It does nothing while disabled.
func (a *App) ProcessHands(hands []landmark.Hand, width, height int, now time.Time) ([]gesture.Event, error) {
	if !a.Enabled() {
		return nil, nil
	}

	a.engineMu.Lock()
	events, err := a.session.Process(gesture.Frame{Hands: hands, Width: width, Height: height, Time: now})
	var states []gesture.LaneState
	if err == nil && now.Sub(a.lanesSent) >= lanesInterval {
		a.lanesSent = now
		states = a.session.States()
	}
	a.engineMu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, e := range events {
		a.deliver(e)
	}
	if states != nil {
		a.mu.RLock()
		listeners := a.onLanes
		a.mu.RUnlock()
		for _, fn := range listeners {
			fn(states)
		}
	}
	return events, nil
}

func (a *App) deliver(e gesture.Event) {
	log.Info("gesture", "lane", e.Lane, "label", e.Label, "confidence", e.Confidence)

	if a.config.Store != nil {
		rec := &store.Event{Lane: e.Lane, Label: e.Label.String(), Confidence: e.Confidence, OccurredAt: e.Time}
		if err := a.config.Store.Events().Create(rec); err != nil {
			log.Error("failed to journal event", "label", e.Label, "error", err)
		}
	}
	if err := a.poster.Send(e); err != nil && !errors.Is(err, transport.ErrClosed) {
		log.Warn("event not forwarded", "label", e.Label, "error", err)
	}
	if a.dispatcher != nil {
		if err := a.dispatcher.Dispatch(e); err != nil && !errors.Is(err, plugin.ErrDispatcherClosed) {
			log.Warn("event not dispatched", "label", e.Label, "error", err)
		}
	}

	a.mu.Lock()
	a.lastEvent, a.lastEventValid = e, true
	listeners := a.onEvent
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(e)
	}
}

// Start opens the camera and launches the pipeline goroutine.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return errors.New("app is closed")
	}
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Info("detection pipeline started", "motion_gate", a.motion != nil)
	return nil
}

// Stop halts the pipeline and closes the camera. The app can be started again.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.camera.Close(); err != nil {
		log.Error("error closing camera", "error", err)
	}
	log.Info("detection pipeline stopped")
}

// Close stops the pipeline and releases every component. Queued events are
// flushed to the transport and the dispatcher first.
func (a *App) Close() error {
	a.Stop()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	var errs []error
	if a.dispatcher != nil {
		errs = append(errs, a.dispatcher.Close())
	}
	errs = append(errs, a.poster.Close())
	if a.motion != nil {
		a.motion.Close()
	}
	if err := a.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	return errors.Join(errs...)
}
