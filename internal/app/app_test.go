package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/transport"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testConfig(s *store.Store) Config {
	return Config{
		Gesture:   gesture.DefaultConfig(),
		Camera:    capture.Config{Width: 640, Height: 480, FPS: 50},
		Transport: transport.DefaultConfig(),
		PluginDir: "",
		Store:     s,
	}
}

func newTestApp(t *testing.T, cfg Config, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithDetector(detector.NewMockDetector())}, opts...)
	a, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// feed sends the same hand for n frames at 20 fps.
func feed(t *testing.T, a *App, hand landmark.Hand, n int) []gesture.Event {
	t.Helper()
	var out []gesture.Event
	for i := 0; i < n; i++ {
		events, err := a.ProcessHands([]landmark.Hand{hand}, 1000, 1000, epoch.Add(time.Duration(i)*50*time.Millisecond))
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		out = append(out, events...)
	}
	return out
}

func TestNew_InvalidGestureConfig(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Gesture.SmoothFrames = 0
	if _, err := New(cfg, WithDetector(detector.NewMockDetector())); err == nil {
		t.Fatal("expected error for invalid gesture config")
	}
}

func TestApp_ProcessHands_JournalsAndNotifies(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, testConfig(s))

	var got []gesture.Label
	a.OnEvent(func(e gesture.Event) { got = append(got, e.Label) })

	events := feed(t, a, landmark.OpenPalm(), 10)
	if len(events) != 1 || events[0].Label != gesture.LabelOpenPalm {
		t.Fatalf("events = %+v, want one OPEN_PALM", events)
	}
	if diff := cmp.Diff([]gesture.Label{gesture.LabelOpenPalm}, got); diff != "" {
		t.Errorf("listener mismatch (-want +got):\n%s", diff)
	}

	last, ok := a.LastEvent()
	if !ok || last.Label != gesture.LabelOpenPalm {
		t.Errorf("LastEvent() = %+v, %v", last, ok)
	}

	journal, err := s.Events().List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(journal) != 1 {
		t.Fatalf("journal has %d events, want 1", len(journal))
	}
	if journal[0].Label != "OPEN_PALM" || journal[0].Lane != 0 {
		t.Errorf("journal[0] = %+v", journal[0])
	}
	if !journal[0].OccurredAt.Equal(events[0].Time) {
		t.Errorf("OccurredAt = %v, want %v", journal[0].OccurredAt, events[0].Time)
	}
}

func TestApp_ProcessHands_WithoutStore(t *testing.T) {
	a := newTestApp(t, testConfig(nil))
	if events := feed(t, a, landmark.ClosedHand(), 10); len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}

func TestApp_ProcessHands_InvalidFrame(t *testing.T) {
	a := newTestApp(t, testConfig(nil))
	if _, err := a.ProcessHands([]landmark.Hand{landmark.OpenPalm()}, 0, 0, epoch); err == nil {
		t.Fatal("expected error for zero-sized frame")
	}
}

func TestApp_LanesThrottled(t *testing.T) {
	a := newTestApp(t, testConfig(nil))

	var calls int
	a.OnLanes(func(states []gesture.LaneState) {
		calls++
		if len(states) != 1 {
			t.Errorf("got %d lanes, want 1", len(states))
		}
	})

	feed(t, a, landmark.OpenPalm(), 10)
	// Frames are 50ms apart, so every second frame crosses the 100ms mark.
	if calls != 5 {
		t.Errorf("lane callbacks = %d, want 5", calls)
	}
	if states := a.LaneStates(); len(states) != 1 || states[0].Final != gesture.LabelOpenPalm {
		t.Errorf("LaneStates() = %+v", states)
	}
}

func TestApp_SetEnabled(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, testConfig(s))

	var toggles []bool
	a.OnToggle(func(enabled bool) { toggles = append(toggles, enabled) })

	feed(t, a, landmark.OpenPalm(), 3)
	if err := a.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if a.Enabled() {
		t.Fatal("Enabled() = true after disabling")
	}
	if n := len(a.LaneStates()); n != 0 {
		t.Errorf("disabling left %d lanes", n)
	}
	if events := feed(t, a, landmark.OpenPalm(), 10); len(events) != 0 {
		t.Errorf("disabled app emitted %d events", len(events))
	}

	a.SetEnabled(false)
	if diff := cmp.Diff([]bool{false}, toggles); diff != "" {
		t.Errorf("toggles mismatch (-want +got):\n%s", diff)
	}

	if v, err := s.Settings().Get(settingEnabled); err != nil || v != "false" {
		t.Errorf("persisted enabled = %q, %v", v, err)
	}

	// A second app on the same store starts disabled.
	b := newTestApp(t, testConfig(s))
	if b.Enabled() {
		t.Error("restarted app should be disabled")
	}
	if err := b.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if events := feed(t, b, landmark.OpenPalm(), 10); len(events) != 1 {
		t.Errorf("re-enabled app emitted %d events, want 1", len(events))
	}
}

func TestApp_ForwardsToTransport(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []transport.Payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p transport.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
	}))
	defer srv.Close()

	cfg := testConfig(nil)
	cfg.Transport = transport.Config{URL: srv.URL, Timeout: time.Second, QueueSize: 8}
	a, err := New(cfg, WithDetector(detector.NewMockDetector()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	feed(t, a, landmark.ThumbsUp(), 10)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(payloads) != 1 {
		t.Fatalf("got %d payloads, want 1", len(payloads))
	}
	if p := payloads[0]; p.Action != "thumbs_up" || p.RawEvent != "HAND 0: THUMBS_UP" {
		t.Errorf("payload = %+v", p)
	}
	if st := a.TransportStats(); st.Sent != 1 {
		t.Errorf("TransportStats() = %+v", st)
	}
}

func TestApp_Close_Idempotent(t *testing.T) {
	det := detector.NewMockDetector()
	a, err := New(testConfig(nil), WithDetector(det))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if !det.Closed() {
		t.Error("detector not closed")
	}
	if err := a.Start(); err == nil {
		t.Error("Start() after Close should fail")
	}
}

func TestApp_Pipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline test")
	}

	det := detector.NewMockDetector()
	det.SetHands([]landmark.Hand{landmark.OpenPalm()})
	cam := capture.NewBlankCamera(480, 480)

	cfg := testConfig(nil)
	cfg.Preview = true
	a := newTestApp(t, cfg, WithCamera(cam), WithDetector(det))

	fired := make(chan gesture.Event, 1)
	a.OnEvent(func(e gesture.Event) {
		select {
		case fired <- e:
		default:
		}
	})

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	select {
	case e := <-fired:
		if e.Label != gesture.LabelOpenPalm {
			t.Errorf("label = %v, want OPEN_PALM", e.Label)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event from pipeline")
	}

	a.Stop()
	if cam.IsOpen() {
		t.Error("camera still open after Stop")
	}
	if cam.Reads() == 0 || det.Calls() == 0 {
		t.Errorf("reads = %d, detect calls = %d", cam.Reads(), det.Calls())
	}
	if jpeg, _ := a.Preview().LatestJPEG(); len(jpeg) == 0 {
		t.Error("preview not updated")
	}
}

func TestApp_Pipeline_Disabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline test")
	}

	det := detector.NewMockDetector()
	cam := capture.NewBlankCamera(480, 480)
	a := newTestApp(t, testConfig(nil), WithCamera(cam), WithDetector(det))
	a.SetEnabled(false)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	a.Stop()

	if cam.Reads() != 0 || det.Calls() != 0 {
		t.Errorf("disabled pipeline read %d frames and detected %d", cam.Reads(), det.Calls())
	}
}
