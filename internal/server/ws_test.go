package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/gesture"
)

func dialHub(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", h.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestHub_BroadcastEvent(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	a := dialHub(t, ts)
	b := dialHub(t, ts)
	waitClients(t, s.Hub(), 2)

	s.Hub().BroadcastEvent(gesture.Event{Lane: 1, Label: gesture.LabelSwipeDown, Confidence: 0.9})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Type != "event" {
			t.Errorf("type = %q, want event", msg.Type)
		}
		var e gesture.Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if e.Lane != 1 || e.Label != gesture.LabelSwipeDown {
			t.Errorf("event = %+v", e)
		}
	}
}

func TestHub_BroadcastLanes(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialHub(t, ts)
	waitClients(t, s.Hub(), 1)

	s.Hub().BroadcastLanes([]gesture.LaneState{{Lane: 0, Final: gesture.LabelThumbsUp}})

	msg := readMessage(t, conn)
	if msg.Type != "lanes" {
		t.Fatalf("type = %q, want lanes", msg.Type)
	}
	var lanes []gesture.LaneState
	json.Unmarshal(msg.Data, &lanes)
	if len(lanes) != 1 || lanes[0].Final != gesture.LabelThumbsUp {
		t.Errorf("lanes = %+v", lanes)
	}
}

func TestHub_Disconnect(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialHub(t, ts)
	waitClients(t, s.Hub(), 1)

	conn.Close()
	waitClients(t, s.Hub(), 0)

	// Broadcasting with no clients is a no-op.
	s.Hub().BroadcastEvent(gesture.Event{Label: gesture.LabelOpenPalm})
}

func TestHub_Close(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dialHub(t, ts)
	waitClients(t, s.Hub(), 1)

	s.Hub().Close()
	if s.Hub().Len() != 0 {
		t.Errorf("Len() after Close = %d", s.Hub().Len())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed")
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		defer late.Close()
		late.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := late.ReadMessage(); err == nil {
			t.Error("closed hub should not keep new clients")
		}
	}
}
