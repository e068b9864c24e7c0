package stream

import (
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-web/structs"
)

type fakeController struct {
	mu      sync.Mutex
	keys    []string
	starts  int
	startFn func() error
}

func (f *fakeController) Start() error {
	f.mu.Lock()
	f.starts++
	fn := f.startFn
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil
}

func (f *fakeController) Key(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, name)
	return name == "ArrowUp"
}

func (f *fakeController) Swipe(dx, dy float64) bool { return dy < -30 }

func (f *fakeController) Snapshot() structs.Snapshot {
	return structs.Snapshot{TileCount: 25, State: structs.PreStart, Snake: []structs.Position{{X: 12, Y: 12}}}
}

func dial(t *testing.T, hub *Hub, ctl Controller) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub.Handler(ctl))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func read(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestClientReceivesInitialState(t *testing.T) {
	hub := NewHub()
	ws := dial(t, hub, &fakeController{})

	msg := read(t, ws)
	if msg.Type != "state" || msg.State == nil || msg.State.TileCount != 25 {
		t.Fatalf("first message = %+v, want current state", msg)
	}
}

func TestKeyAndSwipeAreAcknowledged(t *testing.T) {
	ctl := &fakeController{}
	ws := dial(t, NewHub(), ctl)
	read(t, ws)

	tests := []struct {
		msg  map[string]any
		want bool
	}{
		{map[string]any{"type": "key", "key": "ArrowUp"}, true},
		{map[string]any{"type": "key", "key": "q"}, false},
		{map[string]any{"type": "swipe", "dx": 0, "dy": -60}, true},
		{map[string]any{"type": "swipe", "dx": 5, "dy": 5}, false},
	}
	for _, tt := range tests {
		if err := ws.WriteJSON(tt.msg); err != nil {
			t.Fatal(err)
		}
		reply := read(t, ws)
		if reply.Type != "ack" || reply.Accepted == nil || *reply.Accepted != tt.want {
			t.Errorf("%v: reply = %+v, want ack %v", tt.msg, reply, tt.want)
		}
	}

	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if len(ctl.keys) != 2 || ctl.keys[0] != "ArrowUp" || ctl.keys[1] != "q" {
		t.Errorf("keys = %v", ctl.keys)
	}
}

func TestBadMessagesGetErrors(t *testing.T) {
	ws := dial(t, NewHub(), &fakeController{startFn: func() error { return errors.New("boom") }})
	read(t, ws)

	for _, raw := range []string{"not json", `{"type":"dance"}`, `{"type":"start"}`} {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatal(err)
		}
		if reply := read(t, ws); reply.Type != "error" || reply.Error == "" {
			t.Errorf("%s: reply = %+v, want error", raw, reply)
		}
	}
}

func TestBroadcastStateAndGameOver(t *testing.T) {
	hub := NewHub()
	ctl := &fakeController{}
	a := dial(t, hub, ctl)
	b := dial(t, hub, ctl)
	read(t, a)
	read(t, b)

	hub.Render(structs.Snapshot{TileCount: 25, Score: 4, State: structs.Running})
	hub.GameOver(structs.Result{SessionID: "s1", Score: 4})

	for _, ws := range []*websocket.Conn{a, b} {
		if msg := read(t, ws); msg.Type != "state" || msg.State.Score != 4 {
			t.Errorf("state broadcast = %+v", msg)
		}
		if msg := read(t, ws); msg.Type != "game_over" || msg.Result == nil || msg.Result.SessionID != "s1" {
			t.Errorf("game over broadcast = %+v", msg)
		}
	}
}

func TestClosedClientsAreDropped(t *testing.T) {
	hub := NewHub()
	ws := dial(t, hub, &fakeController{})
	read(t, ws)
	if hub.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", hub.Len())
	}
	ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client still registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
