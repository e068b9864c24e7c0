// Package stream pushes game snapshots to browser clients over websocket
// and feeds their key presses and swipes back into the game.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-web/structs"
)

const writeWait = 5 * time.Second

// Controller is the part of a session a client may drive.
type Controller interface {
	Start() error
	Key(name string) bool
	Swipe(dx, dy float64) bool
	Snapshot() structs.Snapshot
}

// Message 服务端发给客户端的消息
type Message struct {
	Type     string            `json:"type"` // state, game_over, ack, error
	State    *structs.Snapshot `json:"state,omitempty"`
	Result   *structs.Result   `json:"result,omitempty"`
	Accepted *bool             `json:"accepted,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// clientMessage 客户端发来的消息
type clientMessage struct {
	Type string  `json:"type"` // key, swipe, start
	Key  string  `json:"key,omitempty"`
	DX   float64 `json:"dx,omitempty"`
	DY   float64 `json:"dy,omitempty"`
}

type client struct {
	ws  *websocket.Conn
	wmu sync.Mutex // gorilla 只允许一个并发写者
}

func (c *client) send(msg Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}

// Hub is a Renderer that broadcasts every snapshot to connected clients.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
}

// Render broadcasts the snapshot. Clients that fail to receive are dropped.
func (h *Hub) Render(snap structs.Snapshot) error {
	h.broadcast(Message{Type: "state", State: &snap})
	return nil
}

// GameOver broadcasts the result of a finished game.
func (h *Hub) GameOver(result structs.Result) {
	h.broadcast(Message{Type: "game_over", Result: &result})
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.ws.Close()
	}
}

// Handler upgrades the request and serves one client against ctl.
func (h *Hub) Handler(ctl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}
		c := &client{ws: ws}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()

		snap := ctl.Snapshot()
		if err := c.send(Message{Type: "state", State: &snap}); err != nil {
			h.drop(c)
			return
		}
		h.readLoop(c, ctl)
	}
}

func (h *Hub) readLoop(c *client, ctl Controller) {
	defer h.drop(c)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(Message{Type: "error", Error: "invalid message"})
			continue
		}
		reply := handle(ctl, msg)
		if reply == nil {
			continue
		}
		if err := c.send(*reply); err != nil {
			return
		}
	}
}

func handle(ctl Controller, msg clientMessage) *Message {
	switch msg.Type {
	case "key":
		ok := ctl.Key(msg.Key)
		return &Message{Type: "ack", Accepted: &ok}
	case "swipe":
		ok := ctl.Swipe(msg.DX, msg.DY)
		return &Message{Type: "ack", Accepted: &ok}
	case "start":
		// 新一局的状态会通过 Render 广播
		if err := ctl.Start(); err != nil {
			return &Message{Type: "error", Error: err.Error()}
		}
		return nil
	}
	return &Message{Type: "error", Error: "unknown message type " + msg.Type}
}

func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.ws.Close()
}
