package inspect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oliverbestmann/contact"
)

// Event is a single target level notification as sent to inspecting clients.
type Event struct {
	Tick   uint64 `json:"tick"`
	Owner  string `json:"owner"`
	Kind   string `json:"kind"`
	Phase  string `json:"phase"`
	Target string `json:"target"`
}

const (
	PhaseEnter = "enter"
	PhaseStay  = "stay"
	PhaseExit  = "exit"
)

const clientQueueSize = 256

const writeTimeout = 5 * time.Second

type client struct {
	conn  *websocket.Conn
	queue chan []byte
}

// Hub streams contact events to websocket clients. It is the only part of
// this module that is used from multiple goroutines: the simulation thread
// publishes events while http handlers add and remove clients.
//
// Clients that can not keep up lose events instead of slowing down the simulation.
// Stay events fire every tick for every target and are only published after
// PublishStays(true).
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	stays atomic.Bool

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	tick    uint64
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		logger:  logger,
		clients: map[*client]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// SetTick sets the tick number attached to events published from now on.
func (h *Hub) SetTick(tick uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tick = tick
}

// PublishStays enables or disables publishing of stay events.
func (h *Hub) PublishStays(enabled bool) {
	h.stays.Store(enabled)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Publish sends the event to every connected client.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || len(h.clients) == 0 {
		return
	}

	event.Tick = h.tick

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("Failed to encode event", slog.String("error", err.Error()))
		return
	}

	for c := range h.clients {
		select {
		case c.queue <- payload:
		default:
			h.logger.Debug("Dropping event for slow client", slog.String("remote", c.conn.RemoteAddr().String()))
		}
	}
}

// ServeHTTP upgrades the request to a websocket connection and streams events
// until the client disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{conn: conn, queue: make(chan []byte, clientQueueSize)}

	if !h.add(c) {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub closed")
		_ = conn.WriteMessage(websocket.CloseMessage, message)
		_ = conn.Close()
		return
	}

	h.logger.Info("Inspector connected", slog.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(c)

	// we do not expect any messages, but need to read to notice the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)

	h.logger.Info("Inspector disconnected", slog.String("remote", conn.RemoteAddr().String()))
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	h.closed = true

	var firstErr error
	for c := range h.clients {
		delete(h.clients, c)
		close(c.queue)

		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close inspector connection: %w", err)
		}
	}

	return firstErr
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.queue)
	_ = c.conn.Close()
}

func (h *Hub) writeLoop(c *client) {
	for payload := range c.queue {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("Write to inspector failed", slog.String("error", err.Error()))
			_ = c.conn.Close()

			// drain until the read loop removes the client
			for range c.queue {
			}

			return
		}
	}
}

// TargetCallbacks returns callbacks that publish the target level events of
// one owner and kind. name renders a target for display.
func TargetCallbacks[H comparable, T comparable](hub *Hub, owner string, kind contact.Kind, name func(T) string) contact.TargetCallbacks[H, T] {
	publish := func(phase string, target T) {
		hub.Publish(Event{
			Owner:  owner,
			Kind:   kind.String(),
			Phase:  phase,
			Target: name(target),
		})
	}

	return contact.TargetCallbacks[H, T]{
		OnEnter: func(target T) { publish(PhaseEnter, target) },
		OnStay: func(target T) {
			if hub.stays.Load() {
				publish(PhaseStay, target)
			}
		},
		OnExit: func(target T) { publish(PhaseExit, target) },
	}
}
