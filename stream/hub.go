// Package stream broadcasts particle frames to browsers over websockets.
package stream

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/fission/systems"
)

//go:embed index.html
var indexHTML []byte

// Particle is the wire form of one particle.
type Particle struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Size  float64  `json:"size"`
	Life  float64  `json:"life"`
	Color [3]uint8 `json:"color"`
}

// Frame is the wire form of one broadcast frame.
type Frame struct {
	Tick        int64      `json:"tick"`
	Origin      [2]float64 `json:"origin"`
	Intensity   float64    `json:"intensity"`
	Temperature float64    `json:"temperature"`
	PowerMW     int        `json:"power_mw"`
	Status      string     `json:"status"`
	Tint        [3]uint8   `json:"tint"`
	Particles   []Particle `json:"particles"`
}

// NewFrame converts a simulation frame to its wire form.
func NewFrame(f systems.Frame) Frame {
	out := Frame{
		Tick:        f.Tick,
		Origin:      [2]float64{f.Origin.X, f.Origin.Y},
		Intensity:   f.Intensity,
		Temperature: f.Temperature,
		PowerMW:     systems.PowerMW(f.Power),
		Status:      f.Status.String(),
		Particles:   make([]Particle, len(f.Particles)),
	}
	out.Tint[0], out.Tint[1], out.Tint[2] = f.Tint()
	for i, p := range f.Particles {
		r, g, b := p.Color.RGB8()
		out.Particles[i] = Particle{
			X:     p.Pos.X,
			Y:     p.Pos.Y,
			Size:  p.Size,
			Life:  p.Life,
			Color: [3]uint8{r, g, b},
		}
	}
	return out
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writer() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

const writeWait = 5 * time.Second

// Hub fans frames out to every connected client. Slow clients miss frames
// instead of stalling the simulation.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	dropped int
	frames  int

	sendBuffer    int
	frameInterval int
	upgrader      websocket.Upgrader
}

// NewHub creates a hub that queues up to sendBuffer frames per client and
// broadcasts every frameInterval-th rendered frame.
func NewHub(sendBuffer, frameInterval int) *Hub {
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	if frameInterval < 1 {
		frameInterval = 1
	}
	return &Hub{
		clients:       make(map[*client]struct{}),
		sendBuffer:    sendBuffer,
		frameInterval: frameInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 8192,
			// nil CheckOrigin rejects cross-origin upgrades
		},
	}
}

// AllowAnyOrigin accepts websocket upgrades from pages on any origin.
// Call it before serving.
func (h *Hub) AllowAnyOrigin() {
	h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
}

// Handler returns the hub's routes: the viewer page, /ws and /healthz.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})
	return mux
}

// ServeWS upgrades the request and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Info("stream client connected", "remote", r.RemoteAddr, "clients", n)

	go c.writer()
	h.reader(c)
}

// reader discards client messages and unregisters the client on close.
func (h *Hub) reader(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Render implements the game's field renderer by broadcasting every
// frameInterval-th frame.
func (h *Hub) Render(f systems.Frame) {
	h.mu.Lock()
	h.frames++
	due := h.frames%h.frameInterval == 0
	idle := len(h.clients) == 0
	h.mu.Unlock()

	if !due || idle {
		return
	}
	if err := h.Broadcast(NewFrame(f)); err != nil {
		slog.Error("stream broadcast failed", "error", err)
	}
}

// Broadcast queues frame for every client without blocking.
func (h *Hub) Broadcast(frame Frame) error {
	msg, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped++
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many client frames were skipped because a queue was full.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve listens on addr until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	slog.Info("stream listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		h.Close()
		return err
	case err := <-errCh:
		h.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stream server: %w", err)
	}
}
