// Package stats streams simulation snapshots to browsers over WebSocket.
package stats

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/tomz197/cubefall/internal/scene"
	simconfig "github.com/tomz197/cubefall/internal/sim/config"
)

// Source provides the snapshots to stream.
type Source interface {
	Latest() *scene.Snapshot
	Done() <-chan struct{}
	Register()
	Unregister()
}

// Box is a mesh pose flattened for the browser.
type Box struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"` // Radians, counter-clockwise
	HX    float64 `json:"hx"`
	HY    float64 `json:"hy"`
}

// Message is one streamed frame.
type Message struct {
	Stats  scene.Stats `json:"stats"`
	Ground Box         `json:"ground"`
	Cubes  []Box       `json:"cubes"`
}

// NewMessage flattens a snapshot.
func NewMessage(snap *scene.Snapshot) Message {
	msg := Message{
		Stats:  snap.Stats,
		Ground: boxOf(snap.Ground),
		Cubes:  make([]Box, len(snap.Cubes)),
	}
	for i, m := range snap.Cubes {
		msg.Cubes[i] = boxOf(m)
	}
	return msg
}

func boxOf(m scene.Mesh) Box {
	return Box{
		X:     m.Translation[0],
		Y:     m.Translation[1],
		Angle: 2 * math.Atan2(m.Rotation.V[2], m.Rotation.W),
		HX:    m.HalfExtents[0],
		HY:    m.HalfExtents[1],
	}
}

// Handler upgrades requests to WebSocket and writes a Message per interval
// until the peer goes away or the source shuts down.
type Handler struct {
	source   Source
	logger   *log.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. A zero interval uses the default stream rate.
func NewHandler(src Source, logger *log.Logger, interval time.Duration) *Handler {
	if interval <= 0 {
		interval = simconfig.StreamInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		source:   src,
		logger:   logger,
		interval: interval,
		upgrader: websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin:       func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	h.source.Register()
	defer h.source.Unregister()
	h.logger.Info("stream opened", "remote", r.RemoteAddr)

	// The browser never sends anything we act on; reading only detects close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = h.stream(conn, gone)
	h.logger.Info("stream closed", "remote", r.RemoteAddr, "error", err)
}

func (h *Handler) stream(conn *websocket.Conn, gone <-chan struct{}) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return nil
		case <-h.source.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(simconfig.StreamWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return nil
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(simconfig.StreamWriteWait)); err != nil {
				return fmt.Errorf("set write deadline: %w", err)
			}
			if err := conn.WriteJSON(NewMessage(h.source.Latest())); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
	}
}
