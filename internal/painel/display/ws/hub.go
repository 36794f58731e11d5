// Package ws serves render frames to kiosk pages over websockets and
// collects their media events.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024

	sendBuffer   = 256
	eventsBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the kiosk page is served from localhost or a file:// URL
	CheckOrigin: func(r *http.Request) bool { return true },
}

// replay slots, in the order a new page receives them
const (
	slotOrientation = iota
	slotTitle
	slotContent
	slotOverlay
	numSlots
)

type outbound struct {
	frameType v1alpha1.FrameType
	data      []byte
}

// connection is a middleman between the websocket connection and the hub
type connection struct {
	id     uuid.UUID
	ws     *websocket.Conn
	send   chan []byte
	hub    *Hub
	logger zerolog.Logger
}

// Hub broadcasts frames to every connected page. Pages that connect late
// receive the latest orientation, title, content and overlay frames.
type Hub struct {
	connections map[*connection]bool
	register    chan *connection
	unregister  chan *connection
	broadcast   chan outbound
	events      chan v1alpha1.MediaEvent
	done        chan struct{}

	// replay is owned by run
	replay [numSlots][]byte
	count  atomic.Int32

	logger zerolog.Logger
}

// NewHub creates a hub. Run must be called for it to deliver frames.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[*connection]bool),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		broadcast:   make(chan outbound),
		events:      make(chan v1alpha1.MediaEvent, eventsBuffer),
		done:        make(chan struct{}),
		logger:      logger.With().Str("component", "ws").Logger(),
	}
}

// Run delivers frames until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer func() {
		for c := range h.connections {
			delete(h.connections, c)
			close(c.send)
		}
		h.count.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.connections[c] = true
			h.count.Store(int32(len(h.connections)))
			for _, data := range h.replay {
				if data != nil {
					c.send <- data
				}
			}
			h.logger.Info().
				Str("conn", c.id.String()).
				Int("connections", len(h.connections)).
				Msg("page connected")
		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.send)
				h.count.Store(int32(len(h.connections)))
				h.logger.Info().
					Str("conn", c.id.String()).
					Int("connections", len(h.connections)).
					Msg("page disconnected")
			}
		case m := <-h.broadcast:
			h.remember(m)
			for c := range h.connections {
				select {
				case c.send <- m.data:
				default:
					h.logger.Warn().Str("conn", c.id.String()).Msg("send buffer full, dropping page")
					close(c.send)
					delete(h.connections, c)
				}
			}
			h.count.Store(int32(len(h.connections)))
		}
	}
}

func (h *Hub) remember(m outbound) {
	switch m.frameType {
	case v1alpha1.FrameOrientation:
		h.replay[slotOrientation] = m.data
	case v1alpha1.FrameTitle:
		h.replay[slotTitle] = m.data
	case v1alpha1.FrameTable, v1alpha1.FramePlaceholder, v1alpha1.FrameSetup:
		h.replay[slotContent] = m.data
	case v1alpha1.FrameOverlay:
		h.replay[slotOverlay] = m.data
	case v1alpha1.FrameHide:
		h.replay[slotOverlay] = nil
	}
}

// Show implements display.Sink
func (h *Hub) Show(ctx context.Context, frame v1alpha1.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	select {
	case h.broadcast <- outbound{frameType: frame.Type, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return fmt.Errorf("hub stopped")
	}
}

// MediaEvents implements display.MediaSource
func (h *Hub) MediaEvents() <-chan v1alpha1.MediaEvent {
	return h.events
}

// Connections returns the number of connected pages
func (h *Hub) Connections() int {
	return int(h.count.Load())
}

// ServeHTTP upgrades the request and attaches the page to the hub
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &connection{
		id:     uuid.New(),
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		hub:    h,
		logger: h.logger,
	}

	select {
	case h.register <- c:
	case <-h.done:
		ws.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

func (c *connection) cleanup() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
	if err := c.ws.Close(); err != nil {
		c.logger.Debug().Err(err).Str("conn", c.id.String()).Msg("error closing websocket connection")
	}
}

func (c *connection) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Str("conn", c.id.String()).Msg("failed to set read deadline")
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error().Err(err).Str("conn", c.id.String()).Msg("websocket read error")
			}
			return
		}

		var ev v1alpha1.MediaEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.logger.Warn().Err(err).Str("conn", c.id.String()).Msg("invalid media event")
			continue
		}
		if ev.Type != v1alpha1.MediaEnded && ev.Type != v1alpha1.MediaError {
			c.logger.Warn().Str("type", string(ev.Type)).Msg("unexpected message type")
			continue
		}

		// with several pages open the first report wins; later ones are stale
		select {
		case c.hub.events <- ev:
		default:
			c.logger.Warn().Int64("sequence", ev.Sequence).Msg("media event dropped")
		}
	}
}

func (c *connection) write(mt int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(mt, payload)
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.logger.Error().Err(err).Str("conn", c.id.String()).Msg("failed to write message")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte{}); err != nil {
				c.logger.Debug().Err(err).Str("conn", c.id.String()).Msg("failed to write ping")
				return
			}
		}
	}
}
