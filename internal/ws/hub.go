// Package ws carries chat commands over WebSocket. Each connection is a chat
// client identified by a nick; inbound lines are dispatched as commands and
// the replies fan out through a single Hub goroutine.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-poem-bot/internal/chat"
)

// Frame is the outbound JSON envelope written to clients.
type Frame struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Private bool   `json:"private"`
	Text    string `json:"text"`
}

// Hub tracks connected clients and routes replies to them. All client-map
// mutations happen on the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan []chat.Reply
	done       chan struct{}

	count atomic.Int64
	log   zerolog.Logger
}

// NewHub returns a hub; call Run to start routing.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan []chat.Reply, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run routes registrations and replies until ctx is cancelled, then closes
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.log.Debug().Str("nick", c.nick).Msg("ws client connected")
		case c := <-h.unregister:
			h.drop(c)
		case replies := <-h.deliver:
			for _, r := range replies {
				h.route(r)
			}
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

// Deliver queues replies for routing. It is a no-op once Run has returned.
func (h *Hub) Deliver(replies []chat.Reply) {
	if len(replies) == 0 {
		return
	}
	select {
	case h.deliver <- replies:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// route sends public replies to everyone and private replies only to the
// clients connected as the target nick.
func (h *Hub) route(r chat.Reply) {
	msg, err := json.Marshal(Frame{Type: "reply", Channel: r.Target, Private: r.Private, Text: r.Text})
	if err != nil {
		h.log.Error().Err(err).Msg("encode ws frame")
		return
	}
	for c := range h.clients {
		if r.Private && c.nick != r.Target {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// Slow consumer: disconnect rather than block the hub.
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
	h.log.Debug().Str("nick", c.nick).Msg("ws client disconnected")
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
