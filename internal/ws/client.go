package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tbourn/go-poem-bot/internal/chat"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size in bytes.
	maxMessageSize = 4096

	// Upper bound on one dispatched command.
	commandTimeout = 10 * time.Second

	maxNickLen = 64
)

// Dispatcher handles one chat command. *chat.Dispatcher satisfies it.
type Dispatcher interface {
	Handle(ctx context.Context, m chat.Message) ([]chat.Reply, error)
}

// inbound is what clients send: a raw chat line posted to a channel.
type inbound struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the HTTP CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one WebSocket connection acting as a chat user.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	nick string
}

// ServeWs upgrades the request, registers the client under the "nick" query
// parameter, and serves it until the connection closes. Commands are handled
// by d and the replies routed through hub.
func ServeWs(hub *Hub, d Dispatcher, w http.ResponseWriter, r *http.Request) {
	nick := strings.TrimSpace(r.URL.Query().Get("nick"))
	if nick == "" || len(nick) > maxNickLen || strings.ContainsAny(nick, " \t\r\n") {
		http.Error(w, "nick query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		hub.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	c := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), nick: nick}
	if !hub.join(c) {
		_ = conn.Close()
		return
	}

	go c.writePump()
	c.readPump(context.WithoutCancel(r.Context()), d)
}

// readPump dispatches inbound lines until the connection fails. Unknown and
// forbidden commands are dropped; there is no error channel back to chat.
func (c *Client) readPump(ctx context.Context, d Dispatcher) {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("nick", c.nick).Msg("ws read")
			}
			return
		}
		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.hub.log.Debug().Err(err).Str("nick", c.nick).Msg("ws malformed frame")
			continue
		}

		channel := strings.TrimSpace(in.Channel)
		if channel == "" {
			channel = c.nick
		}
		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		replies, err := d.Handle(cctx, chat.Message{User: c.nick, Nick: c.nick, Channel: channel, Text: in.Text})
		cancel()
		if err != nil {
			c.hub.log.Debug().Err(err).Str("nick", c.nick).Msg("ws command rejected")
			continue
		}
		c.hub.Deliver(replies)
	}
}

// writePump drains send to the connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
