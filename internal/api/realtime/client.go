package realtime

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Clients only send control frames.
	maxMessageSize = 4 * 1024
)

// Send pings to peer with this period. Must be less than pongWait.
var pingPeriod = (pongWait * 9) / 10

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan BaseMessage
}

// readPump drains the connection so control frames are processed, and
// unregisters the client when the peer goes away.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Websocket connection closed", "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection. It is
// the only writer on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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

func checkAllowedOrigin(origin string, reqHost string, cfg Config) error {
	if origin == "" {
		return nil
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return errors.New("origin not allowed")
	}

	originHost := strings.Split(parsed.Host, ":")[0]
	reqHostPart := strings.Split(reqHost, ":")[0]
	if strings.EqualFold(originHost, reqHostPart) {
		return nil
	}

	if cfg.AllowDevOrigin {
		if originHost == "localhost" || originHost == "127.0.0.1" {
			return nil
		}
	}

	trimmedOrigin := strings.TrimRight(origin, "/")
	for _, allowed := range cfg.AllowedOrigins {
		if allowed == "*" {
			return nil
		}
		if allowed != "" && strings.EqualFold(strings.TrimRight(allowed, "/"), trimmedOrigin) {
			return nil
		}
	}

	return errors.New("origin not allowed")
}

// ServeWs upgrades the request and attaches the connection to hub.
func ServeWs(hub *Hub, cfg Config, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return checkAllowedOrigin(r.Header.Get("Origin"), r.Host, cfg) == nil
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Debug("Websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan BaseMessage, 64),
	}
	if !hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
