package websocket

import (
	"context"
	"encoding/json"
	"photo-relay/internal/desktop"
	"photo-relay/internal/models"
	"photo-relay/internal/relay"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is one desktop pairing screen. It owns a desktop.View for as long as
// the connection lives.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	view *desktop.View

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, creator desktop.SessionCreator, feed relay.Feed) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	c.view = desktop.NewView(creator, feed, c.sendPhoto)
	return c
}

// Serve opens a session, then reads commands until the connection drops. The
// view is closed before Serve returns.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.hub.Register <- c
	go c.writePump()

	c.announce(c.view.Open(ctx))
	c.readPump(ctx)

	c.view.Close()
	c.hub.Unregister <- c
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("remote_addr", c.remoteAddr()).Msg("pairing connection dropped")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			log.Debug().Err(err).Msg("invalid pairing command")
			continue
		}

		switch cmd.Type {
		case TypeReset:
			c.announce(c.view.Reset(ctx))
		case TypeRetry:
			if c.view.State() == desktop.StateClosed {
				c.announce(c.view.Open(ctx))
			}
		default:
			log.Debug().Str("type", cmd.Type).Msg("unknown pairing command")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// announce tells the desktop the outcome of opening a session.
func (c *Client) announce(err error) {
	if err != nil {
		log.Error().Err(err).Str("remote_addr", c.remoteAddr()).Msg("failed to open pairing session")
		c.enqueue(Message{Type: TypeError, Error: "Could not create a pairing session"})
		return
	}
	session := c.view.Session()
	if session == nil {
		return
	}
	c.enqueue(Message{
		Type: TypeSession,
		Session: &SessionInfo{
			ID:         session.ID,
			Code:       session.Code,
			PairingURL: c.view.PairingURL(),
			ExpiresAt:  session.ExpiresAt,
		},
	})
}

func (c *Client) sendPhoto(photo models.Photo) {
	c.enqueue(Message{Type: TypePhoto, Photo: &photo})
}

func (c *Client) enqueue(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- mustMarshal(msg):
	default:
		log.Warn().Str("type", msg.Type).Str("remote_addr", c.remoteAddr()).Msg("pairing client send buffer is full, dropping message")
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) remoteAddr() string {
	return c.conn.RemoteAddr().String()
}
