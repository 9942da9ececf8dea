package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Connection timing for view sockets. Views never send payloads, so inbound
// frames are only pongs and close frames.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
	queueSize      = 256
)

// Client is one connected view. Events are queued and written by a single
// goroutine; a view that falls a full queue behind is disconnected and is
// expected to reconnect and re-read the cache.
type Client struct {
	id      string
	subject string
	conn    *websocket.Conn
	hub     *Hub

	queue chan []byte
	done  chan struct{}
	once  sync.Once
}

// NewClient wraps an upgraded connection. subject is the authenticated user
// or "local" when auth is off.
func NewClient(conn *websocket.Conn, subject string, hub *Hub) *Client {
	return &Client{
		id:      uuid.New().String(),
		subject: subject,
		conn:    conn,
		hub:     hub,
		queue:   make(chan []byte, queueSize),
		done:    make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Subject() string { return c.subject }

// Send queues an event without blocking the hub
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.queue <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		log.Warn().Str("client_id", c.id).Msg("View too slow, disconnecting")
		go c.Close()
		return ErrClientClosed
	}
}

// Close stops the writer and drops the connection. Safe to call repeatedly.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// IsClosed reports whether Close has run
func (c *Client) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Serve runs the connection until either side closes it. The writer runs on
// its own goroutine; Serve returns when the read side ends.
func (c *Client) Serve() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client_id", c.id).Msg("View socket closed unexpectedly")
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Warn().Err(err).Str("client_id", c.id).Msg("View socket write failed")
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
