package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/vinayak-88/LoviNova/internal/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	workerPoolSize     = 16                     // number of workers to process inbound events
	sendTimeout        = 2 * time.Second        // timeout for enqueuing outbound events
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is one live websocket connection. The user identity is unknown until
// the client announces; until then the connection can only be dropped.
type Client struct {
	ID   string
	conn *websocket.Conn
	hub  *Hub

	egress chan event.Envelope

	userMu sync.RWMutex
	userID string

	// cancel or stop goroutine
	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
	closedMu       sync.RWMutex
}

// RegisterClient creates a new client for a freshly upgraded connection and
// starts its read/write pumps.
func RegisterClient(conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	clientID := uuid.New().String()

	client := &Client{
		ID:             clientID,
		conn:           conn,
		hub:            h,
		egress:         make(chan event.Envelope, sendBufSize),
		cancel:         cancel,
		ctx:            ctx,
		once:           sync.Once{},
		connClosed:     make(chan struct{}),
		connClosedOnce: sync.Once{},
	}

	select {
	case h.register <- client:
		go client.ReadMessages()
		go client.WriteMessages()
		h.logger.Debug("client connected", zap.String("client_id", clientID))
		return client
	case <-time.After(registerTimeout):
		h.logger.Warn("failed to register client: timeout", zap.String("client_id", clientID))
		cancel()
		conn.Close()
		return nil
	}
}

// UserID returns the announced identity, or "" before the announce.
func (c *Client) UserID() string {
	c.userMu.RLock()
	defer c.userMu.RUnlock()
	return c.userID
}

func (c *Client) setUserID(userID string) {
	c.userMu.Lock()
	defer c.userMu.Unlock()
	c.userID = userID
}

func (c *Client) ReadMessages() {
	defer func() {
		select {
		case c.hub.unregister <- c:
			// unregistered successfully
		case <-time.After(unregisterTimeout):
			c.hub.logger.Warn("failed to unregister client: timeout", zap.String("client_id", c.ID))
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.Envelope

			if err := c.conn.ReadJSON(&ev); err != nil {

				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.hub.logger.Debug("client disconnected", zap.String("client_id", c.ID))
					return
				}

				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseInternalServerErr,
					websocket.CloseProtocolError,
				) {
					c.hub.logger.Warn("unexpected close", zap.String("client_id", c.ID), zap.Error(err))
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.hub.logger.Debug("client timed out, closing connection", zap.String("client_id", c.ID))
					return
				}

				c.hub.logger.Warn("error reading from client", zap.String("client_id", c.ID), zap.Error(err))
				return
			}

			// Non-blocking send into inbound processing queue to avoid blocking reader
			select {
			case c.hub.inbound <- inboundMessage{client: c, event: ev}:
				// accepted for processing
			case <-time.After(inboundSendTimeout):
				c.hub.logger.Warn("inbound send timeout, dropping client", zap.String("client_id", c.ID))
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
				c.hub.logger.Debug("connection closed", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		case ev := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.hub.logger.Warn("write error", zap.String("client_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.hub.logger.Debug("ping error", zap.String("client_id", c.ID), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// Deliver attempts to enqueue an event for this connection. Returns false
// when the client is closed or its egress buffer stays full past the send
// timeout; the event is then dropped.
func (c *Client) Deliver(ev event.Envelope) bool {
	if c.IsClosed() {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(sendTimeout):
		return false
	}
}

// Close tears the client down. The egress channel is never closed: a
// concurrent Deliver may still be selecting on it, and an enqueue after
// shutdown is just a dropped push. Shutdown is signalled through ctx alone.
func (c *Client) Close() {
	c.once.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		c.cancel()

		// Wait for WriteMessages to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
				// WriteMessages closed it properly
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
			}
		}()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}
