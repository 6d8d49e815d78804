package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/vinayak-88/LoviNova/internal/event"
	"github.com/vinayak-88/LoviNova/internal/model"
	"github.com/vinayak-88/LoviNova/internal/presence"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type inboundMessage struct {
	event  event.Envelope
	client *Client
}

// Hub owns every live websocket client and the presence registry bindings.
// It never persists anything: delivery is at-most-once, and a missed push is
// recovered by the peer's next fetch from the durable stores.
type Hub struct {
	presence   *presence.Registry
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	clientsMu sync.RWMutex
	clients   map[string]*Client

	upgrader websocket.Upgrader
	logger   *zap.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(registry *presence.Registry, allowedOrigin string, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		presence:   registry,
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		clients:    make(map[string]*Client),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-h.inbound:
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

func (h *Hub) handleEvent(ev event.Envelope, c *Client) {
	switch ev.Event {
	case event.EventAnnounce:
		var announce event.AnnouncePayload
		if err := json.Unmarshal(ev.Payload, &announce); err != nil {
			h.logger.Warn("failed to unmarshal announce", zap.String("client_id", c.ID), zap.Error(err))
			return
		}
		if announce.UserID == "" {
			h.logger.Warn("announce without user id", zap.String("client_id", c.ID))
			return
		}

		c.setUserID(announce.UserID)
		h.presence.Announce(announce.UserID, c)
		h.logger.Info("user announced",
			zap.String("client_id", c.ID),
			zap.String("user_id", announce.UserID),
		)
	default:
		h.logger.Warn("unknown event type", zap.String("event", ev.Event), zap.String("client_id", c.ID))
	}
}

// MessageDelivered pushes a freshly persisted message to whichever of the two
// parties currently has a live connection. The sender gets it too, so another
// open tab of theirs sees its own sent message.
func (h *Hub) MessageDelivered(senderID, receiverID string, msg *model.Message) {
	ev, err := event.NewEnvelope(event.EventMessageDelivered, event.MessageDeliveredPayload{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    *msg,
	})
	if err != nil {
		h.logger.Error("failed to build message_delivered event", zap.Error(err))
		return
	}

	for _, userID := range []string{senderID, receiverID} {
		conn, ok := h.presence.Lookup(userID)
		if !ok {
			continue
		}
		if !conn.Deliver(ev) {
			h.logger.Debug("message_delivered push dropped", zap.String("user_id", userID))
		}
	}
}

// ReadReceipt notifies targetUserID that their messages in the conversation
// were just read.
func (h *Hub) ReadReceipt(conversationID, targetUserID string) {
	ev, err := event.NewEnvelope(event.EventReadReceipt, event.ReadReceiptPayload{
		ConversationID: conversationID,
	})
	if err != nil {
		h.logger.Error("failed to build read_receipt event", zap.Error(err))
		return
	}

	conn, ok := h.presence.Lookup(targetUserID)
	if !ok {
		return
	}
	if !conn.Deliver(ev) {
		h.logger.Debug("read_receipt push dropped", zap.String("user_id", targetUserID))
	}
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c.ID] = c
	h.logger.Debug("client registered", zap.String("client_id", c.ID))
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	if _, exists := h.clients[c.ID]; exists {
		delete(h.clients, c.ID)
	}
	h.clientsMu.Unlock()

	// Sweeps out every presence entry still pointing at this connection.
	h.presence.Remove(c)
	c.Close()
	h.logger.Debug("client removed", zap.String("client_id", c.ID), zap.String("user_id", c.UserID()))
}

// Stop shuts the hub down. The inbound channel is left open so a reader
// goroutine racing the shutdown never sends on a closed channel; workers
// exit on ctx instead.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.RLock()
	for _, client := range h.clients {
		client.Close()
	}
	h.clientsMu.RUnlock()

	h.wg.Wait()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(conn, h)
}
