package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vinayak-88/LoviNova/internal/event"
	"github.com/vinayak-88/LoviNova/internal/presence"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// dialTestClient upgrades a real websocket against h and hands back both the
// server-side Client and the dialer-side conn.
func dialTestClient(t *testing.T, h *Hub) (*Client, *websocket.Conn) {
	t.Helper()

	registered := make(chan *Client, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		registered <- RegisterClient(conn, h)
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	select {
	case c := <-registered:
		require.NotNil(t, c)
		return c, ws
	case <-time.After(2 * time.Second):
		t.Fatal("client never registered")
		return nil, nil
	}
}

func TestDeliver_RacesCloseWithoutPanic(t *testing.T) {
	h, _ := newTestHub(t)
	c, _ := dialTestClient(t, h)

	ev, err := event.NewEnvelope(event.EventMessageDelivered, event.MessageDeliveredPayload{
		SenderID:   "alice",
		ReceiverID: "bob",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 500; j++ {
				c.Deliver(ev)
			}
		}()
	}
	close(start)
	c.Close()
	wg.Wait()

	assert.True(t, c.IsClosed())
	assert.False(t, c.Deliver(ev), "push after close is dropped")
}

func TestStop_WhileClientStreamsInbound(t *testing.T) {
	registry := presence.NewRegistry()
	h := NewHub(registry, "http://localhost:5173", zap.NewNop())
	_, ws := dialTestClient(t, h)

	ev, err := event.NewEnvelope(event.EventAnnounce, event.AnnouncePayload{UserID: "alice"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if err := ws.WriteJSON(ev); err != nil {
				return
			}
		}
	}()

	h.Stop()
	<-done
}
