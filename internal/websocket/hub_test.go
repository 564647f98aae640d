package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-case-records/internal/event"
)

func TestHub_BroadcastsBusEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := event.NewBus()
	hub := NewHub(bus)
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, "u-1")
		if !hub.Register(r.Context(), client) {
			conn.Close()
			return
		}
		go client.WritePump()
		client.ReadPump()
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan event.Event, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var e event.Event
		if json.Unmarshal(data, &e) == nil {
			received <- e
		}
	}()

	// Registration races with the dial returning, so publish until delivered.
	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case e := <-received:
			assert.Equal(t, event.TypeFileRestored, e.Type)
			assert.Equal(t, "womenchildren", e.Payload.Kind)
			return
		case <-ticker.C:
			bus.Publish(event.New(event.TypeFileRestored, "u-2", event.Change{Kind: "womenchildren", ID: 4}))
		case <-deadline:
			t.Fatal("no event pushed to websocket client")
		}
	}
}

func TestHub_RegisterAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(event.NewBus())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	assert.False(t, hub.Register(context.Background(), &Client{hub: hub, send: make(chan []byte, 1)}))
}
