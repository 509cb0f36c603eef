package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellhub/internal/querycache"
)

func TestTCPSubscriberReceivesCacheEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewServer(ln.Addr().String(), hub)
	go func() { _ = srv.Serve(ln) }()
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(conn)

	welcome, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, welcome, `"type":"welcome"`)
	require.Eventually(t, func() bool { return hub.Stats().TCPClients == 1 }, time.Second, 5*time.Millisecond)

	cache := querycache.New()
	detach := Attach(cache, hub)
	defer detach()

	key := querycache.Key{ID: "datasetIndex", Entities: []string{"dataset"}}
	_, err = cache.Fetch(ctx, key, func(context.Context) (any, error) { return nil, errors.New("upstream 503") })
	require.Error(t, err)

	var got []CacheEvent
	for len(got) < 2 {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		var ev CacheEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		got = append(got, ev)
	}
	assert.Equal(t, "cache.pending", got[0].Type)
	assert.Equal(t, "cache.failed", got[1].Type)
	assert.Equal(t, "dataset/datasetIndex", got[1].Key)
	assert.Equal(t, "upstream 503", got[1].Error)
}

func TestWebSocketSubscriber(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "websocket")

	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, time.Second, 5*time.Millisecond)
	hub.BroadcastJSON(CacheEvent{Type: "cache.invalidated", Key: "collection/collectionsIndex"})

	_, msg, err = ws.ReadMessage()
	require.NoError(t, err)
	var ev CacheEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "cache.invalidated", ev.Type)
}

func TestPublishDropsWhenFull(t *testing.T) {
	hub := NewHub()
	for i := 0; i < publishBuffer+3; i++ {
		hub.Publish(CacheEvent{Type: "cache.pending"})
	}
	assert.Equal(t, uint64(3), hub.Stats().Dropped)
}
