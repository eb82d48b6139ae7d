package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"f1racetelemetry/pkg/model"
	"f1racetelemetry/pkg/racestate"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFeed serves the given messages to every websocket client, then keeps
// the connection open until the client goes away.
func mockFeed(t *testing.T, messages []model.Message) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteJSON(m); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type recordingHandler struct {
	mu       sync.Mutex
	received []string
}

func (r *recordingHandler) Handle(m model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, m.MessageType)
	return nil
}

func (r *recordingHandler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

func TestClientAppliesFeed(t *testing.T) {
	state := racestate.New()
	feed := mockFeed(t, []model.Message{
		message(t, model.MtGlobals, model.GlobalsMessage{Circuit: "Zandvoort", TotalLaps: 72}),
		message(t, model.MtNumCars, model.NumCarsMessage{NumCars: 1}),
		message(t, model.MtDriverUpdate, model.DriverUpdateMessage{
			Index: 0,
			Data:  racestate.DriverRecord{Position: racestate.Ptr(1), IsPlayer: racestate.Ptr(true), CurrentLap: racestate.Ptr(4)},
		}),
	})

	c := NewClient(wsURL(feed), 10*time.Millisecond, NewHandler(state, discardLogger()), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		g := state.Globals(0)
		return g.PlayerCurrentLap != nil && *g.PlayerCurrentLap == 4
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Zandvoort", state.Globals(0).Circuit)
	connected, receiving := c.Connected()
	assert.True(t, connected)
	assert.True(t, receiving)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
	connected, _ = c.Connected()
	assert.False(t, connected)
}

func TestClientReconnects(t *testing.T) {
	var connections int
	var mu sync.Mutex
	upgrader := websocket.Upgrader{}
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		connections++
		mu.Unlock()
		_ = conn.WriteJSON(model.Message{MessageType: model.MtSessionRestart})
		conn.Close()
	}))
	defer feed.Close()

	h := &recordingHandler{}
	c := NewClient(wsURL(feed), 5*time.Millisecond, h, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	require.Eventually(t, func() bool { return h.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.GreaterOrEqual(t, connections, 3)
	mu.Unlock()
}

func TestClientStopsWhileFeedIsDown(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/telemetry", time.Hour, &recordingHandler{}, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}
