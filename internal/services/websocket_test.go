package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/hall-booking/internal/booking"
)

func dialDate(t *testing.T, srv *httptest.Server, date string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?date=" + date
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubDeliversEventsPerDate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleWebSocket(hub, w, r, r.URL.Query().Get("date"))
	}))
	defer srv.Close()

	june1 := dialDate(t, srv, "2025-06-01")
	june2 := dialDate(t, srv, "2025-06-02")
	require.Eventually(t, func() bool {
		return hub.Subscribers("2025-06-01") == 1 && hub.Subscribers("2025-06-02") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(ctx, booking.Event{
		Type:        booking.EventAllocated,
		BookingID:   7,
		BookingDate: "2025-06-01",
		Hours:       []int{14, 15},
	}))

	_ = june1.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := june1.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string        `json:"type"`
		Data booking.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, booking.EventAllocated, msg.Type)
	assert.Equal(t, uint(7), msg.Data.BookingID)
	assert.Equal(t, []int{14, 15}, msg.Data.Hours)

	_ = june2.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = june2.ReadMessage()
	assert.Error(t, err)
}

func TestHubForgetsClosedClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleWebSocket(hub, w, r, r.URL.Query().Get("date"))
	}))
	defer srv.Close()

	conn := dialDate(t, srv, "2025-06-01")
	require.Eventually(t, func() bool { return hub.Subscribers("2025-06-01") == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers("2025-06-01") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	assert.NoError(t, hub.Publish(context.Background(), booking.Event{Type: booking.EventReclaimed, BookingDate: "2025-06-01"}))
}
