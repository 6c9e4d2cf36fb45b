package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/chachabrian/hall-booking/internal/booking"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket subscriber watching a single booking date.
type Client struct {
	Date string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

// Hub tracks websocket subscribers per booking date and pushes booking
// events to the subscribers of the affected date.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for date, set := range h.clients {
				for client := range set {
					close(client.Send)
				}
				delete(h.clients, date)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			if h.clients[client.Date] == nil {
				h.clients[client.Date] = make(map[*Client]bool)
			}
			h.clients[client.Date][client] = true
			h.mutex.Unlock()
			h.log.Debug().Str("booking_date", client.Date).Msg("availability subscriber connected")

		case client := <-h.unregister:
			h.remove(client)
			h.log.Debug().Str("booking_date", client.Date).Msg("availability subscriber disconnected")
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set := h.clients[client.Date]
	if _, ok := set[client]; ok {
		delete(set, client)
		close(client.Send)
		if len(set) == 0 {
			delete(h.clients, client.Date)
		}
	}
}

// BroadcastToDate sends message to every subscriber of date. Subscribers
// whose buffer is full are dropped.
func (h *Hub) BroadcastToDate(date string, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	set := h.clients[date]
	for client := range set {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(set, client)
			h.log.Warn().Str("booking_date", date).Msg("dropping slow availability subscriber")
		}
	}
	if len(set) == 0 {
		delete(h.clients, date)
	}
}

// Subscribers returns the number of subscribers watching date.
func (h *Hub) Subscribers(date string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[date])
}

// WebSocketMessage is the envelope written to subscribers.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Publish implements booking.Publisher.
func (h *Hub) Publish(_ context.Context, ev booking.Event) error {
	data, err := json.Marshal(WebSocketMessage{Type: ev.Type, Data: ev})
	if err != nil {
		return err
	}
	h.BroadcastToDate(ev.BookingDate, data)
	return nil
}

// HandleWebSocket upgrades the request and subscribes the connection to date.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, date string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	client := &Client{
		Date: date,
		Conn: conn,
		Send: make(chan []byte, 64),
		Hub:  hub,
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for the connection closing; subscribers never send
// anything meaningful.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debug().Err(err).Msg("websocket read")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.log.Debug().Err(err).Msg("websocket write")
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
