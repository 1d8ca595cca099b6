package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"doctorsportal/models"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const (
	writeWait   = 5 * time.Second
	updateQueue = 64
)

// Hub pushes availability updates to websocket clients watching a date.
type Hub struct {
	upgrader    websocket.Upgrader
	mu          sync.Mutex
	subscribers map[string][]*websocket.Conn
	updates     chan string
}

// NewHub accepts upgrades from any origin. CORS for the REST routes is
// handled separately.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscribers: make(map[string][]*websocket.Conn),
		updates:     make(chan string, updateQueue),
	}
}

type updateMessage struct {
	Type string `json:"type"`
	Date string `json:"date"`
}

// HandleWS serves GET /ws/appointmentOptions?date=.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date := r.URL.Query().Get("date")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.subscribers[date] = append(h.subscribers[date], conn)
	h.mu.Unlock()

	for {
		// Keeps the connection open until the client goes away.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(date, conn)
	conn.Close()
}

func (h *Hub) remove(date string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[date]
	kept := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(h.subscribers, date)
		return
	}
	h.subscribers[date] = kept
}

// Subscribers reports how many clients watch date.
func (h *Hub) Subscribers(date string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[date])
}

// Notify queues a refresh for everyone watching the event's date. It never
// blocks; when the queue is full the update is dropped.
func (h *Hub) Notify(evt models.BookingEvent) {
	select {
	case h.updates <- evt.AppointmentDate:
	default:
		log.Warn().Str("date", evt.AppointmentDate).Msg("websocket update queue full, dropping update")
	}
}

func (h *Hub) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case date := <-h.updates:
			data, err := json.Marshal(updateMessage{Type: "update", Date: date})
			if err != nil {
				continue
			}
			h.broadcast(date, data)
		}
	}
}

func (h *Hub) broadcast(date string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[date]
	if len(conns) == 0 {
		return
	}
	kept := conns[:0]
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			continue
		}
		kept = append(kept, conn)
	}
	h.subscribers[date] = kept
}

// Listener is the subscribing half of the event bus.
type Listener interface {
	Listen(ctx context.Context, fn func(models.BookingEvent)) error
}

// Run forwards bus events to websocket clients until ctx is done.
func (h *Hub) Run(ctx context.Context, bus Listener) {
	go h.pump(ctx)
	if err := bus.Listen(ctx, h.Notify); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("booking event listener stopped")
	}
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for date, conns := range h.subscribers {
		for _, c := range conns {
			c.Close()
		}
		delete(h.subscribers, date)
	}
}
