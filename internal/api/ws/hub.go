package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/your-org/liftlog/internal/observability"
	"github.com/your-org/liftlog/internal/queue"
	"github.com/your-org/liftlog/pkg/dto"
)

const EventPersonalBest = "personal_best"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a connected WebSocket client.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	sex  string // optional filter
}

type message struct {
	sex  string
	data []byte
}

// Hub maintains active WebSocket clients and fans out leaderboard events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub event loop until ctx is done. Call this in a goroutine.
// The client map is only touched from this loop.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			observability.WSConnections.Inc()
			slog.Debug("ws client connected", "sex", client.sex)

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				slog.Debug("ws client disconnected")
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.sex != "" && client.sex != msg.sex {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// slow client
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	observability.WSConnections.Dec()
}

// BroadcastPersonalBest sends a personal best to every matching client.
// It never blocks the caller; events are dropped when the hub is backed up.
func (h *Hub) BroadcastPersonalBest(evt queue.PersonalBest) {
	data, err := json.Marshal(dto.WSEvent{Type: EventPersonalBest, Sex: evt.Sex, Data: evt})
	if err != nil {
		slog.Error("marshal ws event", "error", err)
		return
	}
	select {
	case h.broadcast <- message{sex: evt.Sex, data: data}:
	default:
		slog.Warn("ws broadcast buffer full, dropping event", "uid", evt.UID)
	}
}

// HandleWS handles WebSocket upgrade requests. ?sex=M|F limits the feed.
func (h *Hub) HandleWS(c *gin.Context) {
	sex := strings.ToUpper(c.Query("sex"))
	if sex == "ALL" {
		sex = ""
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		sex:  sex,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		// Incoming messages are ignored; reading detects disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
