package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- Глобальные переменные и константы ---

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Для разработки разрешаем все источники
	},
}

// GlobalHub - единственный экземпляр хаба для всего приложения
var GlobalHub = NewHub()

// --- Структуры ---

// Event - кадр, уходящий клиенту по websocket.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// Hub раздает события rdv-каналов подключенным пользователям.
// Сообщения рождаются на стороне сервера (таймлайн, закрытие канала),
// клиентских входящих кадров хаб не ждет - readPump нужен только для
// обнаружения отключения.
type Hub struct {
	clients    map[uint]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

// --- Методы Хаба ---

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint]*Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("Client registered", "userID", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "userID", client.userID)
		}
	}
}

// Push отправляет событие конкретному пользователю, если он онлайн.
// Оффлайн-пользователь просто пропускает событие: история канала
// хранится в БД и отдается при следующем чтении.
func (h *Hub) Push(userID uint, event Event) {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event for push", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[userID]; ok {
		select {
		case client.send <- messageBytes:
		default:
			close(client.send)
			delete(h.clients, userID)
		}
	}
}

// --- Методы Клиента и WebSocket Endpoint ---

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Unexpected websocket close error", "error", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			slog.Error("Failed to write message to websocket", "error", err)
			return
		}
	}
}

// ChannelWSEndpoint подключает пользователя к хабу rdv-каналов.
func ChannelWSEndpoint(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	client := &Client{
		hub:    GlobalHub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID.(uint),
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// channelEventPayload - полезная нагрузка кадров о сообщениях канала.
type channelEventPayload struct {
	ChannelID uint   `json:"channel_id"`
	Content   string `json:"content,omitempty"`
	Pinned    bool   `json:"pinned,omitempty"`
	Rebook    bool   `json:"rebook_enabled,omitempty"`
}
