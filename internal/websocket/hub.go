package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"cuckoo-backend/internal/models"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// CommentMessage is what viewers of a question page receive.
type CommentMessage struct {
	Type    string          `json:"type"`
	Comment *models.Comment `json:"comment"`
}

func commentChannel(questionID int64) string {
	return "question_comments:" + strconv.FormatInt(questionID, 10)
}

// Hub pushes new comments to everyone viewing a question. With a Redis
// client every server instance receives comments through pub/sub; without
// one, PublishComment delivers to local connections directly.
type Hub struct {
	mu          sync.RWMutex
	connections map[int64][]*websocket.Conn
	redisClient *redis.Client
	cancelFuncs map[int64]context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		connections: make(map[int64][]*websocket.Conn),
		redisClient: redisClient,
		cancelFuncs: make(map[int64]context.CancelFunc),
	}
}

// HandleWebSocket serves GET /ws/questions/{id}. Viewing is public.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || questionID <= 0 {
		http.Error(w, "Invalid question id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(questionID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(questionID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// PublishComment implements services.CommentPublisher.
func (h *Hub) PublishComment(ctx context.Context, c *models.Comment) error {
	data, err := json.Marshal(CommentMessage{Type: "comment", Comment: c})
	if err != nil {
		return err
	}
	if h.redisClient == nil {
		h.broadcast(c.QuestionID, data)
		return nil
	}
	return h.redisClient.Publish(ctx, commentChannel(c.QuestionID), data).Err()
}

// Viewers reports how many sockets are open for a question.
func (h *Hub) Viewers(questionID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[questionID])
}

func (h *Hub) registerConnection(questionID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[questionID] = append(h.connections[questionID], conn)

	// Start pub/sub subscription if this is the first viewer of this question
	if len(h.connections[questionID]) == 1 && h.redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[questionID] = cancel
		go h.subscribeToPubSub(ctx, questionID)
	}

	log.Printf("WebSocket connected: question %d (viewers: %d)", questionID, len(h.connections[questionID]))
}

func (h *Hub) unregisterConnection(questionID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[questionID]
	for i, c := range conns {
		if c == conn {
			h.connections[questionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more viewers, cancel pub/sub
	if len(h.connections[questionID]) == 0 {
		delete(h.connections, questionID)
		if cancel, ok := h.cancelFuncs[questionID]; ok {
			cancel()
			delete(h.cancelFuncs, questionID)
		}
	}

	log.Printf("WebSocket disconnected: question %d", questionID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, questionID int64) {
	pubsub := h.redisClient.Subscribe(ctx, commentChannel(questionID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(questionID, []byte(msg.Payload))
		}
	}
}

// broadcast holds the write lock so no two goroutines write to one conn.
func (h *Hub) broadcast(questionID int64, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conn := range h.connections[questionID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WebSocket write failed: question %d: %v", questionID, err)
		}
	}
}

// Close drops every connection and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conns := range h.connections {
		for _, c := range conns {
			c.Close()
		}
		delete(h.connections, id)
	}
	for id, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, id)
	}
}
