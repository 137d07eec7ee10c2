package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"cuckoo-backend/internal/models"
)

func TestCommentChannel(t *testing.T) {
	if got := commentChannel(42); got != "question_comments:42" {
		t.Errorf("commentChannel(42) = %q", got)
	}
}

func TestHub_LocalDelivery(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	r := chi.NewRouter()
	r.Get("/ws/questions/{id}", hub.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/questions/7"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// registration happens after the upgrade returns on the server side
	deadline := time.Now().Add(2 * time.Second)
	for hub.Viewers(7) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	c := &models.Comment{ID: 1, Text: "hello", QuestionID: 7, Username: "alice"}
	if err := hub.PublishComment(context.Background(), c); err != nil {
		t.Fatalf("PublishComment: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg CommentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "comment" || msg.Comment.Text != "hello" || msg.Comment.Username != "alice" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestHub_RejectsBadID(t *testing.T) {
	hub := NewHub(nil)
	r := chi.NewRouter()
	r.Get("/ws/questions/{id}", hub.HandleWebSocket)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/ws/questions/abc", nil))
	if rr.Code != 400 {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
