package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cuckoo-backend/internal/bot"
	"cuckoo-backend/internal/quiz"
)

// The web quiz and the Telegram bot share the machine, so the same marks
// must produce the same score on both, even when every mark is sent twice.
func TestWebAndBotAgreeOnScore(t *testing.T) {
	sequences := [][]bool{
		{true, true, true, true},
		{false, false, false, false},
		{true, false, true, false},
		{false, true, true, true},
	}

	for _, marks := range sequences {
		app := newTestApp(t, sampleQuestions(len(marks))...)
		h := app.router(nil)

		// web
		serve(h, quizRequest(http.MethodPost, "/quiz/begin", nil))
		for i, answered := range marks {
			mark := "not_answered"
			if answered {
				mark = "answered"
			}
			serve(h, quizRequest(http.MethodPost, "/quiz/mark/"+itoa(int64(i)), url.Values{"mark": {mark}}))
			serve(h, quizRequest(http.MethodPost, "/quiz/mark/"+itoa(int64(i)), url.Values{"mark": {"answered"}}))
		}
		rr := serve(h, quizRequest(http.MethodGet, "/quiz/finish", nil))
		webBody := rr.Body.String()

		// bot, reading questions through the same API
		srv := httptest.NewServer(h)
		tgQuiz := bot.NewQuiz(quiz.NewMachine(quiz.NewMemoryStore()), bot.NewClient(srv.URL, time.Second))
		ctx := context.Background()
		tgQuiz.Begin(ctx, 42)
		var last bot.Reply
		for i, answered := range marks {
			reply := tgQuiz.Mark(ctx, 42, i, answered)
			tgQuiz.Mark(ctx, 42, i, true)
			if i == len(marks)-1 {
				last = reply
			}
		}
		srv.Close()

		correct := 0
		for _, answered := range marks {
			if answered {
				correct++
			}
		}
		score := "You knew " + itoa(int64(correct)) + " of " + itoa(int64(len(marks)))
		if !strings.Contains(webBody, score) {
			t.Errorf("marks %v: web page missing %q", marks, score)
		}
		if !strings.Contains(last.Text, score) {
			t.Errorf("marks %v: bot said %q, want %q", marks, last.Text, score)
		}
	}
}
