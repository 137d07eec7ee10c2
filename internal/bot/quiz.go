// Package bot is the Telegram front-end of the quiz. Quiz holds the
// conversation logic and returns Reply values; telegram.go adapts them to
// telebot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"

	"cuckoo-backend/internal/models"
	"cuckoo-backend/internal/quiz"
)

// Callback ids of the inline buttons.
const (
	BtnStartQuiz = "start_quiz"
	BtnRestart   = "restart"
	BtnKnow      = "know"
	BtnDontKnow  = "dont_know"
	BtnAnswered  = "answered"
	BtnReview    = "review"
	BtnNext      = "next"
)

// Button is an inline button. Data carries the quiz position the button
// was sent for, so a press on an old message can be told apart.
type Button struct {
	Unique string
	Text   string
	Data   string
}

// Reply is one outgoing message. Text is HTML.
type Reply struct {
	Text    string
	Buttons []Button
}

// QuestionSource is implemented by Client.
type QuestionSource interface {
	ListQuestions(ctx context.Context) ([]*models.Question, error)
	Question(ctx context.Context, id int64) (*models.Question, error)
	RandomQuestion(ctx context.Context) (*models.Question, error)
}

type Quiz struct {
	machine *quiz.Machine
	api     QuestionSource
}

func NewQuiz(machine *quiz.Machine, api QuestionSource) *Quiz {
	return &Quiz{machine: machine, api: api}
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

var (
	startButton   = Button{Unique: BtnStartQuiz, Text: "Start quiz"}
	restartButton = Button{Unique: BtnRestart, Text: "Play again"}
	retryButton   = Button{Unique: BtnNext, Text: "Try again"}
)

func revealButtons(index int) []Button {
	n := strconv.Itoa(index)
	return []Button{{Unique: BtnKnow, Text: "I know", Data: n}, {Unique: BtnDontKnow, Text: "I don't know", Data: n}}
}

func markButtons(index int) []Button {
	n := strconv.Itoa(index)
	return []Button{{Unique: BtnAnswered, Text: "Got it right", Data: n}, {Unique: BtnReview, Text: "Need to review", Data: n}}
}

const apology = "Could not reach the question server 😥 Please try again."

func (q *Quiz) Start() Reply {
	return Reply{
		Text:    "Hi! Send /question for a random question, or start a quiz.",
		Buttons: []Button{startButton},
	}
}

// Random answers /question with one question and its answer.
func (q *Quiz) Random(ctx context.Context) Reply {
	question, err := q.api.RandomQuestion(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reply{Text: "There are no questions yet."}
		}
		log.Printf("bot: random question: %v", err)
		return Reply{Text: apology}
	}
	return Reply{Text: fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(question.Title), html.EscapeString(question.Text))}
}

// Begin starts (or restarts) the chat's quiz. A failed fetch leaves any
// running session as it was.
func (q *Quiz) Begin(ctx context.Context, chatID int64) Reply {
	questions, err := q.api.ListQuestions(ctx)
	if err != nil {
		log.Printf("bot: list questions: %v", err)
		return Reply{Text: apology, Buttons: []Button{startButton}}
	}

	ids := make([]quiz.QuestionID, len(questions))
	titles := make(map[quiz.QuestionID]*models.Question, len(questions))
	for i, question := range questions {
		ids[i] = quiz.QuestionID(question.ID)
		titles[ids[i]] = question
	}

	key := chatKey(chatID)
	s, err := q.machine.Begin(ctx, key, ids)
	if err != nil {
		log.Printf("bot: begin: %v", err)
		return Reply{Text: apology, Buttons: []Button{startButton}}
	}
	if s.Total() == 0 {
		if err := q.machine.Reset(ctx, key); err != nil {
			log.Printf("bot: quiz reset: %v", err)
		}
		return Reply{Text: "There are no questions yet, so there is nothing to quiz you on."}
	}

	id, _ := s.Current()
	return questionReply(s.Index, s.Total(), titles[id])
}

// Show re-sends the current question; used after a failed fetch.
func (q *Quiz) Show(ctx context.Context, chatID int64) Reply {
	state, s, err := q.machine.Status(ctx, chatKey(chatID))
	if err != nil {
		log.Printf("bot: status: %v", err)
		return Reply{Text: apology, Buttons: []Button{retryButton}}
	}
	if reply, stale := staleReply(state); stale {
		return reply
	}

	id, _ := s.Current()
	question, err := q.api.Question(ctx, int64(id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("bot: question %d: %v", id, err)
		return Reply{Text: apology, Buttons: []Button{retryButton}}
	}
	return questionReply(s.Index, s.Total(), question)
}

// Reveal handles know / dont_know pressed on question index: it shows the
// answer without touching the counters. A press for any other position
// re-sends the current question.
func (q *Quiz) Reveal(ctx context.Context, chatID int64, index int) Reply {
	key := chatKey(chatID)
	state, _, err := q.machine.Status(ctx, key)
	if err != nil {
		log.Printf("bot: status: %v", err)
		return Reply{Text: apology, Buttons: revealButtons(index)}
	}
	if reply, stale := staleReply(state); stale {
		return reply
	}

	id, err := q.machine.Step(ctx, key, index)
	if errors.Is(err, quiz.ErrOutOfRange) {
		return q.Show(ctx, chatID)
	}
	if err != nil {
		log.Printf("bot: step %d: %v", index, err)
		return Reply{Text: "Something went wrong with this quiz.", Buttons: []Button{restartButton}}
	}

	question, err := q.api.Question(ctx, int64(id))
	switch {
	case errors.Is(err, ErrNotFound):
		return Reply{Text: "This question was removed. Mark it either way to move on.", Buttons: markButtons(index)}
	case err != nil:
		log.Printf("bot: question %d: %v", id, err)
		return Reply{Text: apology, Buttons: revealButtons(index)}
	}

	return Reply{
		Text:    fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(question.Title), html.EscapeString(question.Text)),
		Buttons: markButtons(index),
	}
}

// Mark handles answered / review pressed on question index and moves to the
// next question or the final score. Only the current position can be
// marked, so a repeated or old press never counts twice.
func (q *Quiz) Mark(ctx context.Context, chatID int64, index int, answered bool) Reply {
	key := chatKey(chatID)
	state, _, err := q.machine.Status(ctx, key)
	if err != nil {
		log.Printf("bot: status: %v", err)
		return Reply{Text: apology, Buttons: markButtons(index)}
	}
	if reply, stale := staleReply(state); stale {
		return reply
	}

	t, err := q.machine.MarkAt(ctx, key, index, answered)
	switch {
	case errors.Is(err, quiz.ErrOutOfRange):
		return q.Show(ctx, chatID)
	case errors.Is(err, quiz.ErrFinished):
		reply, _ := staleReply(quiz.Finished)
		return reply
	case err != nil:
		log.Printf("bot: mark: %v", err)
		return Reply{Text: apology, Buttons: markButtons(index)}
	}

	if t.Finished {
		res, err := q.machine.Finish(ctx, key)
		if err != nil {
			log.Printf("bot: finish: %v", err)
			return Reply{Text: fmt.Sprintf("Quiz over! You knew %d of %d.", t.Correct, t.Total), Buttons: []Button{restartButton}}
		}
		return Reply{
			Text:    fmt.Sprintf("Quiz over! You knew %d of %d.", res.Correct, res.Total),
			Buttons: []Button{restartButton},
		}
	}

	return q.Show(ctx, chatID)
}

func staleReply(state quiz.State) (Reply, bool) {
	switch state {
	case quiz.NotStarted:
		return Reply{Text: "No quiz is running.", Buttons: []Button{startButton}}, true
	case quiz.Finished:
		return Reply{Text: "This quiz is over.", Buttons: []Button{restartButton}}, true
	}
	return Reply{}, false
}

func questionReply(index, total int, question *models.Question) Reply {
	if question == nil {
		return Reply{
			Text:    fmt.Sprintf("Question %d/%d is no longer available. Mark it either way to move on.", index+1, total),
			Buttons: markButtons(index),
		}
	}
	return Reply{
		Text:    fmt.Sprintf("Question %d/%d\n\n<b>%s</b>", index+1, total, html.EscapeString(question.Title)),
		Buttons: revealButtons(index),
	}
}
