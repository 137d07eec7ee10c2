package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cuckoo-backend/internal/middleware"
	"cuckoo-backend/internal/models"
	"cuckoo-backend/internal/quiz"
	"cuckoo-backend/internal/services"
	"cuckoo-backend/internal/views"
)

// QuizHandler is the browser front-end of the quiz state machine. The
// session key is the quiz cookie set by middleware.QuizSession.
type QuizHandler struct {
	machine   *quiz.Machine
	questions QuestionService
	views     *views.Renderer
	size      int
}

func NewQuizHandler(machine *quiz.Machine, questions QuestionService, renderer *views.Renderer, size int) *QuizHandler {
	if size <= 0 {
		size = quiz.DefaultSize
	}
	return &QuizHandler{machine: machine, questions: questions, views: renderer, size: size}
}

func stepPath(n int) string {
	return "/quiz/step/" + strconv.Itoa(n)
}

func (h *QuizHandler) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	state, s, err := h.machine.Status(r.Context(), middleware.GetQuizKey(r.Context()))
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}

	data := views.QuizStartData{Size: h.size}
	if state == quiz.InProgress {
		data.InProgress = true
		data.Index = s.Index
	}
	h.views.Render(w, http.StatusOK, "quiz_start", views.Page{Title: "Quiz", Viewer: viewerFrom(r), Data: data})
}

func (h *QuizHandler) Begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := middleware.GetQuizKey(ctx)

	pool, err := h.questions.QuizPool(ctx)
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}

	s, err := h.machine.Begin(ctx, key, pool)
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}

	if s.Total() == 0 {
		// an empty session is terminal; there is nothing to finish
		if err := h.machine.Reset(ctx, key); err != nil {
			log.Printf("quiz reset: %v", err)
		}
		h.views.Render(w, http.StatusOK, "quiz_empty", views.Page{Title: "Quiz", Viewer: viewerFrom(r)})
		return
	}
	h.redirect(w, r, stepPath(0))
}

func (h *QuizHandler) Step(w http.ResponseWriter, r *http.Request) {
	h.showStep(w, r, false)
}

func (h *QuizHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	h.showStep(w, r, true)
}

func (h *QuizHandler) showStep(w http.ResponseWriter, r *http.Request, reveal bool) {
	ctx := r.Context()
	key := middleware.GetQuizKey(ctx)

	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		h.views.Error(w, http.StatusNotFound, viewerFrom(r), "No such step")
		return
	}

	var id quiz.QuestionID
	if reveal {
		if _, err = h.machine.Step(ctx, key, n); err == nil {
			id, err = h.machine.Reveal(ctx, key)
		}
	} else {
		id, err = h.machine.Step(ctx, key, n)
	}
	if err != nil {
		h.followState(w, r, err)
		return
	}

	_, s, err := h.machine.Status(ctx, key)
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}

	q, err := h.questions.Get(ctx, int64(id))
	if err != nil {
		if _, ok := err.(*services.NotFoundError); !ok {
			pageError(h.views, w, r, err)
			return
		}
		q = nil
	}

	title := "Quiz"
	if q != nil {
		title = q.Title
	}
	h.views.Render(w, http.StatusOK, "quiz_step", views.Page{
		Title:  title,
		Viewer: viewerFrom(r),
		Data:   views.QuizStepData{Index: n, Total: s.Total(), Question: q, Revealed: reveal},
	})
}

func (h *QuizHandler) Mark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := middleware.GetQuizKey(ctx)

	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		h.views.Error(w, http.StatusNotFound, viewerFrom(r), "No such step")
		return
	}

	var answered bool
	switch r.FormValue("mark") {
	case "answered":
		answered = true
	case "not_answered":
		answered = false
	default:
		h.views.Error(w, http.StatusBadRequest, viewerFrom(r), "Choose whether you knew the answer.")
		return
	}

	t, err := h.machine.MarkAt(ctx, key, n, answered)
	if err != nil {
		h.followState(w, r, err)
		return
	}
	if t.Finished {
		h.redirect(w, r, "/quiz/finish")
		return
	}
	h.redirect(w, r, stepPath(t.Index))
}

func (h *QuizHandler) Finish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.machine.Finish(ctx, middleware.GetQuizKey(ctx))
	if err != nil {
		h.followState(w, r, err)
		return
	}

	rows := make([]views.QuizRow, 0, len(res.Answers))
	for _, a := range res.Answers {
		var q *models.Question
		if found, err := h.questions.Get(ctx, int64(a.QuestionID)); err == nil {
			q = found
		}
		rows = append(rows, views.QuizRow{Question: q, Answered: a.Answered})
	}

	h.views.Render(w, http.StatusOK, "quiz_finish", views.Page{
		Title:  "Quiz results",
		Viewer: viewerFrom(r),
		Data:   views.QuizFinishData{Correct: res.Correct, Total: res.Total, Rows: rows},
	})
}

func (h *QuizHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Reset(r.Context(), middleware.GetQuizKey(r.Context())); err != nil {
		pageError(h.views, w, r, err)
		return
	}
	h.redirect(w, r, "/quiz/start")
}

// followState turns state machine errors into a redirect to wherever the
// session actually is.
func (h *QuizHandler) followState(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotStarted), errors.Is(err, quiz.ErrNoQuestions):
		h.redirect(w, r, "/quiz/start")
	case errors.Is(err, quiz.ErrFinished), errors.Is(err, quiz.ErrOutOfRange), errors.Is(err, quiz.ErrNotFinished):
		state, s, serr := h.machine.Status(r.Context(), middleware.GetQuizKey(r.Context()))
		switch {
		case serr != nil:
			pageError(h.views, w, r, serr)
		case state == quiz.InProgress:
			h.redirect(w, r, stepPath(s.Index))
		case state == quiz.Finished:
			h.redirect(w, r, "/quiz/finish")
		default:
			h.redirect(w, r, "/quiz/start")
		}
	default:
		pageError(h.views, w, r, err)
	}
}
