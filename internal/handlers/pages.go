package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cuckoo-backend/internal/middleware"
	"cuckoo-backend/internal/models"
	"cuckoo-backend/internal/quiz"
	"cuckoo-backend/internal/services"
	"cuckoo-backend/internal/views"
)

// QuestionService is implemented by services.QuestionService.
type QuestionService interface {
	Create(ctx context.Context, req models.CreateQuestionRequest) (*models.Question, error)
	Get(ctx context.Context, id int64) (*models.Question, error)
	Random(ctx context.Context) (*models.Question, error)
	List(ctx context.Context, filter models.QuestionFilter) ([]*models.Question, error)
	Tags(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	QuizPool(ctx context.Context) ([]quiz.QuestionID, error)
	Update(ctx context.Context, id int64, req models.UpdateQuestionRequest) (*models.Question, error)
	Delete(ctx context.Context, id int64) error
	Comments(ctx context.Context, questionID int64) ([]*models.Comment, error)
	AddComment(ctx context.Context, questionID, userID int64, text string) (*models.Comment, error)
}

// PageHandler serves the browsable question site.
type PageHandler struct {
	questions QuestionService
	views     *views.Renderer
}

func NewPageHandler(questions QuestionService, renderer *views.Renderer) *PageHandler {
	return &PageHandler{questions: questions, views: renderer}
}

func (h *PageHandler) Main(w http.ResponseWriter, r *http.Request) {
	count, err := h.questions.Count(r.Context())
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}
	h.views.Render(w, http.StatusOK, "main", views.Page{Viewer: viewerFrom(r), Data: views.MainData{Count: count}})
}

// RandomQuestion renders the 500 page when there are no questions at all.
func (h *PageHandler) RandomQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.Random(r.Context())
	if err != nil {
		if _, ok := err.(*services.NotFoundError); ok {
			h.views.Error(w, http.StatusInternalServerError, viewerFrom(r), "There are no questions yet.")
			return
		}
		pageError(h.views, w, r, err)
		return
	}
	h.views.Render(w, http.StatusOK, "question", views.Page{
		Title:  q.Title,
		Viewer: viewerFrom(r),
		Data:   views.QuestionData{Question: q},
	})
}

func (h *PageHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	filter := models.QuestionFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Tag:    strings.TrimSpace(r.URL.Query().Get("tag")),
	}

	questions, err := h.questions.List(r.Context(), filter)
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}
	tags, err := h.questions.Tags(r.Context())
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}

	h.views.Render(w, http.StatusOK, "questions", views.Page{
		Title:  "Questions",
		Viewer: viewerFrom(r),
		Data:   views.QuestionsData{Questions: questions, Tags: tags, Search: filter.Search, Tag: filter.Tag},
	})
}

func (h *PageHandler) ShowQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		h.views.Error(w, http.StatusNotFound, viewerFrom(r), "Question not found")
		return
	}
	h.renderQuestion(w, r, id, http.StatusOK, "")
}

func (h *PageHandler) renderQuestion(w http.ResponseWriter, r *http.Request, id int64, status int, commentErr string) {
	q, err := h.questions.Get(r.Context(), id)
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}
	comments, err := h.questions.Comments(r.Context(), id)
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}

	h.views.Render(w, status, "question", views.Page{
		Title:  q.Title,
		Viewer: viewerFrom(r),
		Data: views.QuestionData{
			Question:     q,
			Comments:     comments,
			ShowComments: true,
			CommentError: commentErr,
		},
	})
}

func (h *PageHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		h.views.Error(w, http.StatusNotFound, viewerFrom(r), "Question not found")
		return
	}

	user := middleware.GetUser(r.Context())
	if user == nil {
		redirectToLogin(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.views.Error(w, http.StatusBadRequest, viewerFrom(r), "Malformed form")
		return
	}

	_, err := h.questions.AddComment(r.Context(), id, user.UserID, r.PostForm.Get("text"))
	if err != nil {
		if ve, ok := err.(*services.ValidationError); ok {
			h.renderQuestion(w, r, id, http.StatusBadRequest, ve.Fields["text"])
			return
		}
		pageError(h.views, w, r, err)
		return
	}
	http.Redirect(w, r, "/questions/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *PageHandler) NewQuestionForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.renderForm(w, r, http.StatusOK, "Add question", "/add", views.QuestionForm{}, nil)
}

func (h *PageHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	form, ok := h.parseQuestionForm(w, r)
	if !ok {
		return
	}

	q, err := h.questions.Create(r.Context(), models.CreateQuestionRequest{
		Title: form.Title,
		Text:  form.Text,
		Tags:  models.ParseTags(form.Tags),
	})
	if err != nil {
		if ve, ok := err.(*services.ValidationError); ok {
			h.renderForm(w, r, http.StatusBadRequest, "Add question", "/add", form, ve.Fields)
			return
		}
		pageError(h.views, w, r, err)
		return
	}
	http.Redirect(w, r, "/questions/"+strconv.FormatInt(q.ID, 10), http.StatusSeeOther)
}

func (h *PageHandler) EditQuestionForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := questionID(r)
	if !ok {
		h.views.Error(w, http.StatusNotFound, viewerFrom(r), "Question not found")
		return
	}
	q, err := h.questions.Get(r.Context(), id)
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}

	form := views.QuestionForm{Title: q.Title, Text: q.Text, Tags: strings.Join(q.Tags, ", ")}
	h.renderForm(w, r, http.StatusOK, "Edit question", editPath(id), form, nil)
}

func (h *PageHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := questionID(r)
	if !ok {
		h.views.Error(w, http.StatusNotFound, viewerFrom(r), "Question not found")
		return
	}
	form, ok := h.parseQuestionForm(w, r)
	if !ok {
		return
	}

	tags := models.ParseTags(form.Tags)
	_, err := h.questions.Update(r.Context(), id, models.UpdateQuestionRequest{
		Title: &form.Title,
		Text:  &form.Text,
		Tags:  &tags,
	})
	if err != nil {
		if ve, ok := err.(*services.ValidationError); ok {
			h.renderForm(w, r, http.StatusBadRequest, "Edit question", editPath(id), form, ve.Fields)
			return
		}
		pageError(h.views, w, r, err)
		return
	}
	http.Redirect(w, r, "/questions/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *PageHandler) parseQuestionForm(w http.ResponseWriter, r *http.Request) (views.QuestionForm, bool) {
	if err := r.ParseForm(); err != nil {
		h.views.Error(w, http.StatusBadRequest, viewerFrom(r), "Malformed form")
		return views.QuestionForm{}, false
	}
	return views.QuestionForm{
		Title: strings.TrimSpace(r.PostForm.Get("title")),
		Text:  strings.TrimSpace(r.PostForm.Get("text")),
		Tags:  r.PostForm.Get("tags"),
	}, true
}

func (h *PageHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, title, action string, form views.QuestionForm, errs map[string]string) {
	h.views.Render(w, status, "question_form", views.Page{
		Title:  title,
		Viewer: viewerFrom(r),
		Data:   views.QuestionFormData{Action: action, Form: form, Errors: errs},
	})
}

// requireAdmin sends anonymous users to the login page and everyone else
// without admin rights to a 403 page.
func (h *PageHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user := middleware.GetUser(r.Context())
	if user == nil {
		redirectToLogin(w, r)
		return false
	}
	if !user.IsAdmin {
		h.views.Error(w, http.StatusForbidden, viewerFrom(r), "Only admins can do that.")
		return false
	}
	return true
}

func editPath(id int64) string {
	return "/questions/" + strconv.FormatInt(id, 10) + "/edit"
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
}

func questionID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func viewerFrom(r *http.Request) *views.Viewer {
	claims := middleware.GetUser(r.Context())
	if claims == nil {
		return nil
	}
	return &views.Viewer{ID: claims.UserID, Username: claims.Username, IsAdmin: claims.IsAdmin}
}

// pageError is handleServiceError for HTML responses.
func pageError(v *views.Renderer, w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.NotFoundError:
		v.Error(w, http.StatusNotFound, viewerFrom(r), e.Message)
	case *services.ForbiddenError:
		v.Error(w, http.StatusForbidden, viewerFrom(r), e.Message)
	case *services.ValidationError:
		v.Error(w, http.StatusBadRequest, viewerFrom(r), "Invalid input")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		v.Error(w, http.StatusInternalServerError, viewerFrom(r), "Something went wrong.")
	}
}
