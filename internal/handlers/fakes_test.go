package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"cuckoo-backend/internal/middleware"
	"cuckoo-backend/internal/models"
	"cuckoo-backend/internal/quiz"
	"cuckoo-backend/internal/repository"
	"cuckoo-backend/internal/services"
	"cuckoo-backend/internal/views"
)

// memQuestions is an in-memory services.QuestionStore.
type memQuestions struct {
	mu     sync.Mutex
	rows   map[int64]*models.Question
	nextID int64
}

func newMemQuestions(qs ...*models.Question) *memQuestions {
	m := &memQuestions{rows: make(map[int64]*models.Question)}
	for _, q := range qs {
		m.rows[q.ID] = q
		if q.ID > m.nextID {
			m.nextID = q.ID
		}
	}
	return m
}

func (m *memQuestions) ids() []int64 {
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memQuestions) taken(title string, except int64) bool {
	for id, q := range m.rows {
		if id != except && q.Title == title {
			return true
		}
	}
	return false
}

func (m *memQuestions) Create(ctx context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(q.Title, 0) {
		return repository.ErrDuplicate
	}
	m.nextID++
	q.ID = m.nextID
	cp := *q
	m.rows[q.ID] = &cp
	return nil
}

func (m *memQuestions) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *q
	return &cp, nil
}

func (m *memQuestions) Random(ctx context.Context) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.ids()
	if len(ids) == 0 {
		return nil, pgx.ErrNoRows
	}
	cp := *m.rows[ids[0]]
	return &cp, nil
}

func (m *memQuestions) List(ctx context.Context, filter models.QuestionFilter) ([]*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Question, 0)
	for _, id := range m.ids() {
		q := m.rows[id]
		if filter.Search != "" && !strings.Contains(strings.ToLower(q.Title+" "+q.Text), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Tag != "" && !contains(q.Tags, filter.Tag) {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memQuestions) ListIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids(), nil
}

func (m *memQuestions) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memQuestions) Update(ctx context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	if m.taken(q.Title, q.ID) {
		return repository.ErrDuplicate
	}
	cp := *q
	m.rows[q.ID] = &cp
	return nil
}

func (m *memQuestions) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

func (m *memQuestions) ListTags(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []string
	for _, q := range m.rows {
		all = append(all, q.Tags...)
	}
	return models.NormalizeTags(all), nil
}

type memComments struct {
	mu    sync.Mutex
	saved []*models.Comment
}

func (m *memComments) Create(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.saved) + 1)
	c.Username = "user"
	c.CreatedAt = time.Now()
	m.saved = append(m.saved, c)
	return nil
}

func (m *memComments) ListByQuestion(ctx context.Context, questionID int64) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.saved {
		if c.QuestionID == questionID {
			out = append(out, c)
		}
	}
	return out, nil
}

// sampleQuestions returns n questions titled "Q1".."Qn" with answers "A1".."An".
func sampleQuestions(n int) []*models.Question {
	qs := make([]*models.Question, n)
	for i := range qs {
		id := int64(i + 1)
		qs[i] = &models.Question{
			ID:    id,
			Title: "Q" + itoa(id),
			Text:  "A" + itoa(id),
		}
	}
	return qs
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

var testAdmin = &middleware.Claims{UserID: 1, Username: "root", IsAdmin: true}
var testUser = &middleware.Claims{UserID: 2, Username: "bob"}

func asUser(r *http.Request, claims *middleware.Claims) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), claims))
}

func withQuizKey(r *http.Request, key string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.QuizKey, key))
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

type testApp struct {
	questions *memQuestions
	comments  *memComments
	service   *services.QuestionService
	renderer  *views.Renderer
	machine   *quiz.Machine
}

func newTestApp(t *testing.T, qs ...*models.Question) *testApp {
	t.Helper()
	app := &testApp{
		questions: newMemQuestions(qs...),
		comments:  &memComments{},
		renderer:  views.MustNew(),
		machine:   quiz.NewMachine(quiz.NewMemoryStore()),
	}
	app.service = services.NewQuestionService(app.questions, app.comments, nil)
	return app
}

// router mounts every handler the way the production router does, minus
// the auth middleware; tests attach claims to the request directly.
func (a *testApp) router(auth Authenticator) http.Handler {
	pages := NewPageHandler(a.service, a.renderer)
	api := NewAPIHandler(a.service)
	quizH := NewQuizHandler(a.machine, a.service, a.renderer, 0)

	r := chi.NewRouter()
	r.Get("/main", pages.Main)
	r.Get("/random-question", pages.RandomQuestion)
	r.Get("/questions", pages.ListQuestions)
	r.Get("/questions/{id}", pages.ShowQuestion)
	r.Post("/questions/{id}", pages.AddComment)
	r.Get("/questions/{id}/edit", pages.EditQuestionForm)
	r.Post("/questions/{id}/edit", pages.UpdateQuestion)
	r.Get("/add", pages.NewQuestionForm)
	r.Post("/add", pages.CreateQuestion)

	r.Get("/api/questions/", api.ListQuestions)
	r.Post("/api/questions/", api.CreateQuestion)
	r.Get("/api/questions/{id}/", api.GetQuestion)
	r.Patch("/api/questions/{id}/", api.UpdateQuestion)
	r.Delete("/api/questions/{id}/", api.DeleteQuestion)
	r.Get("/api/get-random-question/", api.RandomQuestion)

	r.Get("/quiz/start", quizH.Start)
	r.Post("/quiz/begin", quizH.Begin)
	r.Get("/quiz/step/{n}", quizH.Step)
	r.Post("/quiz/reveal/{n}", quizH.Reveal)
	r.Post("/quiz/mark/{n}", quizH.Mark)
	r.Get("/quiz/finish", quizH.Finish)
	r.Post("/quiz/reset", quizH.Reset)

	if auth != nil {
		authH := NewAuthHandler(auth, a.renderer, false)
		r.Get("/login", authH.LoginForm)
		r.Post("/login", authH.Login)
		r.Get("/register", authH.RegisterForm)
		r.Post("/register", authH.Register)
		r.Get("/logout", authH.Logout)
		r.Post("/api/auth/token", authH.Token)
	}
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
