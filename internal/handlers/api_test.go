package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cuckoo-backend/internal/models"
)

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAPI_ListAndGet(t *testing.T) {
	app := newTestApp(t, sampleQuestions(2)...)
	h := app.router(nil)

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/api/questions/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var list struct {
		Questions []models.Question `json:"questions"`
	}
	decodeBody(t, rr, &list)
	if len(list.Questions) != 2 || list.Questions[0].Title != "Q1" {
		t.Errorf("unexpected list %+v", list.Questions)
	}

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/api/questions/2/", nil))
	var one struct {
		Question models.Question `json:"question"`
	}
	decodeBody(t, rr, &one)
	if one.Question.ID != 2 || one.Question.Text != "A2" {
		t.Errorf("unexpected question %+v", one.Question)
	}

	for _, target := range []string{"/api/questions/99/", "/api/questions/abc/"} {
		rr = serve(h, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rr.Code)
		}
	}
}

func TestAPI_Create(t *testing.T) {
	app := newTestApp(t, sampleQuestions(1)...)
	h := app.router(nil)

	rr := serve(h, jsonRequest(http.MethodPost, "/api/questions/", map[string]interface{}{
		"title": "New one", "text": "Answer", "tags": []string{"Misc"},
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Question models.Question `json:"question"`
	}
	decodeBody(t, rr, &created)
	if created.Question.ID == 0 || len(created.Question.Tags) != 1 || created.Question.Tags[0] != "misc" {
		t.Errorf("unexpected created question %+v", created.Question)
	}

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"missing title", map[string]interface{}{"text": "x"}, "title"},
		{"missing text", map[string]interface{}{"title": "x"}, "text"},
		{"duplicate title", map[string]interface{}{"title": "Q1", "text": "other"}, "title"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(h, jsonRequest(http.MethodPost, "/api/questions/", tc.body))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			var resp models.ErrorResponse
			decodeBody(t, rr, &resp)
			if resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %q", resp.Error.Code)
			}
			if _, ok := resp.Error.Fields[tc.field]; !ok {
				t.Errorf("expected field %q in %v", tc.field, resp.Error.Fields)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/questions/", bytes.NewReader([]byte("{")))
	if rr := serve(h, req); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: expected 400, got %d", rr.Code)
	}
}

func TestAPI_UpdateAndDelete(t *testing.T) {
	app := newTestApp(t, sampleQuestions(2)...)
	h := app.router(nil)

	rr := serve(h, jsonRequest(http.MethodPatch, "/api/questions/1/", map[string]string{"text": "Changed"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", rr.Code)
	}
	q, _ := app.questions.GetByID(context.Background(), 1)
	if q.Title != "Q1" || q.Text != "Changed" {
		t.Errorf("partial update wrong: %+v", q)
	}

	rr = serve(h, jsonRequest(http.MethodPatch, "/api/questions/1/", map[string]string{"title": "Q2"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("patch to duplicate title: expected 400, got %d", rr.Code)
	}

	rr = serve(h, jsonRequest(http.MethodPatch, "/api/questions/42/", map[string]string{"text": "x"}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("patch missing: expected 404, got %d", rr.Code)
	}

	rr = serve(h, httptest.NewRequest(http.MethodDelete, "/api/questions/1/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	rr = serve(h, httptest.NewRequest(http.MethodDelete, "/api/questions/1/", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rr.Code)
	}
}

func TestAPI_RandomQuestion(t *testing.T) {
	app := newTestApp(t)
	h := app.router(nil)

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/api/get-random-question/", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("empty: expected 404, got %d", rr.Code)
	}

	app.questions.Create(context.Background(), &models.Question{Title: "Only", Text: "One"})
	rr = serve(h, httptest.NewRequest(http.MethodGet, "/api/get-random-question/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Opinion models.Question `json:"opinion"`
	}
	decodeBody(t, rr, &resp)
	if resp.Opinion.Title != "Only" {
		t.Errorf("unexpected opinion %+v", resp.Opinion)
	}
}
