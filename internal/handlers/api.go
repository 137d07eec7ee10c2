package handlers

import (
	"encoding/json"
	"net/http"

	"cuckoo-backend/internal/models"
)

// APIHandler serves the JSON question API under /api.
type APIHandler struct {
	questions QuestionService
}

func NewAPIHandler(questions QuestionService) *APIHandler {
	return &APIHandler{questions: questions}
}

func (h *APIHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questions.List(r.Context(), models.QuestionFilter{
		Search: r.URL.Query().Get("search"),
		Tag:    r.URL.Query().Get("tag"),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (h *APIHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Question not found", r))
		return
	}

	q, err := h.questions.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"question": q})
}

func (h *APIHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	q, err := h.questions.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"question": q})
}

func (h *APIHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Question not found", r))
		return
	}

	var req models.UpdateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	q, err := h.questions.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"question": q})
}

func (h *APIHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Question not found", r))
		return
	}

	if err := h.questions.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RandomQuestion keeps the "opinion" envelope key the bot reads.
func (h *APIHandler) RandomQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.Random(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"opinion": q})
}
