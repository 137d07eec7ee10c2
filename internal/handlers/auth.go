package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cuckoo-backend/internal/middleware"
	"cuckoo-backend/internal/models"
	"cuckoo-backend/internal/services"
	"cuckoo-backend/internal/views"
)

// Authenticator is implemented by services.AuthService.
type Authenticator interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, *services.IssuedToken, error)
	IssueToken(user *models.User) (*services.IssuedToken, error)
	Logout(ctx context.Context, claims *middleware.Claims) error
}

type AuthHandler struct {
	auth         Authenticator
	views        *views.Renderer
	secureCookie bool
}

func NewAuthHandler(auth Authenticator, renderer *views.Renderer, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, views: renderer, secureCookie: secureCookie}
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "register", views.Page{Title: "Register", Viewer: viewerFrom(r)})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.Error(w, http.StatusBadRequest, viewerFrom(r), "Malformed form")
		return
	}
	req := models.RegisterRequest{
		Username:  r.PostForm.Get("username"),
		Email:     r.PostForm.Get("email"),
		Password:  r.PostForm.Get("password"),
		Password2: r.PostForm.Get("password2"),
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		data := views.RegisterData{Username: req.Username, Email: req.Email}
		switch e := err.(type) {
		case *services.ValidationError:
			data.Errors = e.Fields
		case *services.ConflictError:
			data.Error = e.Message
		default:
			pageError(h.views, w, r, err)
			return
		}
		h.views.Render(w, http.StatusOK, "register", views.Page{Title: "Register", Data: data})
		return
	}

	tok, err := h.auth.IssueToken(user)
	if err != nil {
		pageError(h.views, w, r, err)
		return
	}
	h.setAuthCookie(w, tok)
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "login", views.Page{
		Title:  "Log in",
		Viewer: viewerFrom(r),
		Data:   views.LoginData{Next: r.URL.Query().Get("next")},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.views.Error(w, http.StatusBadRequest, viewerFrom(r), "Malformed form")
		return
	}
	req := models.LoginRequest{Login: r.PostForm.Get("login"), Password: r.PostForm.Get("password")}
	next := r.PostForm.Get("next")

	_, tok, err := h.auth.Login(r.Context(), req)
	if err != nil {
		data := views.LoginData{Login: req.Login, Next: next}
		switch e := err.(type) {
		case *services.UnauthorizedError:
			data.Error = e.Message
		case *services.ValidationError:
			data.Error = "Login and password are required"
		default:
			pageError(h.views, w, r, err)
			return
		}
		h.views.Render(w, http.StatusOK, "login", views.Page{Title: "Log in", Data: data})
		return
	}

	h.setAuthCookie(w, tok)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.GetUser(r.Context())); err != nil {
		pageError(h.views, w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}

// Token is the JSON login used by API clients.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	_, tok, err := h.auth.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AuthToken{AccessToken: tok.Token, ExpiresIn: tok.ExpiresIn()})
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, tok *services.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		MaxAge:   int(time.Until(tok.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext only follows local redirects.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/main"
	}
	return next
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnauthorizedError:
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", e.Message, r))
	case *services.ForbiddenError:
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
