package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"cuckoo-backend/internal/middleware"
	"cuckoo-backend/internal/models"
)

type stubUsers struct {
	byLogin map[string]*models.User
	created []*models.User
}

func (s *stubUsers) Create(ctx context.Context, user *models.User) error {
	user.ID = int64(len(s.created) + 1)
	s.created = append(s.created, user)
	return nil
}

func (s *stubUsers) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if u, ok := s.byLogin[login]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUsers) Exists(ctx context.Context, username, email string) (bool, bool, error) {
	_, u := s.byLogin[username]
	_, e := s.byLogin[email]
	return u, e, nil
}

type stubRevoker struct {
	revoked map[string]time.Time
}

func (s *stubRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	s.revoked[jti] = until
	return nil
}

func (s *stubRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := s.revoked[jti]
	return ok, nil
}

func newTestAuth(users *stubUsers) (*AuthService, *stubRevoker, *middleware.JWTAuth) {
	rev := &stubRevoker{revoked: make(map[string]time.Time)}
	jwt := middleware.NewJWTAuth("test-secret", time.Hour, rev)
	return NewAuthService(users, rev, jwt), rev, jwt
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw    string
		valid bool
	}{
		{"short1", false},
		{"longenoughnodigit", false},
		{"longenough1", true},
	}
	for _, tc := range tests {
		err := validatePassword(tc.pw)
		if (err == nil) != tc.valid {
			t.Errorf("validatePassword(%q) error = %v, want valid=%v", tc.pw, err, tc.valid)
		}
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestAuth(&stubUsers{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username:  "ab",
		Email:     "nope",
		Password:  "password1",
		Password2: "password2",
	})
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"username", "email", "password2"} {
		if _, ok := ve.Fields[f]; !ok {
			t.Errorf("expected field error for %s, got %v", f, ve.Fields)
		}
	}
}

func TestRegister_Conflict(t *testing.T) {
	users := &stubUsers{byLogin: map[string]*models.User{"taken": {ID: 1, Username: "taken"}}}
	svc, _, _ := newTestAuth(users)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "taken", Email: "new@example.com", Password: "password1", Password2: "password1",
	})
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	users := &stubUsers{}
	svc, _, _ := newTestAuth(users)

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password1", Password2: "password1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash == "password1" {
		t.Fatal("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password1")); err != nil {
		t.Errorf("hash does not match password: %v", err)
	}
	if user.IsAdmin {
		t.Error("new users must not be admins")
	}
}

func TestLoginAndLogout(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	alice := &models.User{ID: 7, Username: "alice", Email: "alice@example.com", PasswordHash: string(hash), IsAdmin: true}
	users := &stubUsers{byLogin: map[string]*models.User{"alice": alice, "alice@example.com": alice}}
	svc, rev, jwt := newTestAuth(users)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, models.LoginRequest{Login: "alice", Password: "wrong"}); err == nil {
		t.Fatal("expected wrong password to fail")
	} else if _, ok := err.(*UnauthorizedError); !ok {
		t.Fatalf("expected UnauthorizedError, got %T", err)
	}

	if _, _, err := svc.Login(ctx, models.LoginRequest{Login: "bob", Password: "password1"}); err == nil {
		t.Fatal("expected unknown user to fail")
	}

	_, tok, err := svc.Login(ctx, models.LoginRequest{Login: "alice@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Login by email: %v", err)
	}
	if tok.ExpiresIn() <= 0 {
		t.Errorf("expected positive lifetime, got %d", tok.ExpiresIn())
	}

	claims, err := jwt.Parse(ctx, tok.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" || !claims.IsAdmin {
		t.Errorf("unexpected claims %+v", claims)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := rev.revoked[claims.ID]; !ok {
		t.Fatal("expected jti to be revoked")
	}
	if _, err := jwt.Parse(ctx, tok.Token); err != middleware.ErrTokenRevoked {
		t.Errorf("expected ErrTokenRevoked after logout, got %v", err)
	}

	if err := svc.Logout(ctx, nil); err != nil {
		t.Errorf("anonymous logout should be a no-op, got %v", err)
	}
}
