package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"cuckoo-backend/internal/middleware"
	"cuckoo-backend/internal/models"
	"cuckoo-backend/internal/repository"
)

// UserStore is the part of repository.UserRepo the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	Exists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
}

// Revoker records logged-out token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
}

type AuthService struct {
	users   UserStore
	revoker Revoker
	jwt     *middleware.JWTAuth
}

func NewAuthService(users UserStore, revoker Revoker, jwt *middleware.JWTAuth) *AuthService {
	return &AuthService{users: users, revoker: revoker, jwt: jwt}
}

// IssuedToken is a signed access token and when it stops being valid.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// ExpiresIn is the remaining lifetime in whole seconds.
func (t *IssuedToken) ExpiresIn() int {
	return int(time.Until(t.ExpiresAt).Seconds())
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]{3,64}$`)
)

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// Validate all fields at once
	fieldErrors := make(map[string]string)

	if !usernameRegex.MatchString(req.Username) {
		fieldErrors["username"] = "Username must be 3-64 letters, digits or @.+-_"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	} else if req.Password != req.Password2 {
		fieldErrors["password2"] = "Passwords do not match"
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	usernameTaken, emailTaken, err := s.users.Exists(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check user uniqueness: %w", err)
	}
	if usernameTaken {
		return nil, &ConflictError{Message: "Username already taken"}
	}
	if emailTaken {
		return nil, &ConflictError{Message: "Email already in use"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "Username or email already in use"}
		}
		return nil, err
	}
	return user, nil
}

// Login checks credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, *IssuedToken, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, nil, &ValidationError{Fields: map[string]string{"login": "Login and password are required"}}
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, &UnauthorizedError{Message: "Invalid login or password"}
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, &UnauthorizedError{Message: "Invalid login or password"}
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

func (s *AuthService) IssueToken(user *models.User) (*IssuedToken, error) {
	signed, claims, err := s.jwt.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &IssuedToken{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the token behind claims. Anonymous or id-less claims are a no-op.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
