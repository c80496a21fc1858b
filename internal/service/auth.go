package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digivite/digivite/internal/model"
	"github.com/digivite/digivite/internal/utils"
)

// AuthConfig carries the token and hashing parameters.
type AuthConfig struct {
	JWTSecret    string
	AccessTTLMin int
	BcryptCost   int
}

// SignupInput registers a new admin.
type SignupInput struct {
	Email    string
	Password string
	Name     *string
}

// Session is an authenticated admin together with the token to hand back.
type Session struct {
	Admin  model.AdminView
	Access utils.AccessToken
}

// AuthService manages admin accounts and issues access tokens.
type AuthService struct {
	admins AdminStore
	cfg    AuthConfig
	now    func() time.Time
}

// NewAuthService wires admin authentication.
func NewAuthService(admins AdminStore, cfg AuthConfig) *AuthService {
	if cfg.AccessTTLMin <= 0 {
		cfg.AccessTTLMin = 120
	}
	return &AuthService{admins: admins, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Signup creates an admin.  The returned Session carries a token, but
// callers that want a separate login step may discard it.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return Session{}, Invalid("email", "email/password required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, Invalid("email", "email is not a valid address")
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if errors.Is(err, utils.ErrWeakPassword) {
		return Session{}, Invalid("password", fmt.Sprintf("password must be at least %d characters", utils.MinPasswordLength))
	}
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	a := &model.Admin{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         trimmedOrNil(in.Name),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.admins.CreateAdmin(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Session{}, Invalid("email", "Admin already exists, Login instead!")
		}
		return Session{}, fmt.Errorf("create admin: %w", err)
	}
	return s.issue(a)
}

// Login checks the credentials and issues a fresh token.  Unknown emails
// and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, Invalid("email", "email/password required")
	}
	a, err := s.admins.GetAdminByEmail(ctx, email)
	if isNotFound(err) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(a.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(a)
}

// Admin returns the public view of the admin behind a verified token.
func (s *AuthService) Admin(ctx context.Context, adminID string) (model.AdminView, error) {
	if adminID == "" {
		return model.AdminView{}, ErrUnauthorized
	}
	a, err := s.admins.GetAdminByID(ctx, adminID)
	if isNotFound(err) {
		return model.AdminView{}, ErrUnauthorized
	}
	if err != nil {
		return model.AdminView{}, err
	}
	return a.View(), nil
}

func (s *AuthService) issue(a *model.Admin) (Session, error) {
	tok, err := utils.NewAccessToken(s.cfg.JWTSecret, a.ID, a.Email, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Admin: a.View(), Access: tok}, nil
}
