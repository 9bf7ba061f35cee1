package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/email"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/security"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

const (
	eventLogin    = "auth.login"
	eventRegister = "auth.register"
)

type AuditLogger interface {
	Log(ctx context.Context, eventType, source string, payload interface{}) error
}

// Service signs users in against the users table. Sessions live in the
// process-wide auth context, which issues the tokens.
type Service struct {
	users     repository.UserRepository
	sessions  *auth.Context
	tokens    *auth.TokenIssuer
	hasher    security.PasswordHasher
	validator validator.Validator
	emailSvc  email.Service
	auditor   AuditLogger
}

func NewService(users repository.UserRepository, sessions *auth.Context, tokens *auth.TokenIssuer,
	hasher security.PasswordHasher, v validator.Validator, emailSvc email.Service, auditor AuditLogger) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		hasher:    hasher,
		validator: v,
		emailSvc:  emailSvc,
		auditor:   auditor,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if err == security.ErrPasswordShort || err == security.ErrPasswordLong {
			return nil, errors.Validation(err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(req.Email),
		FullName:     req.FullName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return nil, errors.Conflict("email already registered", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.emailSvc != nil {
		if err := s.emailSvc.SendWelcome(ctx, user.Email, user.FullName); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to send welcome email")
		}
	}
	s.audit(ctx, eventRegister, user)
	return user, nil
}

// Login checks the password and opens a session. Unknown email, wrong
// password and inactive account all fail the same way.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}

	invalid := &errors.AppError{Code: errors.ErrUnauthenticated, Message: "invalid credentials"}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			s.hasher.CompareDummy(req.Password)
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, invalid
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, invalid
	}

	session := s.tokens.NewSession(user.ID, user.Email)
	token, err := s.sessions.SignIn(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	s.audit(ctx, eventLogin, user)
	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}, nil
}

func (s *Service) Logout(ctx context.Context, session *auth.Session) error {
	if session == nil {
		return nil
	}
	return s.sessions.SignOut(ctx, session.ID)
}

// Refresh swaps the caller's session for a fresh one and returns its token.
func (s *Service) Refresh(ctx context.Context, session *auth.Session) (*model.LoginResponse, error) {
	if session == nil {
		return nil, errors.Unauthenticated(nil)
	}
	token, next, err := s.sessions.Refresh(ctx, session.ID)
	if err != nil {
		return nil, errors.Unauthenticated(err)
	}
	user, err := s.users.Get(ctx, next.UserID)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, ExpiresAt: next.ExpiresAt, User: user}, nil
}

// Me returns the account behind the session.
func (s *Service) Me(ctx context.Context, session *auth.Session) (*model.User, error) {
	if session == nil {
		return nil, errors.Unauthenticated(nil)
	}
	return s.users.Get(ctx, session.UserID)
}

func (s *Service) audit(ctx context.Context, event string, user *model.User) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Log(ctx, event, "auth", map[string]interface{}{
		"user_id": user.ID.String(),
		"at":      time.Now().UTC().Format(time.RFC3339),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
