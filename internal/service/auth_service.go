package service

import (
	"context"
	"errors"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/metrics"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/andressep95/city-news-api/pkg/jwt"
	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/google/uuid"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgSessionNotFound    = "Session not found"
	msgEmailRegistered    = "Email is already registered"
	msgTokenIssuance      = "Unable to obtain access token"
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      PasswordHasher
	issuer      TokenIssuer
	revoker     TokenRevoker
	recorder    Recorder
	now         func() time.Time
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User    *domain.PublicUser `json:"user"`
	Session *domain.Session    `json:"session"`
}

type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,password"`
	City     *string `json:"city" validate:"omitempty,min=1,max=100"`
}

type LogoutRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
}

// NewAuthService wires the session lifecycle. revoker and recorder may be nil.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	revoker TokenRevoker,
	recorder Recorder,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		issuer:      issuer,
		revoker:     revoker,
		recorder:    recorderOrNop(recorder),
		now:         time.Now,
	}
}

// Login checks credentials, obtains tokens and opens a session. Tokens are
// obtained first so an issuance failure leaves no open session behind.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.BurnCompare(req.Password)
			s.recorder.ObserveLogin(metrics.LoginInvalidCredentials)
			return nil, domain.ErrUnauthorized(msgInvalidCredentials)
		}
		s.recorder.ObserveLogin(metrics.LoginError)
		return nil, domain.ErrInternal(err)
	}

	ok, err := s.hasher.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		logger.Errorw(ctx, "stored password hash is unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		s.recorder.ObserveLogin(metrics.LoginInvalidCredentials)
		return nil, domain.ErrUnauthorized(msgInvalidCredentials)
	}

	tokens, err := s.issueTokens(ctx, user.Email, user.Name)
	if err != nil {
		s.recorder.ObserveLogin(metrics.LoginError)
		return nil, err
	}

	now := pgTime(s.now())
	session := domain.NewSession(user.ID, now)
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.recorder.ObserveLogin(metrics.LoginError)
		return nil, domain.ErrInternal(err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Warnw(ctx, "failed to update last login", "user_id", user.ID, "error", err)
	}

	public := user.Public().WithTokens(tokens)
	public.LastLoginAt = &now

	s.recorder.ObserveLogin(metrics.LoginSuccess)
	logger.FromContext(ctx).Infow("user logged in", "user_id", user.ID, "session_id", session.ID)

	return &LoginResponse{User: public, Session: session}, nil
}

// Logout closes the caller's session. Closing a closed session returns it
// unchanged. Someone else's session is reported exactly like a missing one.
func (s *AuthService) Logout(ctx context.Context, principal domain.Principal, sessionID uuid.UUID) (*domain.Session, error) {
	session, err := s.getOwnedSession(ctx, principal, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsOpen() {
		logoutTime, duration := session.CloseAt(pgTime(s.now()))

		closed, err := s.sessionRepo.Close(ctx, session.ID, logoutTime, duration)
		switch {
		case err == nil:
			session = closed
			s.recorder.ObserveSessionClosed()
		case errors.Is(err, repository.ErrAlreadyClosed):
			// A concurrent logout won, report what it stored
			session, err = s.getOwnedSession(ctx, principal, sessionID)
			if err != nil {
				return nil, err
			}
		default:
			return nil, domain.ErrInternal(err)
		}
	}

	s.revoke(ctx, principal)

	return session, nil
}

// Register creates a USER account and returns it with a fresh token pair
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.PublicUser, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, domain.ErrConflict(msgEmailRegistered)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrInternal(err)
	}

	passwordHash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, domain.ErrInternal(err)
	}

	tokens, err := s.issueTokens(ctx, req.Email, req.Name)
	if err != nil {
		return nil, err
	}

	now := pgTime(s.now())
	user := &domain.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		City:         req.City,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, domain.ErrConflict(msgEmailRegistered)
		}
		return nil, domain.ErrInternal(err)
	}

	logger.FromContext(ctx).Infow("user registered", "user_id", user.ID)

	return user.Public().WithTokens(tokens), nil
}

func (s *AuthService) getOwnedSession(ctx context.Context, principal domain.Principal, sessionID uuid.UUID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound(msgSessionNotFound)
		}
		return nil, domain.ErrInternal(err)
	}

	if !session.BelongsTo(principal.UserID) {
		return nil, domain.ErrNotFound(msgSessionNotFound)
	}

	return session, nil
}

func (s *AuthService) issueTokens(ctx context.Context, email, name string) (*domain.TokenPair, error) {
	tokens, err := s.issuer.Issue(ctx, domain.Identity{Email: email, Name: name})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenIssuance) {
			return nil, domain.ErrInternalMessage(msgTokenIssuance, err)
		}
		return nil, domain.ErrInternal(err)
	}
	return tokens, nil
}

func (s *AuthService) revoke(ctx context.Context, principal domain.Principal) {
	if s.revoker == nil || principal.Token == "" {
		return
	}
	if err := s.revoker.Revoke(ctx, principal.Token, principal.TokenExpiresAt); err != nil {
		logger.Warnw(ctx, "failed to revoke access token on logout", "user_id", principal.UserID, "error", err)
	}
}

// pgTime rounds t to what a timestamptz column stores, so values returned to
// callers match the persisted ones.
func pgTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
