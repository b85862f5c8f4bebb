package service

import (
	"context"
	"errors"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/google/uuid"
)

const defaultAdminName = "Administrator"

type UserService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	now      func() time.Time
}

type UpdateCityRequest struct {
	City string `json:"city" validate:"required,min=1,max=100"`
}

type CreateAdminRequest struct {
	Name     string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func NewUserService(userRepo repository.UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		now:      time.Now,
	}
}

// UpdateCity sets the caller's preferred city
func (s *UserService) UpdateCity(ctx context.Context, userID uuid.UUID, city string) (*domain.PublicUser, error) {
	user, err := s.userRepo.UpdateCity(ctx, userID, city)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("User not found")
		}
		return nil, domain.ErrInternal(err)
	}
	return user.Public(), nil
}

// CreateAdmin bootstraps an ADMIN account. If the email is already taken the
// existing user is returned with created=false and nothing is changed.
func (s *UserService) CreateAdmin(ctx context.Context, req CreateAdminRequest) (*domain.User, bool, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	passwordHash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, false, err
	}

	name := req.Name
	if name == "" {
		name = defaultAdminName
	}

	now := pgTime(s.now())
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			existing, getErr := s.userRepo.GetByEmail(ctx, req.Email)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return user, true, nil
}
