package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/repository"
	"github.com/stemsi/lms-backend/internal/response"
)

// UserService manages accounts.
type UserService struct {
	users UserStore
	auth  *AuthService
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, auth *AuthService, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// Create registers an account with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, invalid("role", "role must be one of student, teacher or admin")
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int("user_id", u.ID).Str("role", string(u.Role)).Msg("User created")
	return u, nil
}

// List returns accounts, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role model.Role, page, perPage int) ([]model.User, *response.Pagination, error) {
	if role != "" && !role.Valid() {
		return nil, nil, invalid("role", "role must be one of student, teacher or admin")
	}
	limit, offset, page, perPage := pageBounds(page, perPage)

	users, total, err := s.users.List(ctx, role, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, response.NewPagination(page, perPage, total), nil
}
