package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"signflow/internal/model"
	"signflow/internal/repository"
)

// UpdateProfileRequest carries the fields a user may change on their own
// account. Empty fields are left untouched.
type UpdateProfileRequest struct {
	Email    string
	Name     string
	Password string
}

// UserService exposes the authenticated user's own profile.
type UserService interface {
	// Profile returns the caller's account.
	Profile(ctx context.Context, actor Identity) (*model.User, error)

	// UpdateProfile applies the non-empty fields of req to the caller's
	// account. A new password is re-hashed; moving to a taken email
	// returns ErrEmailTaken.
	UpdateProfile(ctx context.Context, actor Identity, req UpdateProfileRequest) (*model.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Profile(ctx context.Context, actor Identity) (*model.User, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor Identity, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		user.Email = email
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if req.Password != "" {
		if len(req.Password) < minPasswordLen {
			return nil, ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return updated, nil
}
