package repository

import (
	"context"

	"signflow/internal/model"
)

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a new user. Emails are unique case-insensitively;
	// inserting a taken email returns ErrDuplicate.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by its ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail returns a user by email, matched case-insensitively.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Update writes email, password_hash and name for an existing user.
	// Moving to a taken email returns ErrDuplicate.
	Update(ctx context.Context, u *model.User) (*model.User, error)
}
