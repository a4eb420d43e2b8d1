package repository

import (
	"context"
	"time"

	"signflow/internal/model"
)

// AssignmentRepository defines data access for document-signer assignments.
type AssignmentRepository interface {
	// Create inserts a new assignment. The (documentID, signerID) pair is
	// guarded by a database uniqueness constraint, so the check-and-insert
	// is atomic; a second insert for the same pair returns ErrDuplicate.
	Create(ctx context.Context, documentID, signerID string) (*model.Assignment, error)

	// FindByID returns an assignment by its ID.
	FindByID(ctx context.Context, id string) (*model.Assignment, error)

	// FindBySigner returns all assignments for the given signer, newest first.
	FindBySigner(ctx context.Context, signerID string) ([]model.Assignment, error)

	// FindByDocumentAndSigner returns the assignment binding the given
	// document and signer, or sql.ErrNoRows if none exists.
	FindByDocumentAndSigner(ctx context.Context, documentID, signerID string) (*model.Assignment, error)

	// MarkSigned sets signed_at, which may only happen once: a row whose
	// signed_at is already set returns ErrConflict.
	MarkSigned(ctx context.Context, id string, at time.Time) (*model.Assignment, error)
}
