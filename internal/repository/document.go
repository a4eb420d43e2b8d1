package repository

import (
	"context"

	"signflow/internal/model"
)

// DocumentPatch is the set of fields a status transition may change.
// SignedKey and RejectReason are only written when non-nil.
type DocumentPatch struct {
	Status       model.DocumentStatus
	SignedKey    *string
	RejectReason *string
}

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByUploader returns all documents owned by the given uploader,
	// newest first.
	ListByUploader(ctx context.Context, uploaderID string) ([]model.Document, error)

	// ListByIDs returns the documents matching the given IDs, newest first.
	// Missing IDs are silently skipped.
	ListByIDs(ctx context.Context, ids []string) ([]model.Document, error)

	// UpdateStatus applies patch as a compare-and-swap on status: the write
	// succeeds only if the stored status still equals expected at write
	// time. A lost race returns ErrConflict and leaves the row untouched.
	UpdateStatus(ctx context.Context, id string, patch DocumentPatch, expected model.DocumentStatus) (*model.Document, error)
}
