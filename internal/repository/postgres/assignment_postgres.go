package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"signflow/internal/model"
	"signflow/internal/repository"
)

// AssignmentPostgres is a PostgreSQL implementation of repository.AssignmentRepository.
// The UNIQUE (document_id, signer_id) constraint makes Create an atomic
// check-and-insert rather than a racy find-then-create.
type AssignmentPostgres struct {
	db *sql.DB
}

// NewAssignmentPostgres creates a new AssignmentPostgres repository.
func NewAssignmentPostgres(db *sql.DB) *AssignmentPostgres {
	return &AssignmentPostgres{db: db}
}

var _ repository.AssignmentRepository = (*AssignmentPostgres)(nil)

const assignmentColumns = "id, document_id, signer_id, signed_at, created_at"

// Create inserts a new assignment row. A unique violation on
// (document_id, signer_id) maps to repository.ErrDuplicate.
func (r *AssignmentPostgres) Create(ctx context.Context, documentID, signerID string) (*model.Assignment, error) {
	const q = `
		INSERT INTO assignments (document_id, signer_id)
		VALUES ($1, $2)
		RETURNING ` + assignmentColumns
	a, err := scanAssignment(r.db.QueryRowContext(ctx, q, documentID, signerID))
	if isUniqueViolation(err) {
		return nil, repository.ErrDuplicate
	}
	return a, err
}

// FindByID fetches a single assignment by its ID.
func (r *AssignmentPostgres) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	const q = `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE id = $1
	`
	return scanAssignment(r.db.QueryRowContext(ctx, q, id))
}

// FindBySigner returns all assignments for the given signer, newest first.
func (r *AssignmentPostgres) FindBySigner(ctx context.Context, signerID string) ([]model.Assignment, error) {
	const q = `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE signer_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, signerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByDocumentAndSigner returns the assignment binding the given document
// and signer.
func (r *AssignmentPostgres) FindByDocumentAndSigner(ctx context.Context, documentID, signerID string) (*model.Assignment, error) {
	const q = `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE document_id = $1 AND signer_id = $2
	`
	return scanAssignment(r.db.QueryRowContext(ctx, q, documentID, signerID))
}

// MarkSigned sets signed_at on a not-yet-signed assignment. The
// signed_at IS NULL guard keeps the write single-shot; a second attempt
// returns repository.ErrConflict.
func (r *AssignmentPostgres) MarkSigned(ctx context.Context, id string, at time.Time) (*model.Assignment, error) {
	const q = `
		UPDATE assignments
		SET signed_at = $2
		WHERE id = $1 AND signed_at IS NULL
		RETURNING ` + assignmentColumns
	a, err := scanAssignment(r.db.QueryRowContext(ctx, q, id, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrConflict
	}
	return a, err
}

func scanAssignment(row rowScanner) (*model.Assignment, error) {
	var (
		a        model.Assignment
		signedAt sql.NullTime
	)
	if err := row.Scan(
		&a.ID,
		&a.DocumentID,
		&a.SignerID,
		&signedAt,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if signedAt.Valid {
		t := signedAt.Time
		a.SignedAt = &t
	}
	return &a, nil
}
