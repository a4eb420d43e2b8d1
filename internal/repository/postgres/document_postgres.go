package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"signflow/internal/model"
	"signflow/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// Signature fields are stored as a JSONB column.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = "id, uploader_id, original_key, signed_key, status, signature_fields, reject_reason, created_at"

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	fields, err := marshalFields(doc.SignatureFields)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO documents (id, uploader_id, original_key, status, signature_fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.UploaderID,
		doc.OriginalKey,
		doc.Status,
		fields,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ListByUploader returns all documents owned by the given uploader, newest first.
func (r *DocumentPostgres) ListByUploader(ctx context.Context, uploaderID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE uploader_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, uploaderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// ListByIDs returns the documents matching the given IDs, newest first.
func (r *DocumentPostgres) ListByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return []model.Document{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	q := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// UpdateStatus performs a compare-and-swap on status. The WHERE clause
// re-checks the expected status at write time; zero affected rows means the
// swap was lost and the row is untouched.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, patch repository.DocumentPatch, expected model.DocumentStatus) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET status = $2, signed_key = COALESCE($3, signed_key), reject_reason = COALESCE($4, reject_reason)
		WHERE id = $1 AND status = $5
		RETURNING ` + documentColumns
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, id, patch.Status, patch.SignedKey, patch.RejectReason, expected))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrConflict
	}
	return doc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d            model.Document
		signedKey    sql.NullString
		rejectReason sql.NullString
		fields       []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.UploaderID,
		&d.OriginalKey,
		&signedKey,
		&d.Status,
		&fields,
		&rejectReason,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.SignedKey = signedKey.String
	d.RejectReason = rejectReason.String
	if err := json.Unmarshal(fields, &d.SignatureFields); err != nil {
		return nil, fmt.Errorf("decode signature fields: %w", err)
	}
	return &d, nil
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func marshalFields(fields []model.SignatureField) ([]byte, error) {
	if fields == nil {
		fields = []model.SignatureField{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode signature fields: %w", err)
	}
	return b, nil
}
