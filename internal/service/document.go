package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"signflow/internal/config"
	"signflow/internal/model"
	"signflow/internal/repository"
	"signflow/internal/stamp"
	"signflow/internal/storage"
)

const (
	pdfContentType = "application/pdf"
	downloadExpiry = 15 * time.Minute
)

// SignRequest carries the signer's submitted signature. Signature is the
// decoded PNG bytes; the attestation strings are drawn below the stamp.
type SignRequest struct {
	Signature []byte
	Name      string
	Email     string
	Date      string
}

// DocumentDetail is a document together with its uploader's email, resolved
// by an explicit second fetch.
type DocumentDetail struct {
	model.Document
	UploaderEmail string `json:"uploader_email,omitempty"`
}

// DocumentService drives the document lifecycle:
//
//	PENDING -> SIGNED -> {VERIFIED, REJECTED}
//
// Transitions check authorization before any mutation and commit through a
// compare-and-swap on the stored status, so concurrent attempts on the same
// document resolve to exactly one winner.
type DocumentService interface {
	// Upload stores the PDF content and creates a PENDING document owned by
	// the actor. Rolls back the stored object if the record insert fails.
	Upload(ctx context.Context, actor Identity, r io.Reader, originalFilename, contentType string, size int64, fields []model.SignatureField) (*model.Document, error)

	// List returns the actor's documents: owned ones for an uploader,
	// assigned ones for a signer. Newest first.
	List(ctx context.Context, actor Identity) ([]model.Document, error)

	// Get returns a single document with the uploader email resolved.
	// Uploaders may read their own documents, signers the ones assigned to
	// them.
	Get(ctx context.Context, actor Identity, id string) (*DocumentDetail, error)

	// Sign stamps the original PDF with the actor's signature, stores the
	// result, and moves the document PENDING -> SIGNED. The status swap is
	// the commit point: if it is lost to a concurrent signer the stored
	// blob is discarded and ErrInvalidState is returned.
	Sign(ctx context.Context, actor Identity, id string, req SignRequest) (*model.Document, error)

	// Verify moves the document SIGNED -> VERIFIED. Owner only.
	Verify(ctx context.Context, actor Identity, id string) (*model.Document, error)

	// Reject moves the document SIGNED -> REJECTED, recording the optional
	// reason. Owner only.
	Reject(ctx context.Context, actor Identity, id, reason string) (*model.Document, error)

	// DownloadURL returns a presigned URL for the signed PDF when present,
	// otherwise for the original. Authorization matches Get.
	DownloadURL(ctx context.Context, actor Identity, id string) (string, error)
}

type documentService struct {
	store       storage.Storage
	docs        repository.DocumentRepository
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	stamper     stamp.Stamper
	stampCfg    config.StampConfig
}

// NewDocumentService constructs a DocumentService with explicit
// dependencies; no package-level state is involved.
func NewDocumentService(
	store storage.Storage,
	docs repository.DocumentRepository,
	assignments repository.AssignmentRepository,
	users repository.UserRepository,
	stamper stamp.Stamper,
	stampCfg config.StampConfig,
) DocumentService {
	return &documentService{
		store:       store,
		docs:        docs,
		assignments: assignments,
		users:       users,
		stamper:     stamper,
		stampCfg:    stampCfg,
	}
}

func (s *documentService) Upload(ctx context.Context, actor Identity, r io.Reader, originalFilename, contentType string, size int64, fields []model.SignatureField) (*model.Document, error) {
	if actor.Role != model.RoleUploader {
		return nil, ErrForbidden
	}
	if r == nil {
		return nil, ErrReaderNil
	}

	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = ".pdf"
	}
	key := filepath.ToSlash(filepath.Join("pdfs", uuid.New().String()+ext))
	if contentType == "" {
		contentType = pdfContentType
	}

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:              uuid.New().String(),
		UploaderID:      actor.UserID,
		OriginalKey:     objInfo.Key,
		Status:          model.StatusPending,
		SignatureFields: fields,
		CreatedAt:       time.Now().UTC(),
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *documentService) List(ctx context.Context, actor Identity) ([]model.Document, error) {
	switch actor.Role {
	case model.RoleUploader:
		return s.docs.ListByUploader(ctx, actor.UserID)
	case model.RoleSigner:
		assignments, err := s.assignments.FindBySigner(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(assignments))
		for _, a := range assignments {
			ids = append(ids, a.DocumentID)
		}
		return s.docs.ListByIDs(ctx, ids)
	default:
		return nil, ErrForbidden
	}
}

func (s *documentService) Get(ctx context.Context, actor Identity, id string) (*DocumentDetail, error) {
	doc, err := s.authorizedDocument(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	detail := &DocumentDetail{Document: *doc}
	uploader, err := s.users.FindByID(ctx, doc.UploaderID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	} else {
		detail.UploaderEmail = uploader.Email
	}
	return detail, nil
}

func (s *documentService) Sign(ctx context.Context, actor Identity, id string, req SignRequest) (*model.Document, error) {
	if actor.Role != model.RoleSigner {
		return nil, ErrForbidden
	}
	if id == "" {
		return nil, ErrIDRequired
	}

	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	// Authorization before any mutation: the actor must hold an assignment
	// for this document.
	assignment, err := s.assignments.FindByDocumentAndSigner(ctx, id, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	if doc.Status != model.StatusPending {
		return nil, ErrInvalidState
	}

	rc, _, err := s.store.Get(ctx, doc.OriginalKey)
	if err != nil {
		return nil, fmt.Errorf("fetch original: %w", err)
	}
	original, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}

	stamped, err := s.stamper.Stamp(ctx, original, req.Signature, stamp.Attestation{
		Name:  req.Name,
		Email: req.Email,
		Date:  req.Date,
	}, s.placementFor(doc))
	if err != nil {
		return nil, err
	}

	signedKey := filepath.ToSlash(filepath.Join("signed", uuid.New().String()+".pdf"))
	if _, err := s.store.Put(ctx, signedKey, bytes.NewReader(stamped), storage.PutObjectOptions{
		Size:        int64(len(stamped)),
		ContentType: pdfContentType,
	}); err != nil {
		return nil, fmt.Errorf("store signed pdf: %w", err)
	}

	// The record update is the commit point. Losing the swap means a
	// concurrent sign already won; the blob stored above was never
	// referenced, so dropping it is safe.
	updated, err := s.docs.UpdateStatus(ctx, id, repository.DocumentPatch{
		Status:    model.StatusSigned,
		SignedKey: &signedKey,
	}, model.StatusPending)
	if err != nil {
		_ = s.store.Delete(ctx, signedKey)
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("commit signing: %w", err)
	}

	// signed_at is guarded to a single write; a conflict here means it was
	// already set and there is nothing left to do.
	if _, err := s.assignments.MarkSigned(ctx, assignment.ID, time.Now().UTC()); err != nil && !errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("mark assignment signed: %w", err)
	}
	return updated, nil
}

func (s *documentService) Verify(ctx context.Context, actor Identity, id string) (*model.Document, error) {
	return s.review(ctx, actor, id, model.StatusVerified, "")
}

func (s *documentService) Reject(ctx context.Context, actor Identity, id, reason string) (*model.Document, error) {
	return s.review(ctx, actor, id, model.StatusRejected, reason)
}

// review applies a SIGNED -> terminal transition on behalf of the owning
// uploader.
func (s *documentService) review(ctx context.Context, actor Identity, id string, to model.DocumentStatus, reason string) (*model.Document, error) {
	if actor.Role != model.RoleUploader {
		return nil, ErrForbidden
	}
	if id == "" {
		return nil, ErrIDRequired
	}

	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if doc.UploaderID != actor.UserID {
		return nil, ErrForbidden
	}
	if doc.Status != model.StatusSigned {
		return nil, ErrInvalidState
	}

	patch := repository.DocumentPatch{Status: to}
	if to == model.StatusRejected && reason != "" {
		patch.RejectReason = &reason
	}
	updated, err := s.docs.UpdateStatus(ctx, id, patch, model.StatusSigned)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	return updated, nil
}

func (s *documentService) DownloadURL(ctx context.Context, actor Identity, id string) (string, error) {
	doc, err := s.authorizedDocument(ctx, actor, id)
	if err != nil {
		return "", err
	}

	key := doc.OriginalKey
	if doc.SignedKey != "" {
		key = doc.SignedKey
	}
	return s.store.PresignGet(ctx, key, downloadExpiry)
}

// authorizedDocument fetches a document and checks read access: uploaders
// see their own documents, signers the ones assigned to them.
func (s *documentService) authorizedDocument(ctx context.Context, actor Identity, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	switch actor.Role {
	case model.RoleUploader:
		if doc.UploaderID != actor.UserID {
			return nil, ErrForbidden
		}
	case model.RoleSigner:
		if _, err := s.assignments.FindByDocumentAndSigner(ctx, id, actor.UserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrForbidden
			}
			return nil, err
		}
	default:
		return nil, ErrForbidden
	}
	return doc, nil
}

// placementFor picks the stamp placement: the first captured signature
// field when present, otherwise the configured defaults.
func (s *documentService) placementFor(doc *model.Document) stamp.Placement {
	if len(doc.SignatureFields) > 0 {
		f := doc.SignatureFields[0]
		return stamp.Placement{X: f.X, Y: f.Y, Page: f.Page}
	}
	return stamp.Placement{
		X:    s.stampCfg.DefaultX,
		Y:    s.stampCfg.DefaultY,
		Page: s.stampCfg.DefaultPage,
	}
}
