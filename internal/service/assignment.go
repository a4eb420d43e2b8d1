package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"signflow/internal/model"
	"signflow/internal/repository"
)

// AssignmentDetail joins an assignment with its document and the document's
// uploader email for signer-facing listings.
type AssignmentDetail struct {
	model.Assignment
	Document      *model.Document `json:"document,omitempty"`
	UploaderEmail string          `json:"uploader_email,omitempty"`
}

// AssignmentService manages the link between a document and the signer
// expected to sign it. At most one assignment exists per (document, signer)
// pair; the store enforces the uniqueness so concurrent creates cannot race
// past the check.
type AssignmentService interface {
	// Assign creates an assignment from the actor's PENDING document to the
	// signer identified by email. Only the owning uploader may assign.
	Assign(ctx context.Context, actor Identity, documentID, signerEmail string) (*model.Assignment, error)

	// List returns the actor's assignments with their documents resolved.
	// Signer only.
	List(ctx context.Context, actor Identity) ([]AssignmentDetail, error)

	// Get returns a single assignment. Visible to the assigned signer and
	// to the document's uploader.
	Get(ctx context.Context, actor Identity, id string) (*AssignmentDetail, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	docs        repository.DocumentRepository
	users       repository.UserRepository
}

func NewAssignmentService(
	assignments repository.AssignmentRepository,
	docs repository.DocumentRepository,
	users repository.UserRepository,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		docs:        docs,
		users:       users,
	}
}

func (s *assignmentService) Assign(ctx context.Context, actor Identity, documentID, signerEmail string) (*model.Assignment, error) {
	if actor.Role != model.RoleUploader {
		return nil, ErrForbidden
	}
	if documentID == "" {
		return nil, ErrIDRequired
	}

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if doc.UploaderID != actor.UserID {
		return nil, ErrForbidden
	}
	if doc.Status != model.StatusPending {
		return nil, ErrInvalidState
	}

	signer, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(signerEmail)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignerNotFound
		}
		return nil, err
	}
	if signer.Role != model.RoleSigner {
		return nil, ErrSignerNotFound
	}

	assignment, err := s.assignments.Create(ctx, documentID, signer.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateAssignment
		}
		return nil, err
	}
	return assignment, nil
}

func (s *assignmentService) List(ctx context.Context, actor Identity) ([]AssignmentDetail, error) {
	if actor.Role != model.RoleSigner {
		return nil, ErrForbidden
	}

	assignments, err := s.assignments.FindBySigner(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return []AssignmentDetail{}, nil
	}

	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.DocumentID)
	}
	docs, err := s.docs.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Document, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}

	// Resolve uploader emails once per distinct uploader.
	emails := make(map[string]string)
	details := make([]AssignmentDetail, 0, len(assignments))
	for _, a := range assignments {
		detail := AssignmentDetail{Assignment: a}
		if doc, ok := byID[a.DocumentID]; ok {
			detail.Document = doc
			email, cached := emails[doc.UploaderID]
			if !cached {
				uploader, err := s.users.FindByID(ctx, doc.UploaderID)
				if err != nil && !errors.Is(err, sql.ErrNoRows) {
					return nil, err
				}
				if err == nil {
					email = uploader.Email
				}
				emails[doc.UploaderID] = email
			}
			detail.UploaderEmail = email
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *assignmentService) Get(ctx context.Context, actor Identity, id string) (*AssignmentDetail, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	doc, err := s.docs.FindByID(ctx, assignment.DocumentID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	allowed := (actor.Role == model.RoleSigner && assignment.SignerID == actor.UserID) ||
		(actor.Role == model.RoleUploader && doc.UploaderID == actor.UserID)
	if !allowed {
		return nil, ErrForbidden
	}

	detail := &AssignmentDetail{Assignment: *assignment, Document: doc}
	uploader, err := s.users.FindByID(ctx, doc.UploaderID)
	if err == nil {
		detail.UploaderEmail = uploader.Email
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return detail, nil
}
