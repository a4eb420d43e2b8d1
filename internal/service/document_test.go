package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"signflow/internal/config"
	"signflow/internal/model"
	"signflow/internal/repository"
	repoMocks "signflow/internal/repository/mocks"
	"signflow/internal/stamp"
	stampMocks "signflow/internal/stamp/mocks"
	"signflow/internal/storage"
	storeMocks "signflow/internal/storage/mocks"
)

var testStampCfg = config.StampConfig{
	DefaultPage: 0,
	DefaultX:    100,
	DefaultY:    100,
	FieldWidth:  100,
}

type docServiceMocks struct {
	store       *storeMocks.MockStorage
	docs        *repoMocks.MockDocumentRepository
	assignments *repoMocks.MockAssignmentRepository
	users       *repoMocks.MockUserRepository
	stamper     *stampMocks.MockStamper
}

func newDocumentService(t *testing.T) (DocumentService, *docServiceMocks) {
	t.Helper()
	m := &docServiceMocks{
		store:       new(storeMocks.MockStorage),
		docs:        new(repoMocks.MockDocumentRepository),
		assignments: new(repoMocks.MockAssignmentRepository),
		users:       new(repoMocks.MockUserRepository),
		stamper:     new(stampMocks.MockStamper),
	}
	svc := NewDocumentService(m.store, m.docs, m.assignments, m.users, m.stamper, testStampCfg)
	return svc, m
}

func (m *docServiceMocks) assertExpectations(t *testing.T) {
	m.store.AssertExpectations(t)
	m.docs.AssertExpectations(t)
	m.assignments.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.stamper.AssertExpectations(t)
}

var (
	uploader = Identity{UserID: "uploader-1", Role: model.RoleUploader}
	signer   = Identity{UserID: "signer-1", Role: model.RoleSigner}
)

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		actor      Identity
		setupMocks func(m *docServiceMocks) io.Reader
		wantErr    error
		wantErrMsg string
	}{
		{
			name:  "happy path",
			actor: uploader,
			setupMocks: func(m *docServiceMocks) io.Reader {
				r := strings.NewReader("%PDF-1.4")
				m.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "pdfs/") && strings.HasSuffix(key, ".pdf")
				}), r, storage.PutObjectOptions{
					Size:        8,
					ContentType: "application/pdf",
					Metadata:    map[string]string{"original-filename": "contract.pdf"},
				}).Return(storage.ObjectInfo{Key: "pdfs/uuid.pdf"}, nil)

				m.docs.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.UploaderID == "uploader-1" &&
						doc.OriginalKey == "pdfs/uuid.pdf" &&
						doc.Status == model.StatusPending
				})).Return(&model.Document{ID: "doc-1", Status: model.StatusPending}, nil)
				return r
			},
		},
		{
			name:  "signer cannot upload",
			actor: signer,
			setupMocks: func(m *docServiceMocks) io.Reader {
				return strings.NewReader("%PDF-1.4")
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "nil reader",
			actor: uploader,
			setupMocks: func(m *docServiceMocks) io.Reader {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name:  "db failure rolls back the stored object",
			actor: uploader,
			setupMocks: func(m *docServiceMocks) io.Reader {
				r := strings.NewReader("%PDF-1.4")
				m.store.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{Key: "pdfs/uuid.pdf"}, nil)
				m.docs.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("insert fail"))
				m.store.On("Delete", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "pdfs/")
				})).Return(nil)
				return r
			},
			wantErrMsg: "db save failed: insert fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newDocumentService(t)
			r := tt.setupMocks(m)

			doc, err := svc.Upload(ctx, tt.actor, r, "contract.pdf", "application/pdf", 8, nil)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else if tt.wantErrMsg != "" {
				assert.EqualError(t, err, tt.wantErrMsg)
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusPending, doc.Status)
			}
			m.assertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("uploader sees owned documents", func(t *testing.T) {
		svc, m := newDocumentService(t)
		m.docs.On("ListByUploader", ctx, "uploader-1").
			Return([]model.Document{{ID: "doc-1"}, {ID: "doc-2"}}, nil)

		docs, err := svc.List(ctx, uploader)

		assert.NoError(t, err)
		assert.Len(t, docs, 2)
		m.assertExpectations(t)
	})

	t.Run("signer sees assigned documents", func(t *testing.T) {
		svc, m := newDocumentService(t)
		m.assignments.On("FindBySigner", ctx, "signer-1").
			Return([]model.Assignment{{ID: "as-1", DocumentID: "doc-1"}}, nil)
		m.docs.On("ListByIDs", ctx, []string{"doc-1"}).
			Return([]model.Document{{ID: "doc-1"}}, nil)

		docs, err := svc.List(ctx, signer)

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		m.assertExpectations(t)
	})
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	stored := &model.Document{ID: "doc-1", UploaderID: "uploader-1", Status: model.StatusPending}

	tests := []struct {
		name       string
		actor      Identity
		setupMocks func(m *docServiceMocks)
		wantErr    error
	}{
		{
			name:  "owner reads own document",
			actor: uploader,
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(stored, nil)
				m.users.On("FindByID", ctx, "uploader-1").
					Return(&model.User{ID: "uploader-1", Email: "owner@example.com"}, nil)
			},
		},
		{
			name:  "other uploader forbidden",
			actor: Identity{UserID: "uploader-2", Role: model.RoleUploader},
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(stored, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "assigned signer reads document",
			actor: signer,
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(stored, nil)
				m.assignments.On("FindByDocumentAndSigner", ctx, "doc-1", "signer-1").
					Return(&model.Assignment{ID: "as-1"}, nil)
				m.users.On("FindByID", ctx, "uploader-1").
					Return(&model.User{ID: "uploader-1", Email: "owner@example.com"}, nil)
			},
		},
		{
			name:  "unassigned signer forbidden",
			actor: Identity{UserID: "signer-2", Role: model.RoleSigner},
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(stored, nil)
				m.assignments.On("FindByDocumentAndSigner", ctx, "doc-1", "signer-2").
					Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "missing document",
			actor: uploader,
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newDocumentService(t)
			tt.setupMocks(m)

			detail, err := svc.Get(ctx, tt.actor, "doc-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, detail)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "doc-1", detail.ID)
				assert.Equal(t, "owner@example.com", detail.UploaderEmail)
			}
			m.assertExpectations(t)
		})
	}
}

func TestDocumentService_Sign(t *testing.T) {
	ctx := context.Background()
	req := SignRequest{
		Signature: []byte("png-bytes"),
		Name:      "Sam Signer",
		Email:     "sam@example.com",
		Date:      "2026-08-31",
	}
	pending := func() *model.Document {
		return &model.Document{
			ID:          "doc-1",
			UploaderID:  "uploader-1",
			OriginalKey: "pdfs/original.pdf",
			Status:      model.StatusPending,
		}
	}

	t.Run("happy path stamps, stores and transitions", func(t *testing.T) {
		svc, m := newDocumentService(t)
		m.docs.On("FindByID", ctx, "doc-1").Return(pending(), nil)
		m.assignments.On("FindByDocumentAndSigner", ctx, "doc-1", "signer-1").
			Return(&model.Assignment{ID: "as-1"}, nil)
		m.store.On("Get", ctx, "pdfs/original.pdf").
			Return(io.NopCloser(bytes.NewReader([]byte("%PDF-1.4"))), storage.ObjectInfo{}, nil)
		m.stamper.On("Stamp", ctx, []byte("%PDF-1.4"), req.Signature, stamp.Attestation{
			Name:  "Sam Signer",
			Email: "sam@example.com",
			Date:  "2026-08-31",
		}, stamp.Placement{X: 100, Y: 100, Page: 0}).
			Return([]byte("stamped"), nil)
		m.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "signed/") && strings.HasSuffix(key, ".pdf")
		}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
		m.docs.On("UpdateStatus", ctx, "doc-1", mock.MatchedBy(func(patch repository.DocumentPatch) bool {
			return patch.Status == model.StatusSigned && patch.SignedKey != nil
		}), model.StatusPending).
			Return(&model.Document{ID: "doc-1", Status: model.StatusSigned}, nil)
		m.assignments.On("MarkSigned", ctx, "as-1", mock.Anything).
			Return(&model.Assignment{ID: "as-1"}, nil)

		doc, err := svc.Sign(ctx, signer, "doc-1", req)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusSigned, doc.Status)
		m.assertExpectations(t)
	})

	t.Run("field placement overrides defaults", func(t *testing.T) {
		svc, m := newDocumentService(t)
		doc := pending()
		doc.SignatureFields = []model.SignatureField{{FieldType: "signature", X: 42, Y: 700, Page: 1}}
		m.docs.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.assignments.On("FindByDocumentAndSigner", ctx, "doc-1", "signer-1").
			Return(&model.Assignment{ID: "as-1"}, nil)
		m.store.On("Get", ctx, "pdfs/original.pdf").
			Return(io.NopCloser(bytes.NewReader([]byte("%PDF-1.4"))), storage.ObjectInfo{}, nil)
		m.stamper.On("Stamp", ctx, mock.Anything, mock.Anything, mock.Anything,
			stamp.Placement{X: 42, Y: 700, Page: 1}).
			Return([]byte("stamped"), nil)
		m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		m.docs.On("UpdateStatus", ctx, "doc-1", mock.Anything, model.StatusPending).
			Return(&model.Document{ID: "doc-1", Status: model.StatusSigned}, nil)
		m.assignments.On("MarkSigned", ctx, "as-1", mock.Anything).
			Return(&model.Assignment{ID: "as-1"}, nil)

		_, err := svc.Sign(ctx, signer, "doc-1", req)

		assert.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("uploader cannot sign", func(t *testing.T) {
		svc, m := newDocumentService(t)

		_, err := svc.Sign(ctx, uploader, "doc-1", req)

		assert.ErrorIs(t, err, ErrForbidden)
		m.assertExpectations(t)
	})

	t.Run("unassigned signer forbidden before any mutation", func(t *testing.T) {
		svc, m := newDocumentService(t)
		m.docs.On("FindByID", ctx, "doc-1").Return(pending(), nil)
		m.assignments.On("FindByDocumentAndSigner", ctx, "doc-1", "signer-1").
			Return(nil, sql.ErrNoRows)

		_, err := svc.Sign(ctx, signer, "doc-1", req)

		assert.ErrorIs(t, err, ErrForbidden)
		m.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("already signed document rejected", func(t *testing.T) {
		svc, m := newDocumentService(t)
		doc := pending()
		doc.Status = model.StatusSigned
		m.docs.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.assignments.On("FindByDocumentAndSigner", ctx, "doc-1", "signer-1").
			Return(&model.Assignment{ID: "as-1"}, nil)

		_, err := svc.Sign(ctx, signer, "doc-1", req)

		assert.ErrorIs(t, err, ErrInvalidState)
		m.assertExpectations(t)
	})

	t.Run("lost status race discards the stored blob", func(t *testing.T) {
		svc, m := newDocumentService(t)
		m.docs.On("FindByID", ctx, "doc-1").Return(pending(), nil)
		m.assignments.On("FindByDocumentAndSigner", ctx, "doc-1", "signer-1").
			Return(&model.Assignment{ID: "as-1"}, nil)
		m.store.On("Get", ctx, "pdfs/original.pdf").
			Return(io.NopCloser(bytes.NewReader([]byte("%PDF-1.4"))), storage.ObjectInfo{}, nil)
		m.stamper.On("Stamp", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]byte("stamped"), nil)
		m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		m.docs.On("UpdateStatus", ctx, "doc-1", mock.Anything, model.StatusPending).
			Return(nil, repository.ErrConflict)
		m.store.On("Delete", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "signed/")
		})).Return(nil)

		_, err := svc.Sign(ctx, signer, "doc-1", req)

		assert.ErrorIs(t, err, ErrInvalidState)
		m.assignments.AssertNotCalled(t, "MarkSigned", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("stamper errors pass through", func(t *testing.T) {
		svc, m := newDocumentService(t)
		m.docs.On("FindByID", ctx, "doc-1").Return(pending(), nil)
		m.assignments.On("FindByDocumentAndSigner", ctx, "doc-1", "signer-1").
			Return(&model.Assignment{ID: "as-1"}, nil)
		m.store.On("Get", ctx, "pdfs/original.pdf").
			Return(io.NopCloser(bytes.NewReader([]byte("not a pdf"))), storage.ObjectInfo{}, nil)
		m.stamper.On("Stamp", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, stamp.ErrInvalidPDF)

		_, err := svc.Sign(ctx, signer, "doc-1", req)

		assert.ErrorIs(t, err, stamp.ErrInvalidPDF)
		m.assertExpectations(t)
	})
}

func TestDocumentService_Review(t *testing.T) {
	ctx := context.Background()
	signed := func() *model.Document {
		return &model.Document{ID: "doc-1", UploaderID: "uploader-1", Status: model.StatusSigned}
	}

	tests := []struct {
		name       string
		actor      Identity
		call       func(svc DocumentService) (*model.Document, error)
		setupMocks func(m *docServiceMocks)
		wantStatus model.DocumentStatus
		wantErr    error
	}{
		{
			name: "verify happy path",
			call: func(svc DocumentService) (*model.Document, error) {
				return svc.Verify(ctx, uploader, "doc-1")
			},
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(signed(), nil)
				m.docs.On("UpdateStatus", ctx, "doc-1",
					repository.DocumentPatch{Status: model.StatusVerified}, model.StatusSigned).
					Return(&model.Document{ID: "doc-1", Status: model.StatusVerified}, nil)
			},
			wantStatus: model.StatusVerified,
		},
		{
			name: "reject happy path",
			call: func(svc DocumentService) (*model.Document, error) {
				return svc.Reject(ctx, uploader, "doc-1", "")
			},
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(signed(), nil)
				m.docs.On("UpdateStatus", ctx, "doc-1",
					repository.DocumentPatch{Status: model.StatusRejected}, model.StatusSigned).
					Return(&model.Document{ID: "doc-1", Status: model.StatusRejected}, nil)
			},
			wantStatus: model.StatusRejected,
		},
		{
			name: "reject records the reason",
			call: func(svc DocumentService) (*model.Document, error) {
				return svc.Reject(ctx, uploader, "doc-1", "wrong signee")
			},
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(signed(), nil)
				m.docs.On("UpdateStatus", ctx, "doc-1",
					mock.MatchedBy(func(patch repository.DocumentPatch) bool {
						return patch.Status == model.StatusRejected &&
							patch.RejectReason != nil && *patch.RejectReason == "wrong signee"
					}), model.StatusSigned).
					Return(&model.Document{ID: "doc-1", Status: model.StatusRejected, RejectReason: "wrong signee"}, nil)
			},
			wantStatus: model.StatusRejected,
		},
		{
			name: "signer cannot verify",
			call: func(svc DocumentService) (*model.Document, error) {
				return svc.Verify(ctx, signer, "doc-1")
			},
			setupMocks: func(m *docServiceMocks) {},
			wantErr:    ErrForbidden,
		},
		{
			name: "non-owner cannot verify",
			call: func(svc DocumentService) (*model.Document, error) {
				return svc.Verify(ctx, Identity{UserID: "uploader-2", Role: model.RoleUploader}, "doc-1")
			},
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(signed(), nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name: "pending document cannot be verified",
			call: func(svc DocumentService) (*model.Document, error) {
				return svc.Verify(ctx, uploader, "doc-1")
			},
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").
					Return(&model.Document{ID: "doc-1", UploaderID: "uploader-1", Status: model.StatusPending}, nil)
			},
			wantErr: ErrInvalidState,
		},
		{
			name: "lost race maps to invalid state",
			call: func(svc DocumentService) (*model.Document, error) {
				return svc.Reject(ctx, uploader, "doc-1", "")
			},
			setupMocks: func(m *docServiceMocks) {
				m.docs.On("FindByID", ctx, "doc-1").Return(signed(), nil)
				m.docs.On("UpdateStatus", ctx, "doc-1", mock.Anything, model.StatusSigned).
					Return(nil, repository.ErrConflict)
			},
			wantErr: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newDocumentService(t)
			tt.setupMocks(m)

			doc, err := tt.call(svc)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantStatus, doc.Status)
			}
			m.assertExpectations(t)
		})
	}
}

func TestDocumentService_DownloadURL(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers the signed object", func(t *testing.T) {
		svc, m := newDocumentService(t)
		m.docs.On("FindByID", ctx, "doc-1").Return(&model.Document{
			ID:          "doc-1",
			UploaderID:  "uploader-1",
			OriginalKey: "pdfs/original.pdf",
			SignedKey:   "signed/stamped.pdf",
			Status:      model.StatusSigned,
		}, nil)
		m.store.On("PresignGet", ctx, "signed/stamped.pdf", downloadExpiry).
			Return("https://minio.local/signed", nil)

		url, err := svc.DownloadURL(ctx, uploader, "doc-1")

		assert.NoError(t, err)
		assert.Equal(t, "https://minio.local/signed", url)
		m.assertExpectations(t)
	})

	t.Run("falls back to the original", func(t *testing.T) {
		svc, m := newDocumentService(t)
		m.docs.On("FindByID", ctx, "doc-1").Return(&model.Document{
			ID:          "doc-1",
			UploaderID:  "uploader-1",
			OriginalKey: "pdfs/original.pdf",
			Status:      model.StatusPending,
		}, nil)
		m.store.On("PresignGet", ctx, "pdfs/original.pdf", downloadExpiry).
			Return("https://minio.local/original", nil)

		url, err := svc.DownloadURL(ctx, uploader, "doc-1")

		assert.NoError(t, err)
		assert.Equal(t, "https://minio.local/original", url)
		m.assertExpectations(t)
	})
}
