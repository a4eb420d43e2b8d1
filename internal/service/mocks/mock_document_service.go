package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"signflow/internal/model"
	"signflow/internal/service"
)

// MockDocumentService is a testify mock for service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, actor service.Identity, r io.Reader, originalFilename, contentType string, size int64, fields []model.SignatureField) (*model.Document, error) {
	args := m.Called(ctx, actor, r, originalFilename, contentType, size, fields)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, actor service.Identity) ([]model.Document, error) {
	args := m.Called(ctx, actor)
	docs, _ := args.Get(0).([]model.Document)
	return docs, args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, actor service.Identity, id string) (*service.DocumentDetail, error) {
	args := m.Called(ctx, actor, id)
	detail, _ := args.Get(0).(*service.DocumentDetail)
	return detail, args.Error(1)
}

func (m *MockDocumentService) Sign(ctx context.Context, actor service.Identity, id string, req service.SignRequest) (*model.Document, error) {
	args := m.Called(ctx, actor, id, req)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}

func (m *MockDocumentService) Verify(ctx context.Context, actor service.Identity, id string) (*model.Document, error) {
	args := m.Called(ctx, actor, id)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}

func (m *MockDocumentService) Reject(ctx context.Context, actor service.Identity, id, reason string) (*model.Document, error) {
	args := m.Called(ctx, actor, id, reason)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, actor service.Identity, id string) (string, error) {
	args := m.Called(ctx, actor, id)
	return args.String(0), args.Error(1)
}
