package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"signflow/internal/model"
	"signflow/internal/service"
)

// MockAssignmentService is a testify mock for service.AssignmentService.
type MockAssignmentService struct {
	mock.Mock
}

func (m *MockAssignmentService) Assign(ctx context.Context, actor service.Identity, documentID, signerEmail string) (*model.Assignment, error) {
	args := m.Called(ctx, actor, documentID, signerEmail)
	assignment, _ := args.Get(0).(*model.Assignment)
	return assignment, args.Error(1)
}

func (m *MockAssignmentService) List(ctx context.Context, actor service.Identity) ([]service.AssignmentDetail, error) {
	args := m.Called(ctx, actor)
	details, _ := args.Get(0).([]service.AssignmentDetail)
	return details, args.Error(1)
}

func (m *MockAssignmentService) Get(ctx context.Context, actor service.Identity, id string) (*service.AssignmentDetail, error) {
	args := m.Called(ctx, actor, id)
	detail, _ := args.Get(0).(*service.AssignmentDetail)
	return detail, args.Error(1)
}
