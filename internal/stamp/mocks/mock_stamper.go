package mocks

import (
	"context"

	"signflow/internal/stamp"

	"github.com/stretchr/testify/mock"
)

type MockStamper struct {
	mock.Mock
}

func (m *MockStamper) Stamp(ctx context.Context, src, signature []byte, att stamp.Attestation, pl stamp.Placement) ([]byte, error) {
	args := m.Called(ctx, src, signature, att, pl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
