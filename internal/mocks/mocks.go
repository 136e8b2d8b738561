package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"group-order-service/internal/models"
)

// StoreMock is a testify mock of store.Store.
type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Create(ctx context.Context, session *models.GroupSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *StoreMock) Get(ctx context.Context, id string) (*models.GroupSession, error) {
	args := m.Called(ctx, id)
	var session *models.GroupSession
	if val := args.Get(0); val != nil {
		session = val.(*models.GroupSession)
	}
	return session, args.Error(1)
}

func (m *StoreMock) Put(ctx context.Context, session *models.GroupSession, expectedVersion int64) error {
	args := m.Called(ctx, session, expectedVersion)
	return args.Error(0)
}

func (m *StoreMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StoreMock) List(ctx context.Context) ([]*models.GroupSession, error) {
	args := m.Called(ctx)
	var list []*models.GroupSession
	if val := args.Get(0); val != nil {
		list = val.([]*models.GroupSession)
	}
	return list, args.Error(1)
}

func (m *StoreMock) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}
