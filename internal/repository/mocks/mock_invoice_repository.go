package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"freightflow/internal/model"
	"freightflow/internal/repository"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) InsertBatch(ctx context.Context, recs []model.InvoiceRecord) error {
	args := m.Called(ctx, recs)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ListPage(ctx context.Context, q repository.CursorQuery) ([]model.InvoiceRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceRepository) UpdatePaidField(ctx context.Context, owner, id, field string, value bool, updatedAt time.Time) error {
	args := m.Called(ctx, owner, id, field, value, updatedAt)
	return args.Error(0)
}

func (m *MockInvoiceRepository) BulkUpdatePaidField(ctx context.Context, owner string, ids []string, field string, value bool, updatedAt time.Time) (int64, error) {
	args := m.Called(ctx, owner, ids, field, value, updatedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) UpsertStatuses(ctx context.Context, owner string, updates []repository.StatusUpdate) error {
	args := m.Called(ctx, owner, updates)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DistinctOwners(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
