package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"freightflow/internal/model"
	"freightflow/internal/service"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Upload(ctx context.Context, owner string, r io.Reader, filename string, size int64) (*service.UploadSummary, error) {
	args := m.Called(ctx, owner, r, filename, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadSummary), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) List(ctx context.Context, owner, cursor string, limit int) (*service.InvoiceListResult, error) {
	args := m.Called(ctx, owner, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InvoiceListResult), args.Error(1)
}

func (m *MockInvoiceService) SetPaid(ctx context.Context, owner, id, field string, value bool) error {
	args := m.Called(ctx, owner, id, field, value)
	return args.Error(0)
}

func (m *MockInvoiceService) BulkSetPaid(ctx context.Context, owner string, ids []string, field string, value bool) (int64, error) {
	args := m.Called(ctx, owner, ids, field, value)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceService) KPIs(ctx context.Context, owner string) (*model.KPISet, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.KPISet), args.Error(1)
}

func (m *MockInvoiceService) Report(ctx context.Context, owner string) ([]byte, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
