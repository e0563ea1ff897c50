package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"freightflow/internal/model"
	"freightflow/internal/repository"
	repoMocks "freightflow/internal/repository/mocks"
)

func makeRecords(owner string, n int) []model.InvoiceRecord {
	recs := make([]model.InvoiceRecord, n)
	for i := range recs {
		recs[i] = model.InvoiceRecord{
			ID:          fmt.Sprintf("id-%04d", i),
			LoadNumber:  fmt.Sprintf("%d", 1000+i),
			Shipper:     "Acme Foods",
			Carrier:     "Fast Freight",
			TotalCharge: 1500,
			CarrierPay:  1100,
			Owner:       owner,
			Status:      model.StatusPending,
		}
	}
	return recs
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("full page sets next cursor", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		page := makeRecords("a@x.com", 10)
		mRepo.On("ListPage", ctx, repository.CursorQuery{Owner: "a@x.com", Cursor: "", Limit: 10}).
			Return(page, nil).Once()

		res, err := svc.List(ctx, "a@x.com", "", 10)
		require.NoError(t, err)
		assert.Len(t, res.Items, 10)
		assert.True(t, res.HasMore)
		assert.Equal(t, "id-0009", res.NextCursor)
		mRepo.AssertExpectations(t)
	})

	t.Run("short page is the last page", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		mRepo.On("ListPage", ctx, repository.CursorQuery{Owner: "a@x.com", Cursor: "id-0009", Limit: 10}).
			Return(makeRecords("a@x.com", 3), nil).Once()

		res, err := svc.List(ctx, "a@x.com", "id-0009", 10)
		require.NoError(t, err)
		assert.Len(t, res.Items, 3)
		assert.False(t, res.HasMore)
		assert.Empty(t, res.NextCursor)
	})

	t.Run("limit defaults and caps", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		mRepo.On("ListPage", ctx, repository.CursorQuery{Owner: "a@x.com", Limit: defaultListLimit}).
			Return([]model.InvoiceRecord{}, nil).Once()
		_, err := svc.List(ctx, "a@x.com", "", 0)
		require.NoError(t, err)

		mRepo.On("ListPage", ctx, repository.CursorQuery{Owner: "a@x.com", Limit: maxListLimit}).
			Return([]model.InvoiceRecord{}, nil).Once()
		_, err = svc.List(ctx, "a@x.com", "", 10000)
		require.NoError(t, err)

		mRepo.AssertExpectations(t)
	})

	t.Run("missing owner", func(t *testing.T) {
		svc := NewInvoiceService(new(repoMocks.MockInvoiceRepository))
		_, err := svc.List(ctx, "", "", 10)
		assert.ErrorIs(t, err, ErrOwnerRequired)
	})
}

func TestInvoiceService_SetPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		mRepo.On("UpdatePaidField", ctx, "a@x.com", "id-1", repository.FieldShipperPaid, true, mock.Anything).
			Return(nil).Once()

		err := svc.SetPaid(ctx, "a@x.com", "id-1", repository.FieldShipperPaid, true)
		assert.NoError(t, err)
		mRepo.AssertExpectations(t)
	})

	t.Run("unknown id maps to not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		mRepo.On("UpdatePaidField", ctx, "a@x.com", "missing", repository.FieldCarrierPaid, false, mock.Anything).
			Return(sql.ErrNoRows).Once()

		err := svc.SetPaid(ctx, "a@x.com", "missing", repository.FieldCarrierPaid, false)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		svc := NewInvoiceService(new(repoMocks.MockInvoiceRepository))
		err := svc.SetPaid(ctx, "a@x.com", "", repository.FieldShipperPaid, true)
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestInvoiceService_BulkSetPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		mRepo.On("BulkUpdatePaidField", ctx, "a@x.com", []string{"id-1", "id-2"}, repository.FieldCarrierPaid, true, mock.Anything).
			Return(int64(2), nil).Once()

		updated, err := svc.BulkSetPaid(ctx, "a@x.com", []string{"id-1", "id-2"}, repository.FieldCarrierPaid, true)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)
	})

	t.Run("empty ids", func(t *testing.T) {
		svc := NewInvoiceService(new(repoMocks.MockInvoiceRepository))
		_, err := svc.BulkSetPaid(ctx, "a@x.com", nil, repository.FieldCarrierPaid, true)
		assert.ErrorIs(t, err, ErrIDsRequired)
	})
}

func TestInvoiceService_KPIs(t *testing.T) {
	ctx := context.Background()

	t.Run("pages through the whole set", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		// 150 records arrive as a full page then a short page.
		all := makeRecords("a@x.com", 150)
		mRepo.On("ListPage", ctx, repository.CursorQuery{Owner: "a@x.com", Cursor: "", Limit: scanPageSize}).
			Return(all[:100], nil).Once()
		mRepo.On("ListPage", ctx, repository.CursorQuery{Owner: "a@x.com", Cursor: "id-0099", Limit: scanPageSize}).
			Return(all[100:], nil).Once()

		kpis, err := svc.KPIs(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, 150, kpis.TotalInvoices)
		assert.Equal(t, 150.0*400, kpis.ProjectedCashFlow)
		assert.Equal(t, 150.0*1500, kpis.TotalReceivables)
		mRepo.AssertExpectations(t)
	})

	t.Run("empty set yields zero kpis", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		mRepo.On("ListPage", ctx, mock.Anything).Return([]model.InvoiceRecord{}, nil).Once()

		kpis, err := svc.KPIs(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, &model.KPISet{}, kpis)
	})

	t.Run("repo error surfaces", func(t *testing.T) {
		mRepo := new(repoMocks.MockInvoiceRepository)
		svc := NewInvoiceService(mRepo)

		mRepo.On("ListPage", ctx, mock.Anything).Return(nil, errors.New("db down")).Once()

		_, err := svc.KPIs(ctx, "a@x.com")
		assert.ErrorContains(t, err, "scan invoices")
	})
}

func TestInvoiceService_Report(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockInvoiceRepository)
	svc := NewInvoiceService(mRepo)

	mRepo.On("ListPage", ctx, mock.Anything).Return(makeRecords("a@x.com", 2), nil).Once()

	data, err := svc.Report(ctx, "a@x.com")
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	// Header, two records, KPI title and five KPI rows.
	assert.Len(t, rows, 9)
	assert.Equal(t, "Load #", rows[0][0])
}
