package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"freightflow/internal/invoice"
	"freightflow/internal/model"
	"freightflow/internal/report"
	"freightflow/internal/repository"
)

var (
	ErrIDRequired  = errors.New("id is required")
	ErrIDsRequired = errors.New("at least one id is required")
	ErrNotFound    = errors.New("invoice not found")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	scanPageSize     = 100
)

// InvoiceListResult is the service-level DTO for one cursor page.
type InvoiceListResult struct {
	Items      []model.InvoiceRecord `json:"data"`
	NextCursor string                `json:"next_cursor,omitempty"`
	HasMore    bool                  `json:"has_more"`
}

// InvoiceService exposes owner-scoped reads, paid-flag updates, KPI
// aggregation and report export.
type InvoiceService interface {
	// List returns one cursor page of the owner's records.
	List(ctx context.Context, owner, cursor string, limit int) (*InvoiceListResult, error)

	// SetPaid toggles one paid flag on one record. Fails closed with
	// ErrNotFound when the id/owner pair matches nothing; re-applying the
	// same value is a no-op.
	SetPaid(ctx context.Context, owner, id, field string, value bool) error

	// BulkSetPaid applies one paid-flag value across a set of ids as a
	// single atomic-per-batch write. Returns the number of rows updated.
	BulkSetPaid(ctx context.Context, owner string, ids []string, field string, value bool) (int64, error)

	// KPIs reduces the owner's full record set into cash-flow metrics,
	// scanning in bounded pages.
	KPIs(ctx context.Context, owner string) (*model.KPISet, error)

	// Report renders the owner's CSV report (records plus KPI block).
	Report(ctx context.Context, owner string) ([]byte, error)
}

type invoiceService struct {
	repo repository.InvoiceRepository
	now  func() time.Time
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(repo repository.InvoiceRepository) InvoiceService {
	return &invoiceService{repo: repo, now: time.Now}
}

func (s *invoiceService) List(ctx context.Context, owner, cursor string, limit int) (*InvoiceListResult, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, err := s.repo.ListPage(ctx, repository.CursorQuery{Owner: owner, Cursor: cursor, Limit: limit})
	if err != nil {
		return nil, err
	}

	res := &InvoiceListResult{Items: items}
	if len(items) == limit {
		res.NextCursor = items[len(items)-1].ID
		res.HasMore = true
	}
	return res, nil
}

func (s *invoiceService) SetPaid(ctx context.Context, owner, id, field string, value bool) error {
	if owner == "" {
		return ErrOwnerRequired
	}
	if id == "" {
		return ErrIDRequired
	}
	err := s.repo.UpdatePaidField(ctx, owner, id, field, value, s.now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *invoiceService) BulkSetPaid(ctx context.Context, owner string, ids []string, field string, value bool) (int64, error) {
	if owner == "" {
		return 0, ErrOwnerRequired
	}
	if len(ids) == 0 {
		return 0, ErrIDsRequired
	}
	return s.repo.BulkUpdatePaidField(ctx, owner, ids, field, value, s.now().UTC())
}

func (s *invoiceService) KPIs(ctx context.Context, owner string) (*model.KPISet, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	var acc invoice.KPIAccumulator
	err := s.scanAll(ctx, owner, func(rec model.InvoiceRecord) {
		acc.Add(rec)
	})
	if err != nil {
		return nil, err
	}
	kpis := acc.Result()
	return &kpis, nil
}

func (s *invoiceService) Report(ctx context.Context, owner string) ([]byte, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}
	var records []model.InvoiceRecord
	err := s.scanAll(ctx, owner, func(rec model.InvoiceRecord) {
		records = append(records, rec)
	})
	if err != nil {
		return nil, err
	}
	return report.WriteCSV(records, invoice.ComputeKPIs(records))
}

// scanAll walks the owner's whole record set in cursor pages of scanPageSize.
func (s *invoiceService) scanAll(ctx context.Context, owner string, fn func(model.InvoiceRecord)) error {
	cursor := ""
	for {
		page, err := s.repo.ListPage(ctx, repository.CursorQuery{Owner: owner, Cursor: cursor, Limit: scanPageSize})
		if err != nil {
			return fmt.Errorf("scan invoices: %w", err)
		}
		if len(page) == 0 {
			return nil
		}
		for i := range page {
			fn(page[i])
		}
		cursor = page[len(page)-1].ID
		if len(page) < scanPageSize {
			return nil
		}
	}
}
