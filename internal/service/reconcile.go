package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"freightflow/internal/invoice"
	"freightflow/internal/repository"
)

// Reconciler re-derives lifecycle status over an owner's full record set in
// cursor pages, writing results back in bounded chunks. It is re-entrant and
// idempotent: status is a pure function of the record and clock, so
// overlapping runs at worst repeat harmless work, and a failed chunk is
// healed by the next run.
type Reconciler struct {
	repo       repository.InvoiceRepository
	log        zerolog.Logger
	loc        *time.Location
	pageSize   int
	writeBatch int
	now        func() time.Time
}

// ReconcileStats summarizes one reconciliation run.
type ReconcileStats struct {
	Pages        int `json:"pages"`
	Scanned      int `json:"scanned"`
	FailedChunks int `json:"failed_chunks"`
}

// NewReconciler constructs a Reconciler. pageSize and writeBatch fall back to
// 100 and 50 when non-positive.
func NewReconciler(repo repository.InvoiceRepository, loc *time.Location, pageSize, writeBatch int, log zerolog.Logger) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	if writeBatch <= 0 {
		writeBatch = 50
	}
	return &Reconciler{
		repo:       repo,
		log:        log,
		loc:        loc,
		pageSize:   pageSize,
		writeBatch: writeBatch,
		now:        time.Now,
	}
}

// Run reconciles every record owned by owner. A fetch error aborts the run
// (the next run resumes from scratch); a write-back chunk error is logged and
// the loop continues.
func (r *Reconciler) Run(ctx context.Context, owner string) (*ReconcileStats, error) {
	if owner == "" {
		return nil, ErrOwnerRequired
	}

	today := invoice.Today(r.now(), r.loc)
	stats := &ReconcileStats{}
	cursor := ""

	for {
		page, err := r.repo.ListPage(ctx, repository.CursorQuery{Owner: owner, Cursor: cursor, Limit: r.pageSize})
		if err != nil {
			return stats, fmt.Errorf("fetch page after %q: %w", cursor, err)
		}
		if len(page) == 0 {
			break
		}
		stats.Pages++
		stats.Scanned += len(page)

		updates := make([]repository.StatusUpdate, len(page))
		updatedAt := r.now().UTC()
		for i := range page {
			updates[i] = repository.StatusUpdate{
				ID:        page[i].ID,
				Status:    invoice.DeriveStatus(page[i], today),
				UpdatedAt: updatedAt,
			}
		}

		for start := 0; start < len(updates); start += r.writeBatch {
			end := start + r.writeBatch
			if end > len(updates) {
				end = len(updates)
			}
			if err := r.repo.UpsertStatuses(ctx, owner, updates[start:end]); err != nil {
				// Partial failure is acceptable: derivation is idempotent,
				// so the next run heals whatever this chunk missed.
				stats.FailedChunks++
				r.log.Error().Err(err).
					Str("owner", owner).
					Int("chunk_start", start).
					Int("chunk_size", end-start).
					Msg("status write-back chunk failed")
			}
		}

		cursor = page[len(page)-1].ID
		if len(page) < r.pageSize {
			break
		}
	}

	r.log.Info().
		Str("owner", owner).
		Int("pages", stats.Pages).
		Int("scanned", stats.Scanned).
		Int("failed_chunks", stats.FailedChunks).
		Msg("reconciliation run complete")
	return stats, nil
}

// RunAll reconciles every owner that has records. Per-owner failures are
// logged and do not stop the sweep.
func (r *Reconciler) RunAll(ctx context.Context) error {
	owners, err := r.repo.DistinctOwners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}
	for _, owner := range owners {
		if _, err := r.Run(ctx, owner); err != nil {
			r.log.Error().Err(err).Str("owner", owner).Msg("reconciliation failed")
		}
	}
	return nil
}
