package repository

import (
	"context"
	"time"

	"freightflow/internal/model"
)

// Paid-flag column names accepted by the update operations. Anything else is
// rejected before touching SQL.
const (
	FieldShipperPaid = "shipper_paid"
	FieldCarrierPaid = "carrier_paid"
)

// CursorQuery describes one page of an owner-scoped cursor scan: records with
// id strictly greater than Cursor, ordered by id, at most Limit of them. An
// empty Cursor starts from the beginning.
type CursorQuery struct {
	Owner  string
	Cursor string
	Limit  int
}

// StatusUpdate is one reconciler write-back: set the derived status on the
// identified record. Re-applying the same status is a no-op.
type StatusUpdate struct {
	ID        string
	Status    model.Status
	UpdatedAt time.Time
}

// InvoiceRepository defines persistence for invoice records. Pure data
// access; status derivation, flagging and KPI math live elsewhere. Every
// read and write is scoped to the owning broker.
type InvoiceRepository interface {
	// InsertBatch inserts all records in one transaction; on error nothing
	// is persisted.
	InsertBatch(ctx context.Context, recs []model.InvoiceRecord) error

	// ListPage returns one cursor page of the owner's records ordered by id.
	ListPage(ctx context.Context, q CursorQuery) ([]model.InvoiceRecord, error)

	// UpdatePaidField sets one paid flag on one record. It fails closed:
	// when no row matches the id/owner pair it returns sql.ErrNoRows and
	// applies nothing.
	UpdatePaidField(ctx context.Context, owner, id, field string, value bool, updatedAt time.Time) error

	// BulkUpdatePaidField sets one paid flag across a set of record ids in a
	// single statement. Returns the number of rows affected.
	BulkUpdatePaidField(ctx context.Context, owner string, ids []string, field string, value bool, updatedAt time.Time) (int64, error)

	// UpsertStatuses applies a chunk of derived statuses in one transaction.
	UpsertStatuses(ctx context.Context, owner string, updates []StatusUpdate) error

	// DistinctOwners lists every broker that has at least one record.
	DistinctOwners(ctx context.Context) ([]string, error)
}
