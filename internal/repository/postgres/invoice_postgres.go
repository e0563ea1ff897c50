package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"freightflow/internal/model"
	"freightflow/internal/repository"
)

// invoiceColumns is the canonical column list shared by every SELECT.
const invoiceColumns = `id, load_number, bill_date, shipper, carrier, total_charge, carrier_pay,
	shipper_terms, carrier_terms, shipper_due, carrier_due, shipper_paid, carrier_paid,
	flagged_reason, status, owner, file_url, created_at, updated_at`

// InvoicePostgres is a PostgreSQL implementation of
// repository.InvoiceRepository using database/sql with parameterized queries.
type InvoicePostgres struct {
	db *sql.DB
}

// NewInvoicePostgres creates a new InvoicePostgres repository.
func NewInvoicePostgres(db *sql.DB) *InvoicePostgres {
	return &InvoicePostgres{db: db}
}

var _ repository.InvoiceRepository = (*InvoicePostgres)(nil)

// InsertBatch inserts all records inside one transaction so a failed batch
// leaves nothing behind.
func (r *InvoicePostgres) InsertBatch(ctx context.Context, recs []model.InvoiceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	const q = `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	for i := range recs {
		rec := &recs[i]
		if _, err := tx.ExecContext(ctx, q,
			rec.ID,
			rec.LoadNumber,
			rec.BillDate,
			rec.Shipper,
			rec.Carrier,
			rec.TotalCharge,
			rec.CarrierPay,
			rec.ShipperTerms,
			rec.CarrierTerms,
			rec.ShipperDue,
			rec.CarrierDue,
			rec.ShipperPaid,
			rec.CarrierPaid,
			rec.FlaggedReason,
			rec.Status,
			rec.Owner,
			rec.FileURL,
			rec.CreatedAt,
			rec.UpdatedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert invoice %s: %w", rec.LoadNumber, err)
		}
	}
	return tx.Commit()
}

// ListPage fetches one cursor page: owner's rows with id > cursor, ordered by
// id. A short page signals end-of-data to the caller.
func (r *InvoicePostgres) ListPage(ctx context.Context, q repository.CursorQuery) ([]model.InvoiceRecord, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE owner = $1 AND id > $2
		ORDER BY id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, q.Owner, q.Cursor, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := make([]model.InvoiceRecord, 0, q.Limit)
	for rows.Next() {
		rec, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// UpdatePaidField flips one paid flag, scoped by owner. sql.ErrNoRows when
// the id/owner pair matches nothing; the write is then not applied at all.
func (r *InvoicePostgres) UpdatePaidField(ctx context.Context, owner, id, field string, value bool, updatedAt time.Time) error {
	if err := validatePaidField(field); err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE invoices SET %s = $1, updated_at = $2 WHERE id = $3 AND owner = $4`, field)
	res, err := r.db.ExecContext(ctx, q, value, updatedAt, id, owner)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BulkUpdatePaidField applies one paid-flag value across a set of ids in a
// single statement. Atomic per batch: either the statement applies or
// nothing does.
func (r *InvoicePostgres) BulkUpdatePaidField(ctx context.Context, owner string, ids []string, field string, value bool, updatedAt time.Time) (int64, error) {
	if err := validatePaidField(field); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, value, updatedAt, owner)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+4)
		args = append(args, id)
	}
	q := fmt.Sprintf(
		`UPDATE invoices SET %s = $1, updated_at = $2 WHERE owner = $3 AND id IN (%s)`,
		field, strings.Join(placeholders, ", "),
	)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpsertStatuses writes a chunk of derived statuses in one transaction. The
// status guard makes a repeat run with identical derivations a true no-op.
func (r *InvoicePostgres) UpsertStatuses(ctx context.Context, owner string, updates []repository.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	const q = `
		UPDATE invoices SET status = $1, updated_at = $2
		WHERE id = $3 AND owner = $4 AND status IS DISTINCT FROM $1
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status upsert: %w", err)
	}
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, q, u.Status, u.UpdatedAt, u.ID, owner); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert status for %s: %w", u.ID, err)
		}
	}
	return tx.Commit()
}

// DistinctOwners lists every broker with at least one record.
func (r *InvoicePostgres) DistinctOwners(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT owner FROM invoices ORDER BY owner`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

func validatePaidField(field string) error {
	switch field {
	case repository.FieldShipperPaid, repository.FieldCarrierPaid:
		return nil
	default:
		return fmt.Errorf("field %q is not updatable", field)
	}
}

func scanInvoice(rows *sql.Rows) (model.InvoiceRecord, error) {
	var rec model.InvoiceRecord
	var billDate, shipperDue, carrierDue sql.NullTime
	var flaggedReason sql.NullString
	err := rows.Scan(
		&rec.ID,
		&rec.LoadNumber,
		&billDate,
		&rec.Shipper,
		&rec.Carrier,
		&rec.TotalCharge,
		&rec.CarrierPay,
		&rec.ShipperTerms,
		&rec.CarrierTerms,
		&shipperDue,
		&carrierDue,
		&rec.ShipperPaid,
		&rec.CarrierPaid,
		&flaggedReason,
		&rec.Status,
		&rec.Owner,
		&rec.FileURL,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return rec, err
	}
	if billDate.Valid {
		t := billDate.Time
		rec.BillDate = &t
	}
	if shipperDue.Valid {
		t := shipperDue.Time
		rec.ShipperDue = &t
	}
	if carrierDue.Valid {
		t := carrierDue.Time
		rec.CarrierDue = &t
	}
	if flaggedReason.Valid {
		s := flaggedReason.String
		rec.FlaggedReason = &s
	}
	return rec, nil
}
