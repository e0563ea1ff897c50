package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_invoices",
		SQL: `CREATE TABLE IF NOT EXISTS invoices (
  id             TEXT           PRIMARY KEY,
  load_number    TEXT           NOT NULL,
  bill_date      DATE,
  shipper        TEXT           NOT NULL DEFAULT '',
  carrier        TEXT           NOT NULL DEFAULT '',
  total_charge   NUMERIC(12,2)  NOT NULL DEFAULT 0,
  carrier_pay    NUMERIC(12,2)  NOT NULL DEFAULT 0,
  shipper_terms  TEXT           NOT NULL DEFAULT 'Net 30',
  carrier_terms  TEXT           NOT NULL DEFAULT 'Net 15',
  shipper_due    DATE,
  carrier_due    DATE,
  shipper_paid   BOOLEAN        NOT NULL DEFAULT FALSE,
  carrier_paid   BOOLEAN        NOT NULL DEFAULT FALSE,
  flagged_reason TEXT,
  status         TEXT           NOT NULL DEFAULT 'pending',
  owner          TEXT           NOT NULL,
  file_url       TEXT           NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ    NOT NULL DEFAULT now(),
  updated_at     TIMESTAMPTZ    NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_invoices_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_owner_id ON invoices (owner, id);`,
	},
	{
		Name: "create_index_invoices_owner_load_number",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_owner_load_number ON invoices (owner, load_number);`,
	},
	{
		Name: "create_index_invoices_bill_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_bill_date ON invoices (bill_date);`,
	},
}

// EnsureMigrated checks whether the invoices table exists and bootstraps the
// schema when it does not. Steps are individually idempotent so a partially
// applied bootstrap heals on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	start := time.Now()

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.invoices') IS NOT NULL").Scan(&exists); err != nil {
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}
	if exists {
		log.Debug().Msg("schema already exists, skipping migration")
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().Err(err).Str("migration_step", step.Name).Msg("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info().
			Str("migration_step", step.Name).
			Dur("step_duration", time.Since(stepStart)).
			Msg("migration step applied")
	}

	log.Info().Dur("duration", time.Since(start)).Msg("schema bootstrapped")
	return nil
}
